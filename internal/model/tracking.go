package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is a GPS fix reported by a driver.
type Location struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// DeliveryTracking is the live position of one order, one document per order.
type DeliveryTracking struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OrderID        string             `bson:"orderId" json:"orderId"`
	DriverID       string             `bson:"driverId" json:"driverId"`
	Location       Location           `bson:"location" json:"location"`
	TrackingStatus string             `bson:"trackingStatus" json:"trackingStatus"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeSystem = "system"
)

// MaxChatMessageLength bounds a single chat message.
const MaxChatMessageLength = 1000

// ChatMessage is one message in a chat room.
type ChatMessage struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Room        string             `bson:"room" json:"room"`
	SenderID    string             `bson:"senderId" json:"senderId"`
	RecipientID string             `bson:"recipientId,omitempty" json:"recipientId,omitempty"`
	Message     string             `bson:"message" json:"message"`
	MessageType string             `bson:"messageType" json:"messageType"`
	IsRead      bool               `bson:"isRead" json:"isRead"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
