package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order status values
const (
	OrderStatusPending        = "pending"
	OrderStatusPreparing      = "preparing"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// Tracking status values reported by drivers
const (
	TrackingPendingPickup   = "pending_pickup"
	TrackingPickedUp        = "picked_up"
	TrackingEnRoute         = "en_route"
	TrackingArrivedCustomer = "arrived_customer_location"
	TrackingDelivered       = "delivered"
)

// TrackingStatuses lists every status a driver may report.
var TrackingStatuses = []string{
	TrackingPendingPickup,
	TrackingPickedUp,
	TrackingEnRoute,
	TrackingArrivedCustomer,
	TrackingDelivered,
}

// OrderStatusForTracking maps a driver tracking status onto the order lifecycle.
func OrderStatusForTracking(status string) string {
	switch status {
	case TrackingPickedUp, TrackingEnRoute, TrackingArrivedCustomer:
		return OrderStatusOutForDelivery
	case TrackingDelivered:
		return OrderStatusDelivered
	default:
		return OrderStatusPreparing
	}
}

// Order links the customer, the seller and, once assigned, the driver of a delivery.
type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	SellerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"seller_id"`
	DriverID    *uuid.UUID      `gorm:"type:uuid;index" json:"driver_id"`
	Status      string          `gorm:"type:varchar(50);not null;default:'pending'" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	Note        string          `gorm:"type:text" json:"note"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	DeliveredAt *time.Time      `json:"delivered_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OrderItem is a line of an order, priced at the time it was placed.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	FoodItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"food_item_id"`
	Name       string          `gorm:"type:varchar(255);not null" json:"name"`
	Quantity   int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// IsParticipant reports whether userID is the customer, seller or driver of the order.
func (o *Order) IsParticipant(userID uuid.UUID) bool {
	if o.CustomerID == userID || o.SellerID == userID {
		return true
	}
	return o.DriverID != nil && *o.DriverID == userID
}
