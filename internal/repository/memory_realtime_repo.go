package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"aklny/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryTrackingRepository keeps tracking documents in process. It backs the
// realtime gateway when no MongoDB is configured.
type MemoryTrackingRepository struct {
	mu   sync.Mutex
	docs map[string]model.DeliveryTracking
}

func NewMemoryTrackingRepository() *MemoryTrackingRepository {
	return &MemoryTrackingRepository{docs: map[string]model.DeliveryTracking{}}
}

func (r *MemoryTrackingRepository) UpsertLocation(_ context.Context, orderID, driverID string, loc model.Location, at time.Time) (*model.DeliveryTracking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[orderID]
	if !ok {
		doc = model.DeliveryTracking{
			ID:             primitive.NewObjectID(),
			OrderID:        orderID,
			TrackingStatus: model.TrackingPendingPickup,
			CreatedAt:      at,
		}
	}
	doc.DriverID = driverID
	doc.Location = loc
	doc.Timestamp = at
	doc.UpdatedAt = at
	r.docs[orderID] = doc
	return &doc, nil
}

func (r *MemoryTrackingRepository) UpdateStatus(_ context.Context, orderID, driverID, status string, at time.Time) (*model.DeliveryTracking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[orderID]
	if !ok || doc.DriverID != driverID {
		return nil, ErrTrackingNotFound
	}
	doc.TrackingStatus = status
	doc.Timestamp = at
	doc.UpdatedAt = at
	r.docs[orderID] = doc
	return &doc, nil
}

func (r *MemoryTrackingRepository) FindByOrder(_ context.Context, orderID string) (*model.DeliveryTracking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[orderID]
	if !ok {
		return nil, ErrTrackingNotFound
	}
	return &doc, nil
}

// MemoryChatRepository keeps chat history in process.
type MemoryChatRepository struct {
	mu       sync.Mutex
	messages []model.ChatMessage
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{}
}

func (r *MemoryChatRepository) Save(_ context.Context, msg *model.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg.ID = primitive.NewObjectID()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *MemoryChatRepository) History(_ context.Context, room string, limit int) ([]model.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var inRoom []model.ChatMessage
	for _, m := range r.messages {
		if m.Room == room {
			inRoom = append(inRoom, m)
		}
	}
	sort.SliceStable(inRoom, func(i, j int) bool { return inRoom[i].CreatedAt.Before(inRoom[j].CreatedAt) })
	if len(inRoom) > limit {
		inRoom = inRoom[len(inRoom)-limit:]
	}
	return inRoom, nil
}

func (r *MemoryChatRepository) MarkRead(_ context.Context, room, readerID, senderID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for i := range r.messages {
		m := &r.messages[i]
		if m.Room != room || m.RecipientID != readerID || m.IsRead {
			continue
		}
		if senderID != "" && m.SenderID != senderID {
			continue
		}
		m.IsRead = true
		n++
	}
	return n, nil
}
