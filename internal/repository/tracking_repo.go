package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aklny/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trackingCollectionName = "delivery_tracking"

// TrackingRepository stores the live position of deliveries.
type TrackingRepository interface {
	UpsertLocation(ctx context.Context, orderID, driverID string, loc model.Location, at time.Time) (*model.DeliveryTracking, error)
	UpdateStatus(ctx context.Context, orderID, driverID, status string, at time.Time) (*model.DeliveryTracking, error)
	FindByOrder(ctx context.Context, orderID string) (*model.DeliveryTracking, error)
}

type trackingRepository struct {
	coll *mongo.Collection
}

func NewTrackingRepository(db *mongo.Database) TrackingRepository {
	return &trackingRepository{coll: db.Collection(trackingCollectionName)}
}

// EnsureTrackingIndexes creates the one-document-per-order index.
func EnsureTrackingIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(trackingCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "driverId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create tracking indexes: %w", err)
	}
	return nil
}

// UpsertLocation records the driver's position, creating the order's tracking
// document on first report.
func (r *trackingRepository) UpsertLocation(ctx context.Context, orderID, driverID string, loc model.Location, at time.Time) (*model.DeliveryTracking, error) {
	filter := bson.M{"orderId": orderID}
	update := bson.M{
		"$set": bson.M{"driverId": driverID, "location": loc, "timestamp": at, "updatedAt": at},
		"$setOnInsert": bson.M{
			"trackingStatus": model.TrackingPendingPickup,
			"createdAt":      at,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc model.DeliveryTracking
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("upsert tracking: %w", err)
	}
	return &doc, nil
}

// UpdateStatus changes the status of an existing tracking document owned by driverID.
func (r *trackingRepository) UpdateStatus(ctx context.Context, orderID, driverID, status string, at time.Time) (*model.DeliveryTracking, error) {
	filter := bson.M{"orderId": orderID, "driverId": driverID}
	update := bson.M{"$set": bson.M{"trackingStatus": status, "timestamp": at, "updatedAt": at}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc model.DeliveryTracking
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTrackingNotFound
		}
		return nil, fmt.Errorf("update tracking status: %w", err)
	}
	return &doc, nil
}

func (r *trackingRepository) FindByOrder(ctx context.Context, orderID string) (*model.DeliveryTracking, error) {
	var doc model.DeliveryTracking
	err := r.coll.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTrackingNotFound
		}
		return nil, fmt.Errorf("find tracking: %w", err)
	}
	return &doc, nil
}
