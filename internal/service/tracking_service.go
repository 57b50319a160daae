package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aklny/internal/apperror"
	"aklny/internal/auth"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserRoom is the room every connection of a user joins.
func UserRoom(userID string) string { return "user_" + userID }

// OrderRoom carries the live tracking of one order.
func OrderRoom(orderID string) string { return "order_" + orderID }

// TrackingUpdate is a stored tracking change together with the order it belongs to,
// so the caller can notify every participant.
type TrackingUpdate struct {
	Tracking *model.DeliveryTracking
	Order    *model.Order
}

type TrackingService interface {
	UpdateLocation(ctx context.Context, caller *auth.Claims, orderID string, latitude, longitude float64) (*TrackingUpdate, error)
	UpdateDeliveryStatus(ctx context.Context, caller *auth.Claims, orderID, status string) (*TrackingUpdate, error)
	// JoinOrderTracking authorizes the caller for the order and returns its current
	// tracking, which is nil when the driver has not reported yet.
	JoinOrderTracking(ctx context.Context, caller *auth.Claims, orderID string) (*model.DeliveryTracking, error)
}

type trackingService struct {
	tracking repository.TrackingRepository
	orders   repository.OrderRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewTrackingService(tracking repository.TrackingRepository, orders repository.OrderRepository, logger *zap.Logger) TrackingService {
	return &trackingService{
		tracking: tracking,
		orders:   orders,
		logger:   logger.Named("tracking_service"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *trackingService) UpdateLocation(ctx context.Context, caller *auth.Claims, orderID string, latitude, longitude float64) (*TrackingUpdate, error) {
	if !auth.HasRole(caller, model.RoleDeliveryDriver) {
		return nil, apperror.Forbidden("only delivery drivers can update location")
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, apperror.Validation("latitude must be within [-90, 90] and longitude within [-180, 180]")
	}

	order, err := s.assignedOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}

	loc := model.Location{Latitude: latitude, Longitude: longitude}
	tracking, err := s.tracking.UpsertLocation(ctx, order.ID.String(), caller.UserID, loc, s.now())
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("upsert tracking: %w", err))
	}
	return &TrackingUpdate{Tracking: tracking, Order: order}, nil
}

func (s *trackingService) UpdateDeliveryStatus(ctx context.Context, caller *auth.Claims, orderID, status string) (*TrackingUpdate, error) {
	if !auth.HasRole(caller, model.RoleDeliveryDriver) {
		return nil, apperror.Forbidden("only delivery drivers can update delivery status")
	}
	if !validTrackingStatus(status) {
		return nil, apperror.Validation("invalid status, expected one of: " + strings.Join(model.TrackingStatuses, ", "))
	}

	order, err := s.assignedOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tracking, err := s.tracking.UpdateStatus(ctx, order.ID.String(), caller.UserID, status, now)
	if err != nil {
		if errors.Is(err, repository.ErrTrackingNotFound) {
			return nil, apperror.NotFound("no live tracking for this order, send a location first")
		}
		return nil, apperror.Internal(fmt.Errorf("update tracking status: %w", err))
	}

	orderStatus := model.OrderStatusForTracking(status)
	if err := s.orders.UpdateStatus(ctx, order.ID, orderStatus, now); err != nil {
		return nil, apperror.Internal(fmt.Errorf("update order status: %w", err))
	}
	order.Status = orderStatus
	if orderStatus == model.OrderStatusDelivered {
		order.DeliveredAt = &now
	}

	s.logger.Info("delivery status updated", zap.String("order_id", orderID), zap.String("status", status))
	return &TrackingUpdate{Tracking: tracking, Order: order}, nil
}

func (s *trackingService) JoinOrderTracking(ctx context.Context, caller *auth.Claims, orderID string) (*model.DeliveryTracking, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canViewOrder(caller, order) {
		return nil, apperror.Forbidden("you are not a participant of this order")
	}

	tracking, err := s.tracking.FindByOrder(ctx, order.ID.String())
	if err != nil {
		if errors.Is(err, repository.ErrTrackingNotFound) {
			return nil, nil
		}
		return nil, apperror.Internal(fmt.Errorf("find tracking: %w", err))
	}
	return tracking, nil
}

func (s *trackingService) findOrder(ctx context.Context, orderID string) (*model.Order, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperror.Validation("invalid orderId")
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("order not found")
		}
		return nil, apperror.Internal(err)
	}
	return order, nil
}

// assignedOrder loads the order and checks the caller is its driver.
func (s *trackingService) assignedOrder(ctx context.Context, caller *auth.Claims, orderID string) (*model.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.DriverID == nil || order.DriverID.String() != caller.UserID {
		return nil, apperror.Forbidden("you are not the driver assigned to this order")
	}
	return order, nil
}

func validTrackingStatus(status string) bool {
	for _, s := range model.TrackingStatuses {
		if s == status {
			return true
		}
	}
	return false
}
