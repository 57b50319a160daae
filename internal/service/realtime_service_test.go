package service_test

import (
	"context"
	"strings"
	"testing"

	"aklny/internal/apperror"
	"aklny/internal/model"
	"aklny/internal/repository"
	"aklny/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// assignedOrder places an order and hands it to the fixture driver.
func assignedOrder(t *testing.T, f *orderFixture) string {
	t.Helper()
	order := f.place(t)
	_, err := f.orders.AssignDriver(context.Background(), claimsFor(f.seller), mustParse(t, order.ID), service.AssignDriverRequest{DriverID: f.driver.ID.String()})
	require.NoError(t, err)
	return order.ID
}

func TestTracking_DriverFlow(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	tracking := service.NewTrackingService(repository.NewMemoryTrackingRepository(), f.h.orders, zap.NewNop())
	orderID := assignedOrder(t, f)

	current, err := tracking.JoinOrderTracking(ctx, claimsFor(f.customer), orderID)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = tracking.UpdateDeliveryStatus(ctx, claimsFor(f.driver), orderID, model.TrackingPickedUp)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	update, err := tracking.UpdateLocation(ctx, claimsFor(f.driver), orderID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, model.TrackingPendingPickup, update.Tracking.TrackingStatus)
	assert.Equal(t, f.customer.ID, update.Order.CustomerID)

	update, err = tracking.UpdateDeliveryStatus(ctx, claimsFor(f.driver), orderID, model.TrackingDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, update.Order.Status)
	require.NotNil(t, update.Order.DeliveredAt)

	stored, err := f.h.orders.FindByID(ctx, mustParse(t, orderID))
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, stored.Status)

	current, err = tracking.JoinOrderTracking(ctx, claimsFor(f.seller), orderID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, model.TrackingDelivered, current.TrackingStatus)
}

func TestTracking_Authorization(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	tracking := service.NewTrackingService(repository.NewMemoryTrackingRepository(), f.h.orders, zap.NewNop())
	orderID := assignedOrder(t, f)
	otherDriver := f.h.seedUser(t, "driver2@x.com", model.RoleDeliveryDriver)
	stranger := f.h.seedUser(t, "stranger@x.com", model.RoleCustomer)

	_, err := tracking.UpdateLocation(ctx, claimsFor(f.customer), orderID, 30, 31)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = tracking.UpdateLocation(ctx, claimsFor(otherDriver), orderID, 30, 31)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = tracking.UpdateLocation(ctx, claimsFor(f.driver), orderID, 91, 31)
	assert.Equal(t, apperror.KindValidation, apperror.From(err).Kind)
	_, err = tracking.UpdateDeliveryStatus(ctx, claimsFor(f.driver), orderID, "teleported")
	assert.Equal(t, apperror.KindValidation, apperror.From(err).Kind)
	_, err = tracking.UpdateLocation(ctx, claimsFor(f.driver), uuid.NewString(), 30, 31)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = tracking.JoinOrderTracking(ctx, claimsFor(stranger), orderID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = tracking.JoinOrderTracking(ctx, claimsFor(f.customer), "not-a-uuid")
	assert.Equal(t, apperror.KindValidation, apperror.From(err).Kind)
}

func TestChat_SendHistoryAndRead(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	chat := service.NewChatService(repository.NewMemoryChatRepository(), f.h.orders)
	orderID := assignedOrder(t, f)
	room := service.OrderRoom(orderID)

	msg, err := chat.Send(ctx, claimsFor(f.customer), service.SendMessageRequest{Room: room, Message: " where is my food? ", RecipientID: f.driver.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID.String(), msg.SenderID)
	assert.Equal(t, "where is my food?", msg.Message)
	assert.Equal(t, model.MessageTypeText, msg.MessageType)

	history, err := chat.JoinRoom(ctx, claimsFor(f.driver), room)
	require.NoError(t, err)
	require.Len(t, history, 1)

	n, err := chat.MarkRead(ctx, claimsFor(f.driver), room)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestChat_Rejections(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	chat := service.NewChatService(repository.NewMemoryChatRepository(), f.h.orders)
	orderID := assignedOrder(t, f)
	stranger := f.h.seedUser(t, "stranger@x.com", model.RoleCustomer)

	tests := []struct {
		name string
		req  service.SendMessageRequest
		kind apperror.Kind
	}{
		{"empty message", service.SendMessageRequest{Room: "lobby", Message: "  "}, apperror.KindValidation},
		{"too long", service.SendMessageRequest{Room: "lobby", Message: strings.Repeat("a", model.MaxChatMessageLength+1)}, apperror.KindValidation},
		{"bad type", service.SendMessageRequest{Room: "lobby", Message: "hi", MessageType: model.MessageTypeSystem}, apperror.KindValidation},
		{"no room", service.SendMessageRequest{Message: "hi"}, apperror.KindValidation},
		{"foreign order room", service.SendMessageRequest{Room: service.OrderRoom(orderID), Message: "hi"}, apperror.KindForbidden},
		{"foreign user room", service.SendMessageRequest{Room: service.UserRoom(f.customer.ID.String()), Message: "hi"}, apperror.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chat.Send(ctx, claimsFor(stranger), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.From(err).Kind)
		})
	}

	_, err := chat.Send(ctx, claimsFor(stranger), service.SendMessageRequest{Room: "lobby", Message: strings.Repeat("a", model.MaxChatMessageLength)})
	require.NoError(t, err)
}
