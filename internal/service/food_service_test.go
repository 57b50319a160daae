package service_test

import (
	"context"
	"testing"

	"aklny/internal/apperror"
	"aklny/internal/model"
	"aklny/internal/repository"
	"aklny/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoodService_OwnerOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	foods := service.NewFoodService(h.foods, h.txManager, h.audit)
	owner := h.seedUser(t, "owner@x.com", model.RoleSeller)
	other := h.seedUser(t, "other@x.com", model.RoleSeller)

	item, err := foods.CreateFoodItem(ctx, owner.ID, service.CreateFoodItemRequest{
		Name:  "Koshary",
		Price: decimal.RequireFromString("45.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "45.50", item.Price)
	assert.True(t, item.IsAvailable)

	id := mustParse(t, item.ID)
	newName := "Stolen"
	_, err = foods.UpdateFoodItem(ctx, other.ID, id, service.UpdateFoodItemRequest{Name: &newName})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.ErrorIs(t, foods.DeleteFoodItem(ctx, other.ID, id), apperror.ErrForbidden)

	price := decimal.RequireFromString("50")
	unavailable := false
	updated, err := foods.UpdateFoodItem(ctx, owner.ID, id, service.UpdateFoodItemRequest{Price: &price, IsAvailable: &unavailable})
	require.NoError(t, err)
	assert.Equal(t, "50.00", updated.Price)
	assert.Equal(t, "Koshary", updated.Name)
	assert.False(t, updated.IsAvailable)

	listed, total, err := foods.ListAvailable(ctx, 1, 20, repository.FoodFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, listed)

	mine, total, err := foods.ListMine(ctx, owner.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, mine, 1)

	require.NoError(t, foods.DeleteFoodItem(ctx, owner.ID, id))
	_, err = foods.GetFoodItem(ctx, id)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFoodService_Validation(t *testing.T) {
	h := newHarness(t)
	foods := service.NewFoodService(h.foods, h.txManager, h.audit)
	seller := h.seedUser(t, "s@x.com", model.RoleSeller)

	_, err := foods.CreateFoodItem(context.Background(), seller.ID, service.CreateFoodItemRequest{Name: "Free", Price: decimal.Zero})
	assert.Equal(t, apperror.KindValidation, apperror.From(err).Kind)

	_, err = foods.CreateFoodItem(context.Background(), seller.ID, service.CreateFoodItemRequest{Name: " ", Price: decimal.NewFromInt(3)})
	assert.Equal(t, apperror.KindValidation, apperror.From(err).Kind)
}
