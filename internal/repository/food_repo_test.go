package repository_test

import (
	"context"
	"testing"

	"aklny/internal/database/dbtest"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoodRepository_Listings(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	users := repository.NewUserRepository(db)
	foods := repository.NewFoodRepository(db)

	seller := newUser("seller@x.com")
	seller.Role = model.RoleSeller
	require.NoError(t, users.Create(ctx, seller))

	items := []*model.FoodItem{
		{SellerID: seller.ID, Name: "Koshari", Price: decimal.RequireFromString("45.50"), Category: "main", IsAvailable: true},
		{SellerID: seller.ID, Name: "Feteer", Price: decimal.RequireFromString("60"), Category: "bakery", IsAvailable: true},
		{SellerID: seller.ID, Name: "Molokhia", Price: decimal.RequireFromString("30"), Category: "main", IsAvailable: false},
	}
	for _, it := range items {
		require.NoError(t, foods.Create(ctx, it))
	}

	available, total, err := foods.ListAvailable(ctx, 1, 10, repository.FoodFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, available, 2)

	mains, total, err := foods.ListAvailable(ctx, 1, 10, repository.FoodFilter{Category: "main"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Koshari", mains[0].Name)
	assert.True(t, decimal.RequireFromString("45.5").Equal(mains[0].Price))

	searched, _, err := foods.ListAvailable(ctx, 1, 10, repository.FoodFilter{Search: "fet"})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, "Feteer", searched[0].Name)

	mine, total, err := foods.ListBySeller(ctx, seller.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, mine, 3)

	require.NoError(t, foods.Delete(ctx, items[0].ID))
	_, err = foods.FindByID(ctx, items[0].ID)
	assert.True(t, repository.IsNotFound(err))
}
