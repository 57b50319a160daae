package repository_test

import (
	"context"
	"testing"
	"time"

	"aklny/internal/database/dbtest"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	users := repository.NewUserRepository(db)
	orders := repository.NewOrderRepository(db)
	stats := repository.NewStatisticsRepository(db)

	customer := newUser("customer@x.com")
	seller := newUser("seller@x.com")
	seller.Role = model.RoleSeller
	require.NoError(t, users.Create(ctx, customer))
	require.NoError(t, users.Create(ctx, seller))

	falafel, koshari := uuid.New(), uuid.New()
	place := func(status string, total string, lines ...model.OrderItem) {
		o := &model.Order{CustomerID: customer.ID, SellerID: seller.ID, Status: status, TotalAmount: decimal.RequireFromString(total)}
		require.NoError(t, orders.Create(ctx, o))
		for i := range lines {
			lines[i].OrderID = o.ID
			require.NoError(t, orders.CreateItem(ctx, &lines[i]))
		}
	}
	line := func(id uuid.UUID, name string, qty int, price string) model.OrderItem {
		return model.OrderItem{FoodItemID: id, Name: name, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
	}

	place(model.OrderStatusDelivered, "37.50", line(falafel, "Falafel", 3, "12.50"))
	place(model.OrderStatusDelivered, "115.00", line(koshari, "Koshari", 2, "45.00"), line(falafel, "Falafel", 2, "12.50"))
	place(model.OrderStatusPending, "45.00", line(koshari, "Koshari", 1, "45.00"))
	place(model.OrderStatusCancelled, "125.00", line(falafel, "Falafel", 10, "12.50"))

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)

	byStatus, err := stats.CountOrdersByStatus(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		model.OrderStatusDelivered: 2,
		model.OrderStatusPending:   1,
		model.OrderStatusCancelled: 1,
	}, byStatus)

	count, revenue, err := stats.DeliveredRevenue(ctx, from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.True(t, decimal.RequireFromString("152.50").Equal(revenue), revenue.String())

	byRole, err := stats.CountUsersByRole(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, byRole[model.RoleCustomer])
	assert.EqualValues(t, 1, byRole[model.RoleSeller])

	top, err := stats.TopFoodItems(ctx, from, to, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Falafel", top[0].Name)
	assert.EqualValues(t, 5, top[0].TotalQuantity)
	assert.True(t, decimal.RequireFromString("62.50").Equal(top[0].TotalValue))
	assert.Equal(t, "Koshari", top[1].Name)
	assert.EqualValues(t, 3, top[1].TotalQuantity)
}

func TestStatisticsRepository_EmptyRange(t *testing.T) {
	ctx := context.Background()
	stats := repository.NewStatisticsRepository(dbtest.New(t))

	past := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	count, revenue, err := stats.DeliveredRevenue(ctx, past, past.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.True(t, revenue.IsZero())

	top, err := stats.TopFoodItems(ctx, past, past.Add(time.Hour), 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}
