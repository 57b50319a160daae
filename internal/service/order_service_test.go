package service_test

import (
	"context"
	"testing"

	"aklny/internal/apperror"
	"aklny/internal/model"
	"aklny/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func mustParse(t *testing.T, id string) uuid.UUID {
	t.Helper()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	return parsed
}

// orderFixture seeds a customer, a seller with two dishes and a driver.
type orderFixture struct {
	h        *harness
	orders   service.OrderService
	customer *model.User
	seller   *model.User
	driver   *model.User
	dishes   []model.FoodItem
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	h := newHarness(t)
	f := &orderFixture{
		h:        h,
		orders:   service.NewOrderService(h.orders, h.foods, h.users, h.txManager, zap.NewNop()),
		customer: h.seedUser(t, "customer@x.com", model.RoleCustomer),
		seller:   h.seedUser(t, "seller@x.com", model.RoleSeller),
		driver:   h.seedUser(t, "driver@x.com", model.RoleDeliveryDriver),
	}
	for _, d := range []struct{ name, price string }{{"Falafel", "12.50"}, {"Molokhia", "30"}} {
		item := model.FoodItem{SellerID: f.seller.ID, Name: d.name, Price: decimal.RequireFromString(d.price), IsAvailable: true}
		require.NoError(t, h.foods.Create(context.Background(), &item))
		f.dishes = append(f.dishes, item)
	}
	return f
}

func (f *orderFixture) place(t *testing.T) service.OrderResponse {
	t.Helper()
	order, err := f.orders.PlaceOrder(context.Background(), f.customer.ID, service.CreateOrderRequest{
		Items: []service.OrderItemRequest{
			{FoodItemID: f.dishes[0].ID.String(), Quantity: 2},
			{FoodItemID: f.dishes[1].ID.String(), Quantity: 1},
			{FoodItemID: f.dishes[0].ID.String(), Quantity: 1},
		},
	})
	require.NoError(t, err)
	return order
}

func TestPlaceOrder_TotalsAndItems(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)

	assert.Equal(t, "67.50", order.TotalAmount)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, f.seller.ID.String(), order.SellerID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 3, order.Items[0].Quantity)
}

func TestPlaceOrder_Rejections(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	otherSeller := f.h.seedUser(t, "other-seller@x.com", model.RoleSeller)
	foreign := model.FoodItem{SellerID: otherSeller.ID, Name: "Pizza", Price: decimal.NewFromInt(80), IsAvailable: true}
	require.NoError(t, f.h.foods.Create(ctx, &foreign))

	tests := []struct {
		name  string
		items []service.OrderItemRequest
	}{
		{"empty", nil},
		{"unknown item", []service.OrderItemRequest{{FoodItemID: uuid.NewString(), Quantity: 1}}},
		{"two sellers", []service.OrderItemRequest{{FoodItemID: f.dishes[0].ID.String(), Quantity: 1}, {FoodItemID: foreign.ID.String(), Quantity: 1}}},
		{"zero quantity", []service.OrderItemRequest{{FoodItemID: f.dishes[0].ID.String(), Quantity: 0}}},
		{"bad id", []service.OrderItemRequest{{FoodItemID: "nope", Quantity: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.PlaceOrder(ctx, f.customer.ID, service.CreateOrderRequest{Items: tt.items})
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.From(err).Kind)
		})
	}
}

func TestGetOrder_ParticipantsOnly(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)
	id := mustParse(t, order.ID)
	stranger := f.h.seedUser(t, "stranger@x.com", model.RoleCustomer)
	admin := f.h.seedUser(t, "admin@x.com", model.RoleAdmin)

	for _, u := range []*model.User{f.customer, f.seller, admin} {
		_, err := f.orders.GetOrder(context.Background(), claimsFor(u), id)
		assert.NoError(t, err, u.Email)
	}
	_, err := f.orders.GetOrder(context.Background(), claimsFor(stranger), id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = f.orders.GetOrder(context.Background(), claimsFor(f.customer), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAssignDriver(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.place(t)
	id := mustParse(t, order.ID)

	_, err := f.orders.AssignDriver(ctx, claimsFor(f.customer), id, service.AssignDriverRequest{DriverID: f.driver.ID.String()})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.orders.AssignDriver(ctx, claimsFor(f.seller), id, service.AssignDriverRequest{DriverID: f.customer.ID.String()})
	assert.Equal(t, apperror.KindValidation, apperror.From(err).Kind)

	assigned, err := f.orders.AssignDriver(ctx, claimsFor(f.seller), id, service.AssignDriverRequest{DriverID: f.driver.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, f.driver.ID.String(), assigned.DriverID)
	assert.Equal(t, model.OrderStatusPreparing, assigned.Status)

	// the driver now sees the order
	_, err = f.orders.GetOrder(ctx, claimsFor(f.driver), id)
	require.NoError(t, err)
	list, total, err := f.orders.ListOrders(ctx, f.driver.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, order.ID, list[0].ID)
}
