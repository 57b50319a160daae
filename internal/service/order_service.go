package service

import (
	"context"
	"fmt"
	"time"

	"aklny/internal/apperror"
	"aklny/internal/auth"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxOrderItemQuantity = 100

type OrderItemRequest struct {
	FoodItemID string `json:"food_item_id" binding:"required,uuid"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Note  string             `json:"note"`
}

type AssignDriverRequest struct {
	DriverID string `json:"driver_id" binding:"required,uuid"`
}

type OrderItemResponse struct {
	FoodItemID string `json:"food_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	CustomerID  string              `json:"customer_id"`
	SellerID    string              `json:"seller_id"`
	DriverID    string              `json:"driver_id,omitempty"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Note        string              `json:"note"`
	Items       []OrderItemResponse `json:"items"`
	DeliveredAt string              `json:"delivered_at,omitempty"`
	CreatedAt   string              `json:"created_at"`
}

func mapOrderResponse(o *model.Order) OrderResponse {
	res := OrderResponse{
		ID:          o.ID.String(),
		CustomerID:  o.CustomerID.String(),
		SellerID:    o.SellerID.String(),
		Status:      o.Status,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Note:        o.Note,
		Items:       make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
	}
	if o.DriverID != nil {
		res.DriverID = o.DriverID.String()
	}
	if o.DeliveredAt != nil {
		res.DeliveredAt = o.DeliveredAt.Format(time.RFC3339)
	}
	for _, it := range o.Items {
		res.Items = append(res.Items, OrderItemResponse{
			FoodItemID: it.FoodItemID.String(),
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
		})
	}
	return res
}

type OrderService interface {
	PlaceOrder(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (OrderResponse, error)
	GetOrder(ctx context.Context, caller *auth.Claims, id uuid.UUID) (OrderResponse, error)
	ListOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]OrderResponse, int64, error)
	AssignDriver(ctx context.Context, caller *auth.Claims, orderID uuid.UUID, req AssignDriverRequest) (OrderResponse, error)
}

type orderService struct {
	orders    repository.OrderRepository
	foods     repository.FoodRepository
	users     repository.UserRepository
	txManager repository.TransactionManager
	logger    *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	foods repository.FoodRepository,
	users repository.UserRepository,
	txManager repository.TransactionManager,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orders:    orders,
		foods:     foods,
		users:     users,
		txManager: txManager,
		logger:    logger.Named("order_service"),
	}
}

// PlaceOrder prices every line from the current food item and stores the order
// with its items in one transaction. All items must come from one seller.
func (s *orderService) PlaceOrder(ctx context.Context, customerID uuid.UUID, req CreateOrderRequest) (OrderResponse, error) {
	if len(req.Items) == 0 {
		return OrderResponse{}, apperror.Validation("an order needs at least one item")
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	quantities := make(map[uuid.UUID]int, len(req.Items))
	for _, it := range req.Items {
		id, err := uuid.Parse(it.FoodItemID)
		if err != nil {
			return OrderResponse{}, apperror.Validation(fmt.Sprintf("invalid food_item_id %q", it.FoodItemID))
		}
		if it.Quantity <= 0 || it.Quantity > maxOrderItemQuantity {
			return OrderResponse{}, apperror.Validation(fmt.Sprintf("quantity must be between 1 and %d", maxOrderItemQuantity))
		}
		if _, seen := quantities[id]; !seen {
			ids = append(ids, id)
		}
		quantities[id] += it.Quantity
	}

	foods, err := s.foods.FindManyByIDs(ctx, ids)
	if err != nil {
		return OrderResponse{}, apperror.Internal(err)
	}
	byID := make(map[uuid.UUID]model.FoodItem, len(foods))
	for _, f := range foods {
		byID[f.ID] = f
	}

	order := model.Order{
		CustomerID:  customerID,
		Status:      model.OrderStatusPending,
		TotalAmount: decimal.Zero,
		Note:        req.Note,
	}
	for _, id := range ids {
		food, ok := byID[id]
		if !ok || !food.IsAvailable {
			return OrderResponse{}, apperror.Validation(fmt.Sprintf("food item %s is not available", id))
		}
		if order.SellerID == uuid.Nil {
			order.SellerID = food.SellerID
		} else if order.SellerID != food.SellerID {
			return OrderResponse{}, apperror.Validation("all items of an order must come from the same seller")
		}

		qty := quantities[id]
		order.TotalAmount = order.TotalAmount.Add(food.Price.Mul(decimal.NewFromInt(int64(qty))))
		order.Items = append(order.Items, model.OrderItem{
			FoodItemID: id,
			Name:       food.Name,
			Quantity:   qty,
			UnitPrice:  food.Price,
		})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			if err := s.orders.CreateItem(txCtx, &order.Items[i]); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return OrderResponse{}, apperror.Internal(err)
	}

	s.logger.Info("order placed", zap.String("order_id", order.ID.String()), zap.String("total", order.TotalAmount.StringFixed(2)))
	return mapOrderResponse(&order), nil
}

func (s *orderService) GetOrder(ctx context.Context, caller *auth.Claims, id uuid.UUID) (OrderResponse, error) {
	order, err := s.orders.FindByIDWithItems(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return OrderResponse{}, apperror.NotFound("order not found")
		}
		return OrderResponse{}, apperror.Internal(err)
	}
	if !canViewOrder(caller, order) {
		return OrderResponse{}, apperror.Forbidden("you are not a participant of this order")
	}
	return mapOrderResponse(order), nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, page, limit int) ([]OrderResponse, int64, error) {
	orders, total, err := s.orders.ListForUser(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, mapOrderResponse(&orders[i]))
	}
	return res, total, nil
}

// AssignDriver lets the order's seller or an admin hand the order to a driver.
func (s *orderService) AssignDriver(ctx context.Context, caller *auth.Claims, orderID uuid.UUID, req AssignDriverRequest) (OrderResponse, error) {
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		return OrderResponse{}, apperror.Validation("invalid driver_id")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return OrderResponse{}, apperror.NotFound("order not found")
		}
		return OrderResponse{}, apperror.Internal(err)
	}
	if caller.Role != model.RoleAdmin && caller.UserID != order.SellerID.String() {
		return OrderResponse{}, apperror.Forbidden("only the seller of this order can assign a driver")
	}
	if order.Status == model.OrderStatusDelivered || order.Status == model.OrderStatusCancelled {
		return OrderResponse{}, apperror.Validation("the order is already closed")
	}

	driver, err := s.users.GetByID(ctx, driverID)
	if err != nil {
		if repository.IsNotFound(err) {
			return OrderResponse{}, apperror.NotFound("driver not found")
		}
		return OrderResponse{}, apperror.Internal(err)
	}
	if driver.Role != model.RoleDeliveryDriver {
		return OrderResponse{}, apperror.Validation("the selected user is not a delivery driver")
	}

	if err := s.orders.AssignDriver(ctx, orderID, driverID); err != nil {
		return OrderResponse{}, apperror.Internal(err)
	}
	if order.Status == model.OrderStatusPending {
		if err := s.orders.UpdateStatus(ctx, orderID, model.OrderStatusPreparing, time.Now().UTC()); err != nil {
			return OrderResponse{}, apperror.Internal(err)
		}
	}

	s.logger.Info("driver assigned", zap.String("order_id", orderID.String()), zap.String("driver_id", driverID.String()))
	return s.GetOrder(ctx, caller, orderID)
}

// canViewOrder admits admins and the order's customer, seller and driver.
func canViewOrder(caller *auth.Claims, order *model.Order) bool {
	if caller == nil {
		return false
	}
	if caller.Role == model.RoleAdmin {
		return true
	}
	id, err := uuid.Parse(caller.UserID)
	if err != nil {
		return false
	}
	return order.IsParticipant(id)
}
