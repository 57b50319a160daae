package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStatistics summarizes platform activity over a time range.
type DashboardStatistics struct {
	From            time.Time        `json:"from"`
	To              time.Time        `json:"to"`
	DeliveredOrders int64            `json:"delivered_orders"`
	Revenue         decimal.Decimal  `json:"revenue" swaggertype:"string"`
	OrdersByStatus  map[string]int64 `json:"orders_by_status"`
	UsersByRole     map[string]int64 `json:"users_by_role"`
	TopFoodItems    []FoodRanking    `json:"top_food_items"`
}

// FoodRanking is a food item ranked by the quantity ordered.
type FoodRanking struct {
	FoodItemID    string          `json:"food_item_id"`
	Name          string          `json:"name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value" swaggertype:"string"`
}
