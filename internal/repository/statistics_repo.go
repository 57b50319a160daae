package repository

import (
	"context"
	"fmt"
	"time"

	"aklny/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatisticsRepository runs the aggregate queries behind the admin dashboard.
// Order ranges are bounded on created_at, inclusive on both ends.
type StatisticsRepository interface {
	CountOrdersByStatus(ctx context.Context, from, to time.Time) (map[string]int64, error)
	DeliveredRevenue(ctx context.Context, from, to time.Time) (count int64, revenue decimal.Decimal, err error)
	CountUsersByRole(ctx context.Context) (map[string]int64, error)
	TopFoodItems(ctx context.Context, from, to time.Time, limit int) ([]model.FoodRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

type groupCount struct {
	Bucket string
	Count  int64
}

func toMap(rows []groupCount) map[string]int64 {
	m := make(map[string]int64, len(rows))
	for _, r := range rows {
		m[r.Bucket] = r.Count
	}
	return m
}

func (r *statisticsRepository) CountOrdersByStatus(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	var rows []groupCount
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Select("status AS bucket, COUNT(*) AS count").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	return toMap(rows), nil
}

func (r *statisticsRepository) DeliveredRevenue(ctx context.Context, from, to time.Time) (int64, decimal.Decimal, error) {
	var result struct {
		Count   int64
		Revenue decimal.NullDecimal
	}
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Select("COUNT(*) AS count, SUM(total_amount) AS revenue").
		Where("status = ? AND created_at >= ? AND created_at <= ?", model.OrderStatusDelivered, from, to).
		Scan(&result).Error; err != nil {
		return 0, decimal.Zero, fmt.Errorf("sum delivered revenue: %w", err)
	}
	if !result.Revenue.Valid {
		return result.Count, decimal.Zero, nil
	}
	return result.Count, result.Revenue.Decimal, nil
}

func (r *statisticsRepository) CountUsersByRole(ctx context.Context) (map[string]int64, error) {
	var rows []groupCount
	if err := GetDB(ctx, r.db).Model(&model.User{}).
		Select("role AS bucket, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	return toMap(rows), nil
}

// TopFoodItems ranks items by quantity across orders that were not cancelled.
func (r *statisticsRepository) TopFoodItems(ctx context.Context, from, to time.Time, limit int) ([]model.FoodRanking, error) {
	var rows []struct {
		FoodItemID    string
		Name          string
		TotalQuantity int64
		TotalValue    decimal.NullDecimal
	}
	if err := GetDB(ctx, r.db).Table("order_items").
		Select("order_items.food_item_id AS food_item_id, order_items.name AS name, SUM(order_items.quantity) AS total_quantity, SUM(order_items.quantity * order_items.unit_price) AS total_value").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ? AND orders.created_at >= ? AND orders.created_at <= ?", model.OrderStatusCancelled, from, to).
		Group("order_items.food_item_id, order_items.name").
		Order("total_quantity DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query top food items: %w", err)
	}

	rankings := make([]model.FoodRanking, 0, len(rows))
	for _, row := range rows {
		rankings = append(rankings, model.FoodRanking{
			FoodItemID:    row.FoodItemID,
			Name:          row.Name,
			TotalQuantity: row.TotalQuantity,
			TotalValue:    row.TotalValue.Decimal,
		})
	}
	return rankings, nil
}
