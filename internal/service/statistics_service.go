package service

import (
	"context"
	"time"

	"aklny/internal/apperror"
	"aklny/internal/model"
	"aklny/internal/repository"
)

const topFoodItemsLimit = 5

type StatisticsService interface {
	GetStatistics(ctx context.Context, from, to time.Time) (*model.DashboardStatistics, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetStatistics aggregates orders, revenue and users for the admin dashboard.
func (s *statisticsService) GetStatistics(ctx context.Context, from, to time.Time) (*model.DashboardStatistics, error) {
	if to.Before(from) {
		return nil, apperror.Validation("from must not be after to")
	}

	stats := &model.DashboardStatistics{From: from, To: to}

	var err error
	if stats.OrdersByStatus, err = s.repo.CountOrdersByStatus(ctx, from, to); err != nil {
		return nil, apperror.Internal(err)
	}
	if stats.DeliveredOrders, stats.Revenue, err = s.repo.DeliveredRevenue(ctx, from, to); err != nil {
		return nil, apperror.Internal(err)
	}
	if stats.UsersByRole, err = s.repo.CountUsersByRole(ctx); err != nil {
		return nil, apperror.Internal(err)
	}
	if stats.TopFoodItems, err = s.repo.TopFoodItems(ctx, from, to, topFoodItemsLimit); err != nil {
		return nil, apperror.Internal(err)
	}
	return stats, nil
}
