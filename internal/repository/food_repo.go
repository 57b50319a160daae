package repository

import (
	"context"

	"aklny/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FoodFilter narrows the public food listing.
type FoodFilter struct {
	Search   string
	Category string
	Cuisine  string
}

type FoodRepository interface {
	Create(ctx context.Context, item *model.FoodItem) error
	Update(ctx context.Context, item *model.FoodItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FoodItem, error)
	ListAvailable(ctx context.Context, page, limit int, filter FoodFilter) ([]model.FoodItem, int64, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]model.FoodItem, int64, error)
	FindManyByIDs(ctx context.Context, ids []uuid.UUID) ([]model.FoodItem, error)
}

type foodRepository struct {
	db *gorm.DB
}

func NewFoodRepository(db *gorm.DB) FoodRepository {
	return &foodRepository{db: db}
}

func (r *foodRepository) Create(ctx context.Context, item *model.FoodItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *foodRepository) Update(ctx context.Context, item *model.FoodItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *foodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.FoodItem{}).Error
}

func (r *foodRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FoodItem, error) {
	var item model.FoodItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *foodRepository) ListAvailable(ctx context.Context, page, limit int, filter FoodFilter) ([]model.FoodItem, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.FoodItem{}).Where("is_available = ?", true)
	if filter.Search != "" {
		// LOWER keeps the match case-insensitive on both postgres and sqlite
		db = db.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.Cuisine != "" {
		db = db.Where("cuisine = ?", filter.Cuisine)
	}
	return r.page(db, page, limit)
}

func (r *foodRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]model.FoodItem, int64, error) {
	db := GetDB(ctx, r.db).Model(&model.FoodItem{}).Where("seller_id = ?", sellerID)
	return r.page(db, page, limit)
}

func (r *foodRepository) FindManyByIDs(ctx context.Context, ids []uuid.UUID) ([]model.FoodItem, error) {
	var items []model.FoodItem
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *foodRepository) page(db *gorm.DB, page, limit int) ([]model.FoodItem, int64, error) {
	var items []model.FoodItem
	var total int64

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
