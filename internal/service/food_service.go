package service

import (
	"context"
	"strings"
	"time"

	"aklny/internal/apperror"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateFoodItemRequest struct {
	Name                   string          `json:"name" binding:"required"`
	Description            string          `json:"description"`
	Price                  decimal.Decimal `json:"price" swaggertype:"string" example:"12.50"`
	Category               string          `json:"category"`
	Cuisine                string          `json:"cuisine"`
	ImageURL               string          `json:"image_url"`
	IsAvailable            *bool           `json:"is_available"`
	PreparationTimeMinutes int             `json:"preparation_time_minutes" binding:"gte=0"`
	Ingredients            string          `json:"ingredients"`
	Allergens              string          `json:"allergens"`
}

// UpdateFoodItemRequest is a partial update; nil fields are left unchanged.
type UpdateFoodItemRequest struct {
	Name                   *string          `json:"name"`
	Description            *string          `json:"description"`
	Price                  *decimal.Decimal `json:"price" swaggertype:"string" example:"12.50"`
	Category               *string          `json:"category"`
	Cuisine                *string          `json:"cuisine"`
	ImageURL               *string          `json:"image_url"`
	IsAvailable            *bool            `json:"is_available"`
	PreparationTimeMinutes *int             `json:"preparation_time_minutes"`
	Ingredients            *string          `json:"ingredients"`
	Allergens              *string          `json:"allergens"`
}

type FoodItemResponse struct {
	ID                     string `json:"id"`
	SellerID               string `json:"seller_id"`
	Name                   string `json:"name"`
	Description            string `json:"description"`
	Price                  string `json:"price"`
	Category               string `json:"category"`
	Cuisine                string `json:"cuisine"`
	ImageURL               string `json:"image_url"`
	IsAvailable            bool   `json:"is_available"`
	PreparationTimeMinutes int    `json:"preparation_time_minutes"`
	Ingredients            string `json:"ingredients"`
	Allergens              string `json:"allergens"`
	CreatedAt              string `json:"created_at"`
	UpdatedAt              string `json:"updated_at"`
}

func mapFoodItemResponse(f *model.FoodItem) FoodItemResponse {
	return FoodItemResponse{
		ID:                     f.ID.String(),
		SellerID:               f.SellerID.String(),
		Name:                   f.Name,
		Description:            f.Description,
		Price:                  f.Price.StringFixed(2),
		Category:               f.Category,
		Cuisine:                f.Cuisine,
		ImageURL:               f.ImageURL,
		IsAvailable:            f.IsAvailable,
		PreparationTimeMinutes: f.PreparationTimeMinutes,
		Ingredients:            f.Ingredients,
		Allergens:              f.Allergens,
		CreatedAt:              f.CreatedAt.Format(time.RFC3339),
		UpdatedAt:              f.UpdatedAt.Format(time.RFC3339),
	}
}

type FoodService interface {
	ListAvailable(ctx context.Context, page, limit int, filter repository.FoodFilter) ([]FoodItemResponse, int64, error)
	GetFoodItem(ctx context.Context, id uuid.UUID) (FoodItemResponse, error)
	ListMine(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]FoodItemResponse, int64, error)
	CreateFoodItem(ctx context.Context, sellerID uuid.UUID, req CreateFoodItemRequest) (FoodItemResponse, error)
	UpdateFoodItem(ctx context.Context, sellerID, id uuid.UUID, req UpdateFoodItemRequest) (FoodItemResponse, error)
	DeleteFoodItem(ctx context.Context, sellerID, id uuid.UUID) error
}

type foodService struct {
	repo      repository.FoodRepository
	txManager repository.TransactionManager
	audit     AuditService
}

func NewFoodService(repo repository.FoodRepository, txManager repository.TransactionManager, audit AuditService) FoodService {
	return &foodService{repo: repo, txManager: txManager, audit: audit}
}

func validPrice(p decimal.Decimal) bool {
	return p.GreaterThan(decimal.Zero)
}

func (s *foodService) ListAvailable(ctx context.Context, page, limit int, filter repository.FoodFilter) ([]FoodItemResponse, int64, error) {
	items, total, err := s.repo.ListAvailable(ctx, page, limit, filter)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapFoodItems(items), total, nil
}

func (s *foodService) GetFoodItem(ctx context.Context, id uuid.UUID) (FoodItemResponse, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return FoodItemResponse{}, err
	}
	return mapFoodItemResponse(item), nil
}

func (s *foodService) ListMine(ctx context.Context, sellerID uuid.UUID, page, limit int) ([]FoodItemResponse, int64, error) {
	items, total, err := s.repo.ListBySeller(ctx, sellerID, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return mapFoodItems(items), total, nil
}

func (s *foodService) CreateFoodItem(ctx context.Context, sellerID uuid.UUID, req CreateFoodItemRequest) (FoodItemResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return FoodItemResponse{}, apperror.Validation("name is required")
	}
	if !validPrice(req.Price) {
		return FoodItemResponse{}, apperror.Validation("price must be greater than zero")
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item := model.FoodItem{
		SellerID:               sellerID,
		Name:                   name,
		Description:            req.Description,
		Price:                  req.Price.Round(2),
		Category:               req.Category,
		Cuisine:                req.Cuisine,
		ImageURL:               req.ImageURL,
		IsAvailable:            available,
		PreparationTimeMinutes: req.PreparationTimeMinutes,
		Ingredients:            req.Ingredients,
		Allergens:              req.Allergens,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &item); err != nil {
			return err
		}
		return s.audit.Log(txCtx, AuditEntry{
			UserID:     userRef(sellerID),
			Action:     model.ActionCreateFoodItem,
			EntityID:   item.ID.String(),
			EntityName: item.Name,
			Details:    map[string]interface{}{"price": item.Price.StringFixed(2), "is_available": item.IsAvailable},
		})
	})
	if err != nil {
		return FoodItemResponse{}, apperror.Internal(err)
	}
	return mapFoodItemResponse(&item), nil
}

func (s *foodService) UpdateFoodItem(ctx context.Context, sellerID, id uuid.UUID, req UpdateFoodItemRequest) (FoodItemResponse, error) {
	item, err := s.findOwned(ctx, sellerID, id)
	if err != nil {
		return FoodItemResponse{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return FoodItemResponse{}, apperror.Validation("name cannot be empty")
		}
		item.Name = name
	}
	if req.Price != nil {
		if !validPrice(*req.Price) {
			return FoodItemResponse{}, apperror.Validation("price must be greater than zero")
		}
		item.Price = req.Price.Round(2)
	}
	if req.PreparationTimeMinutes != nil {
		if *req.PreparationTimeMinutes < 0 {
			return FoodItemResponse{}, apperror.Validation("preparation time cannot be negative")
		}
		item.PreparationTimeMinutes = *req.PreparationTimeMinutes
	}
	setString(&item.Description, req.Description)
	setString(&item.Category, req.Category)
	setString(&item.Cuisine, req.Cuisine)
	setString(&item.ImageURL, req.ImageURL)
	setString(&item.Ingredients, req.Ingredients)
	setString(&item.Allergens, req.Allergens)
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, item); err != nil {
			return err
		}
		return s.audit.Log(txCtx, AuditEntry{
			UserID:     userRef(sellerID),
			Action:     model.ActionUpdateFoodItem,
			EntityID:   item.ID.String(),
			EntityName: item.Name,
			Details:    req,
		})
	})
	if err != nil {
		return FoodItemResponse{}, apperror.Internal(err)
	}
	return mapFoodItemResponse(item), nil
}

func (s *foodService) DeleteFoodItem(ctx context.Context, sellerID, id uuid.UUID) error {
	item, err := s.findOwned(ctx, sellerID, id)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, item.ID); err != nil {
			return err
		}
		return s.audit.Log(txCtx, AuditEntry{
			UserID:     userRef(sellerID),
			Action:     model.ActionDeleteFoodItem,
			EntityID:   item.ID.String(),
			EntityName: item.Name,
			Details:    map[string]interface{}{"deleted": true},
		})
	})
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *foodService) find(ctx context.Context, id uuid.UUID) (*model.FoodItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("food item not found")
		}
		return nil, apperror.Internal(err)
	}
	return item, nil
}

func (s *foodService) findOwned(ctx context.Context, sellerID, id uuid.UUID) (*model.FoodItem, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.SellerID != sellerID {
		return nil, apperror.Forbidden("you can only manage your own food items")
	}
	return item, nil
}

func mapFoodItems(items []model.FoodItem) []FoodItemResponse {
	res := make([]FoodItemResponse, 0, len(items))
	for i := range items {
		res = append(res, mapFoodItemResponse(&items[i]))
	}
	return res
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
