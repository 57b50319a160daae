package handler

import (
	"net/http"

	"aklny/internal/middleware"
	"aklny/internal/model"
	"aklny/internal/repository"
	"aklny/internal/service"
	"aklny/pkg/pagination"
	"aklny/pkg/response"

	"github.com/gin-gonic/gin"
)

type FoodHandler struct {
	foodService  service.FoodService
	authenticate gin.HandlerFunc
}

func NewFoodHandler(foodService service.FoodService, authenticate gin.HandlerFunc) *FoodHandler {
	return &FoodHandler{foodService: foodService, authenticate: authenticate}
}

func (h *FoodHandler) RegisterRoutes(router *gin.RouterGroup) {
	foods := router.Group("/api/food-items")
	{
		foods.GET("", h.ListFoodItems)

		seller := foods.Group("", h.authenticate, middleware.RequireRole(model.RoleSeller))
		seller.GET("/mine", h.ListMyFoodItems)
		seller.POST("", h.CreateFoodItem)
		seller.PUT("/:id", h.UpdateFoodItem)
		seller.DELETE("/:id", h.DeleteFoodItem)

		foods.GET("/:id", h.GetFoodItem)
	}
}

// ListFoodItems lists available dishes
// @Summary      List food items
// @Tags         food-items
// @Produce      json
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Param        search    query     string  false  "Search by name"
// @Param        category  query     string  false  "Filter by category"
// @Param        cuisine   query     string  false  "Filter by cuisine"
// @Success      200       {object}  response.Response{data=pagination.Page}
// @Router       /api/food-items [get]
func (h *FoodHandler) ListFoodItems(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.FoodFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Cuisine:  c.Query("cuisine"),
	}

	items, total, err := h.foodService.ListAvailable(c.Request.Context(), p.Page, p.Limit, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(items, total)))
}

// GetFoodItem returns one dish
// @Summary      Get food item
// @Tags         food-items
// @Produce      json
// @Param        id   path      string  true  "Food item ID"
// @Success      200  {object}  response.Response{data=service.FoodItemResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/food-items/{id} [get]
func (h *FoodHandler) GetFoodItem(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := h.foodService.GetFoodItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// ListMyFoodItems lists the seller's own dishes, including unavailable ones
// @Summary      List my food items
// @Tags         food-items
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=pagination.Page}
// @Failure      403    {object}  response.Response
// @Router       /api/food-items/mine [get]
func (h *FoodHandler) ListMyFoodItems(c *gin.Context) {
	sellerID, err := middleware.UserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	p := pagination.Parse(c)

	items, total, err := h.foodService.ListMine(c.Request.Context(), sellerID, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(items, total)))
}

// CreateFoodItem adds a dish to the seller's menu
// @Summary      Create food item
// @Tags         food-items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateFoodItemRequest  true  "Food item"
// @Success      201      {object}  response.Response{data=service.FoodItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/food-items [post]
func (h *FoodHandler) CreateFoodItem(c *gin.Context) {
	sellerID, err := middleware.UserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req service.CreateFoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.foodService.CreateFoodItem(c.Request.Context(), sellerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// UpdateFoodItem changes a dish owned by the seller
// @Summary      Update food item
// @Tags         food-items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Food item ID"
// @Param        payload  body      service.UpdateFoodItemRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.FoodItemResponse}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/food-items/{id} [put]
func (h *FoodHandler) UpdateFoodItem(c *gin.Context) {
	sellerID, err := middleware.UserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req service.UpdateFoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.foodService.UpdateFoodItem(c.Request.Context(), sellerID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteFoodItem removes a dish owned by the seller
// @Summary      Delete food item
// @Tags         food-items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Food item ID"
// @Success      200  {object}  response.Response{data=service.MessageResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/food-items/{id} [delete]
func (h *FoodHandler) DeleteFoodItem(c *gin.Context) {
	sellerID, err := middleware.UserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.foodService.DeleteFoodItem(c.Request.Context(), sellerID, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.MessageResponse{Message: "Food item deleted successfully"}))
}
