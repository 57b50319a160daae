package handler

import (
	"net/http"

	"aklny/internal/middleware"
	"aklny/internal/model"
	"aklny/internal/service"
	"aklny/pkg/pagination"
	"aklny/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
	authenticate gin.HandlerFunc
}

func NewOrderHandler(orderService service.OrderService, authenticate gin.HandlerFunc) *OrderHandler {
	return &OrderHandler{orderService: orderService, authenticate: authenticate}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders", h.authenticate)
	{
		orders.POST("", middleware.RequireRole(model.RoleCustomer), h.PlaceOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id/assign-driver", middleware.RequireRole(model.RoleSeller, model.RoleAdmin), h.AssignDriver)
	}
}

// PlaceOrder creates an order from the customer's basket
// @Summary      Place order
// @Description  Prices every line from the current menu. All items must come from one seller.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Order items"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	customerID, err := middleware.UserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), customerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders lists the orders the caller takes part in
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=pagination.Page}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, err := middleware.UserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	p := pagination.Parse(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), userID, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(orders, total)))
}

// GetOrder returns one order to its participants
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	claims, _ := middleware.Claims(c)
	id, err := uuidParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), claims, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// AssignDriver hands the order to a delivery driver
// @Summary      Assign driver
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Order ID"
// @Param        payload  body      service.AssignDriverRequest  true  "Driver"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/orders/{id}/assign-driver [put]
func (h *OrderHandler) AssignDriver(c *gin.Context) {
	claims, _ := middleware.Claims(c)
	id, err := uuidParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req service.AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orderService.AssignDriver(c.Request.Context(), claims, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
