package handler

import (
	"net/http"
	"time"

	"aklny/internal/apperror"
	"aklny/internal/middleware"
	"aklny/internal/model"
	"aklny/internal/service"
	"aklny/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	authenticate      gin.HandlerFunc
	now               func() time.Time
}

func NewStatisticsHandler(statisticsService service.StatisticsService, authenticate gin.HandlerFunc) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
		authenticate:      authenticate,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/api/statistics", h.authenticate, middleware.RequireRole(model.RoleAdmin))
	{
		statsGroup.GET("", h.GetStatistics)
	}
}

// @Summary      Get dashboard statistics
// @Description  Order counts by status, delivered revenue, users by role and the best selling food items. The range defaults to the current month.
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  false  "Range start (RFC3339)"
// @Param        to    query     string  false  "Range end (RFC3339)"
// @Success      200   {object}  response.Response{data=model.DashboardStatistics}
// @Failure      400   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	now := h.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := now

	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			respondError(c, apperror.Validation("invalid from, expected RFC3339"))
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			respondError(c, apperror.Validation("invalid to, expected RFC3339"))
			return
		}
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), from.UTC(), to.UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
