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

type AuditHandler struct {
	auditService service.AuditService
	authenticate gin.HandlerFunc
}

func NewAuditHandler(auditService service.AuditService, authenticate gin.HandlerFunc) *AuditHandler {
	return &AuditHandler{auditService: auditService, authenticate: authenticate}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs", h.authenticate, middleware.RequireRole(model.RoleAdmin))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs lists the audit trail, newest first
// @Summary      Get audit logs
// @Description  Retrieves the security audit trail with the acting user's email
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Param        action   query     string  false  "Filter by action, e.g. LOGIN"
// @Param        user_id  query     string  false  "Filter by acting user"
// @Success      200      {object}  response.Response{data=pagination.Page}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.AuditFilter{Action: c.Query("action"), UserID: c.Query("user_id")}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), p.Page, p.Limit, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(logs, total)))
}
