package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/application"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/policy"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/response"
)

// AdminHandler handles admin moderation requests.
type AdminHandler struct {
	promotions *application.PromotionService
	merchants  *application.MerchantService
	users      *application.UserService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	promotions *application.PromotionService,
	merchants *application.MerchantService,
	users *application.UserService,
) *AdminHandler {
	return &AdminHandler{promotions: promotions, merchants: merchants, users: users}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, g *Guard) {
	admin := r.Group("/admin")
	admin.Use(g.Authenticate(), g.Authorize(policy.RequireAdmin, ""))
	{
		admin.GET("/promotions", h.ListPromotions)
		admin.PUT("/promotions/:id/lifecycle", h.ChangeLifecycle)
		admin.GET("/merchants", h.ListMerchants)
		admin.PUT("/merchants/:id/status", h.ChangeMerchantStatus)
		admin.DELETE("/merchants/:id", h.DeleteMerchant)
		admin.GET("/users", h.ListUsers)
		admin.PUT("/users/:id/role", h.ChangeRole)
	}
}

// ListPromotions handles GET /api/v1/admin/promotions?state=pending_approval.
func (h *AdminHandler) ListPromotions(c *gin.Context) {
	page, limit := pageParams(c)
	state := c.DefaultQuery("state", "pending_approval")

	dtos, total, err := h.promotions.ListByLifecycle(c.Request.Context(), state, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dtos, total, page, limit)
}

// ChangeLifecycle handles PUT /api/v1/admin/promotions/:id/lifecycle.
func (h *AdminHandler) ChangeLifecycle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req application.ChangeLifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.promotions.ChangeLifecycle(c.Request.Context(), GetIdentity(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// ListMerchants handles GET /api/v1/admin/merchants.
func (h *AdminHandler) ListMerchants(c *gin.Context) {
	page, limit := pageParams(c)
	dtos, total, err := h.merchants.List(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dtos, total, page, limit)
}

// ChangeMerchantStatus handles PUT /api/v1/admin/merchants/:id/status.
func (h *AdminHandler) ChangeMerchantStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req application.ChangeMerchantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.merchants.ChangeStatus(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// DeleteMerchant handles DELETE /api/v1/admin/merchants/:id.
func (h *AdminHandler) DeleteMerchant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.merchants.Delete(c.Request.Context(), GetIdentity(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)
	dtos, total, err := h.users.List(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dtos, total, page, limit)
}

// ChangeRole handles PUT /api/v1/admin/users/:id/role.
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req application.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.users.ChangeRole(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
