package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/application"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/policy"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/response"
)

// MerchantHandler handles HTTP requests for merchants.
type MerchantHandler struct {
	merchants  *application.MerchantService
	promotions *application.PromotionService
	analytics  *application.AnalyticsService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(
	merchants *application.MerchantService,
	promotions *application.PromotionService,
	analytics *application.AnalyticsService,
) *MerchantHandler {
	return &MerchantHandler{merchants: merchants, promotions: promotions, analytics: analytics}
}

// RegisterRoutes registers all merchant routes.
func (h *MerchantHandler) RegisterRoutes(r *gin.RouterGroup, g *Guard) {
	selfOrAdmin := g.Authorize(policy.RequireMerchantSelfOrAdmin, "id")

	merchants := r.Group("/merchants")
	{
		merchants.POST("", g.Authenticate(), h.Onboard)
		merchants.GET("/:id", g.OptionalAuthenticate(), h.Get)
		merchants.PUT("/:id", g.Authenticate(), selfOrAdmin, h.Update)
		merchants.GET("/:id/promotions", g.Authenticate(), selfOrAdmin, h.ListPromotions)
		merchants.GET("/:id/analytics", g.Authenticate(), selfOrAdmin, h.Analytics)
	}
}

// Onboard handles POST /api/v1/merchants.
func (h *MerchantHandler) Onboard(c *gin.Context) {
	var req application.OnboardMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.merchants.Onboard(c.Request.Context(), GetIdentity(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Get handles GET /api/v1/merchants/:id.
func (h *MerchantHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dto, err := h.merchants.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// Update handles PUT /api/v1/merchants/:id.
func (h *MerchantHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req application.UpdateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.merchants.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// ListPromotions handles GET /api/v1/merchants/:id/promotions.
func (h *MerchantHandler) ListPromotions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dtos, err := h.promotions.ListByMerchant(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dtos)
}

// Analytics handles GET /api/v1/merchants/:id/analytics?since=RFC3339.
func (h *MerchantHandler) Analytics(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "invalid since format (use RFC3339)")
			return
		}
		since = t
	}

	dto, err := h.analytics.MerchantSummary(c.Request.Context(), id, since)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
