package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/application"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/policy"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/response"
)

// PromotionHandler handles HTTP requests for promotions, their clicks and favorites.
type PromotionHandler struct {
	promotions *application.PromotionService
	favorites  *application.FavoriteService
	analytics  *application.AnalyticsService
}

// NewPromotionHandler creates a new PromotionHandler.
func NewPromotionHandler(
	promotions *application.PromotionService,
	favorites *application.FavoriteService,
	analytics *application.AnalyticsService,
) *PromotionHandler {
	return &PromotionHandler{promotions: promotions, favorites: favorites, analytics: analytics}
}

// RegisterRoutes registers all promotion routes.
func (h *PromotionHandler) RegisterRoutes(r *gin.RouterGroup, g *Guard) {
	promos := r.Group("/promotions")
	{
		promos.GET("", g.OptionalAuthenticate(), h.ListPublic)
		promos.GET("/:id", g.OptionalAuthenticate(), h.Get)
		promos.POST("", g.Authenticate(), h.Create)
		promos.PUT("/:id", g.Authenticate(), g.Authorize(policy.RequirePromotionOwnerOrAdmin, "id"), h.Update)
		promos.DELETE("/:id", g.Authenticate(), g.Authorize(policy.RequirePromotionOwnerOrAdmin, "id"), h.Delete)
		promos.POST("/:id/clicks", g.OptionalAuthenticate(), h.RecordClick)
		promos.POST("/:id/favorite", g.Authenticate(), h.AddFavorite)
		promos.DELETE("/:id/favorite", g.Authenticate(), h.RemoveFavorite)
	}
}

// ListPublic handles GET /api/v1/promotions.
func (h *PromotionHandler) ListPublic(c *gin.Context) {
	page, limit := pageParams(c)
	dtos, total, err := h.promotions.ListPublic(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dtos, total, page, limit)
}

// Get handles GET /api/v1/promotions/:id.
func (h *PromotionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dto, err := h.promotions.Get(c.Request.Context(), GetIdentity(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// Create handles POST /api/v1/promotions.
func (h *PromotionHandler) Create(c *gin.Context) {
	var req application.CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.promotions.Create(c.Request.Context(), GetIdentity(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// Update handles PUT /api/v1/promotions/:id.
func (h *PromotionHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req application.UpdatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.promotions.Update(c.Request.Context(), GetIdentity(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// Delete handles DELETE /api/v1/promotions/:id.
func (h *PromotionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.promotions.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordClick handles POST /api/v1/promotions/:id/clicks.
func (h *PromotionHandler) RecordClick(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req application.RecordClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.analytics.RecordClick(c.Request.Context(), GetIdentity(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto)
}

// AddFavorite handles POST /api/v1/promotions/:id/favorite.
func (h *PromotionHandler) AddFavorite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.favorites.Add(c.Request.Context(), GetIdentity(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveFavorite handles DELETE /api/v1/promotions/:id/favorite.
func (h *PromotionHandler) RemoveFavorite(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), GetIdentity(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
