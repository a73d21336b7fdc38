package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/application"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/policy"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/response"
)

// UserHandler handles HTTP requests for user profiles.
type UserHandler struct {
	users     *application.UserService
	favorites *application.FavoriteService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *application.UserService, favorites *application.FavoriteService) *UserHandler {
	return &UserHandler{users: users, favorites: favorites}
}

// RegisterRoutes registers all user routes.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, g *Guard) {
	users := r.Group("/users/:id")
	users.Use(g.Authenticate(), g.Authorize(policy.RequireSelfOrAdmin, "id"))
	{
		users.GET("", h.Get)
		users.PUT("", h.UpdateProfile)
		users.GET("/favorites", h.Favorites)
	}
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dto, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// UpdateProfile handles PUT /api/v1/users/:id.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req application.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.users.UpdateProfile(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// Favorites handles GET /api/v1/users/:id/favorites.
func (h *UserHandler) Favorites(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dtos, err := h.favorites.List(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dtos)
}
