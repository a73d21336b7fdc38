package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/auth"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/policy"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/response"
)

const identityKey = "identity"

// Guard turns the authorizer into gin middleware.
type Guard struct {
	authz *policy.Authorizer
}

// NewGuard creates a new Guard.
func NewGuard(authz *policy.Authorizer) *Guard {
	return &Guard{authz: authz}
}

// Authenticate requires a valid access token.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := g.authz.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// OptionalAuthenticate attaches the caller's identity when a valid token is
// present and the anonymous identity otherwise.
func (g *Guard) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identityKey, g.authz.AuthenticateOptional(c.GetHeader("Authorization")))
		c.Next()
	}
}

// Authorize evaluates the named policy against the resource id in path
// parameter param. An empty param evaluates without a resource.
func (g *Guard) Authorize(name policy.Name, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceID := uuid.Nil
		if param != "" {
			id, ok := pathID(c, param)
			if !ok {
				return
			}
			resourceID = id
		}
		d := g.authz.Authorize(c.Request.Context(), name, GetIdentity(c), resourceID)
		if !d.Allowed {
			response.Error(c, d.Err())
			return
		}
		c.Next()
	}
}

// GetIdentity returns the identity attached by Authenticate or OptionalAuthenticate.
func GetIdentity(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(auth.Identity); ok {
			return identity
		}
	}
	return auth.Anonymous
}

// pathID parses a UUID path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return page, limit
}
