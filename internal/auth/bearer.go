package auth

import (
	"strings"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// ExtractBearer returns the token from an "Authorization: Bearer <token>" header.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", domain.NewUnauthenticatedError("missing authorization header")
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", domain.NewUnauthenticatedError("malformed authorization header")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.NewUnauthenticatedError("malformed authorization header")
	}
	return token, nil
}
