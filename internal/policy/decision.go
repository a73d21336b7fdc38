package policy

import (
	"errors"
	"net/http"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// Reason classifies a deny decision.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnauthenticated
	ReasonForbidden
	ReasonNotFound
	ReasonServerError
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUnauthenticated:
		return "unauthenticated"
	case ReasonForbidden:
		return "forbidden"
	case ReasonNotFound:
		return "not_found"
	default:
		return "server_error"
	}
}

// Decision is the outcome of evaluating a policy.
type Decision struct {
	Allowed bool
	Reason  Reason
	Message string
}

// Allow returns an allowing decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denying decision.
func Deny(reason Reason, message string) Decision {
	return Decision{Reason: reason, Message: message}
}

// Outcome is the metric label for d.
func (d Decision) Outcome() string {
	if d.Allowed {
		return "allow"
	}
	return d.Reason.String()
}

// HTTPStatus maps the decision to a response status code.
func (d Decision) HTTPStatus() int {
	if d.Allowed {
		return http.StatusOK
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return http.StatusUnauthorized
	case ReasonForbidden:
		return http.StatusForbidden
	case ReasonNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Err converts a deny decision into a domain error. Allowing decisions return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonUnauthenticated:
		return domain.NewUnauthenticatedError(d.Message)
	case ReasonForbidden:
		return domain.NewForbiddenError(d.Message)
	case ReasonNotFound:
		return &domain.DomainError{Err: domain.ErrNotFound, Message: d.Message}
	default:
		return errors.New(d.Message)
	}
}
