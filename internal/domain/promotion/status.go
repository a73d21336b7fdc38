package promotion

import (
	"time"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/domain"
)

// LifecycleState is the admin-controlled stage of a promotion. It never
// depends on the calendar.
type LifecycleState string

const (
	StateDraft           LifecycleState = "draft"
	StatePendingApproval LifecycleState = "pending_approval"
	StateApproved        LifecycleState = "approved"
	StateRejected        LifecycleState = "rejected"
	StateAdminPaused     LifecycleState = "admin_paused"
)

// LifecycleStates lists every valid lifecycle state.
var LifecycleStates = []LifecycleState{
	StateDraft, StatePendingApproval, StateApproved, StateRejected, StateAdminPaused,
}

// ParseLifecycleState validates s.
func ParseLifecycleState(s string) (LifecycleState, error) {
	for _, st := range LifecycleStates {
		if string(st) == s {
			return st, nil
		}
	}
	return "", domain.NewValidationError("unknown lifecycle state %q", s)
}

// Status is the externally visible status of a promotion. For approved
// promotions it is one of scheduled, active or expired; any other lifecycle
// state passes through unchanged.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
)

// DeriveStatus computes the visible status from the lifecycle state, the
// promotion window and now. Both window bounds are inclusive.
func DeriveStatus(state LifecycleState, start, end, now time.Time) Status {
	switch {
	case state != StateApproved:
		return Status(state)
	case end.Before(now):
		return StatusExpired
	case start.After(now):
		return StatusScheduled
	default:
		return StatusActive
	}
}
