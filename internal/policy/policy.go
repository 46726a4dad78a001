// Package policy is the pure decision core of the approval workflow.
// It maps (current status, actor role, action) to the next status and the
// approval slot to write, or rejects the combination. It performs no I/O.
package policy

import (
	"errors"

	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
)

var (
	// ErrTerminalState rejects any action on an approved or denied request.
	ErrTerminalState = errors.New("request is in a terminal state")
	// ErrNotAuthorized rejects an actor whose role does not own the
	// current stage.
	ErrNotAuthorized = errors.New("role is not authorized to act at this stage")
	// ErrInvalidTransition rejects combinations outside the table
	// entirely (unknown status, unknown action).
	ErrInvalidTransition = errors.New("invalid transition")
)

// stageOwner maps each non-terminal status to the role whose turn it is.
var stageOwner = map[domain.Status]domain.Role{
	domain.StatusPending:  domain.RoleHR,
	domain.StatusHRReview: domain.RolePM,
	domain.StatusPMReview: domain.RoleManager,
}

// forward maps each non-terminal status to the status an approval moves to.
var forward = map[domain.Status]domain.Status{
	domain.StatusPending:  domain.StatusHRReview,
	domain.StatusHRReview: domain.StatusPMReview,
	domain.StatusPMReview: domain.StatusApproved,
}

// Decision is the computed outcome of a legal action.
type Decision struct {
	Next domain.Status
	// Slot is the approver role whose approvals entry records the
	// decision. For an admin override this is the stage owner's role,
	// not "admin".
	Slot domain.Role
}

// Evaluate applies the approval chain HR -> PM -> Manager.
//
// An approve by the stage owner advances one stage; a deny by the stage
// owner moves straight to denied. An admin may act at any non-terminal
// stage as if holding the stage owner's role.
func Evaluate(current domain.Status, actor domain.Role, action domain.Action) (Decision, error) {
	if current.Terminal() {
		return Decision{}, ErrTerminalState
	}
	owner, ok := stageOwner[current]
	if !ok {
		return Decision{}, ErrInvalidTransition
	}
	if actor != owner && actor != domain.RoleAdmin {
		return Decision{}, ErrNotAuthorized
	}
	switch action {
	case domain.ActionApprove:
		return Decision{Next: forward[current], Slot: owner}, nil
	case domain.ActionDeny:
		return Decision{Next: domain.StatusDenied, Slot: owner}, nil
	}
	return Decision{}, ErrInvalidTransition
}

// StageOwner returns the role whose turn it is at the given status, or
// false for terminal states.
func StageOwner(s domain.Status) (domain.Role, bool) {
	r, ok := stageOwner[s]
	return r, ok
}
