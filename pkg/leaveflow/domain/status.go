package domain

import "fmt"

// Status is the approval state of a vacation request. The zero stage is
// pending; approved and denied are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusHRReview Status = "hr_review"
	StatusPMReview Status = "pm_review"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusHRReview, StatusPMReview, StatusApproved, StatusDenied:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status: %q", s)
}

// Terminal reports whether the status accepts no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// Action is a decision taken by an approver on a request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionDeny    Action = "deny"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionDeny:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown action: %q", s)
}
