package models

import (
	"time"

	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
)

// SubmitVacationRequest is the HTTP payload for creating a vacation request.
// Structural checks live in the tags; date ordering and the
// replacement-is-not-the-requester rule are enforced by the engine.
type SubmitVacationRequest struct {
	StartDate         time.Time `json:"startDate" validate:"required"`
	EndDate           time.Time `json:"endDate" validate:"required"`
	Reason            string    `json:"reason" validate:"required"`
	ReplacementUserID int64     `json:"replacementUserId" validate:"required,gt=0"`
}

// NewVacationRequest is the engine-level submission input. The employee
// fields are trusted facts supplied by the caller (the authenticated user
// for the HTTP shell).
type NewVacationRequest struct {
	EmployeeID          int64
	EmployeeName        string
	EmployeeRole        domain.Role
	StartDate           time.Time
	EndDate             time.Time
	Reason              string
	ReplacementUserID   int64
	ReplacementUserName string
}

// DecisionRequest is the HTTP payload for approve/deny actions.
type DecisionRequest struct {
	Comment string `json:"comment"`
}

// RequestFilter restricts List and Subscribe results. Zero values mean
// "no restriction".
type RequestFilter struct {
	EmployeeID int64         `json:"employeeId"`
	Status     domain.Status `json:"status"`
	Limit      int           `json:"limit"`
}

// Matches reports whether a request passes the filter. Used by the watch
// hub; the repositories apply the same restrictions in SQL.
func (f RequestFilter) Matches(req *domain.VacationRequest) bool {
	if f.EmployeeID != 0 && req.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Status != "" && req.Status != f.Status {
		return false
	}
	return true
}
