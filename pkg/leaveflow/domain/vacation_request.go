package domain

import (
	"encoding/json"
	"time"
)

// ApprovalSlot is the decision record for one approver role. A slot is
// written at most once; Date is nil until the role has acted.
type ApprovalSlot struct {
	Approved bool       `json:"approved"`
	Date     *time.Time `json:"date"`
	Comment  string     `json:"comment"`
}

// VacationRequest is the persisted record of a leave request.
//
// EmployeeName, EmployeeRole and ReplacementUserName are snapshots taken at
// submission time so the audit record stays stable against later profile
// edits. Modified doubles as the optimistic-lock token for decision writes.
type VacationRequest struct {
	ID                  int64                  `json:"id"`
	ExternalID          string                 `json:"externalId"`
	EmployeeID          int64                  `json:"employeeId"`
	EmployeeName        string                 `json:"employeeName"`
	EmployeeRole        Role                   `json:"employeeRole"`
	StartDate           time.Time              `json:"startDate"`
	EndDate             time.Time              `json:"endDate"`
	Reason              string                 `json:"reason"`
	ReplacementUserID   int64                  `json:"replacementUserId"`
	ReplacementUserName string                 `json:"replacementUserName"`
	Status              Status                 `json:"status"`
	Approvals           map[Role]*ApprovalSlot `json:"approvals"`
	Created             time.Time              `json:"createdAt"`
	Modified            time.Time              `json:"updatedAt"`
}

// NewApprovals returns the initial slot map with every approver role
// present and undecided.
func NewApprovals() map[Role]*ApprovalSlot {
	m := make(map[Role]*ApprovalSlot, len(ApproverRoles))
	for _, r := range ApproverRoles {
		m[r] = &ApprovalSlot{}
	}
	return m
}

// MarshalApprovals encodes the slot map for the approvals text column.
func MarshalApprovals(m map[Role]*ApprovalSlot) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalApprovals decodes the approvals text column. An empty column
// yields a fresh undecided slot map.
func UnmarshalApprovals(s string) (map[Role]*ApprovalSlot, error) {
	if s == "" || s == "null" {
		return NewApprovals(), nil
	}
	var m map[Role]*ApprovalSlot
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	for _, r := range ApproverRoles {
		if m[r] == nil {
			m[r] = &ApprovalSlot{}
		}
	}
	return m, nil
}
