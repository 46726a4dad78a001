package domain

import "fmt"

// Role is the closed set of user roles known to the system. Role strings
// are stored verbatim on user records and request snapshots.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleHR       Role = "hr"
	RolePM       Role = "pm"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// ApproverRoles are the roles that own a stage of the approval chain,
// in chain order.
var ApproverRoles = []Role{RoleHR, RolePM, RoleManager}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleEmployee, RoleHR, RolePM, RoleManager, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// IsApprover reports whether the role owns a slot in the approval chain.
func (r Role) IsApprover() bool {
	for _, a := range ApproverRoles {
		if r == a {
			return true
		}
	}
	return false
}
