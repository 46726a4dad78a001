package models

// LoginRequest is the HTTP payload for session login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful login; the session id is also
// set as a cookie for browser flows.
type LoginResponse struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
}

// CreateUserRequest is the admin payload for creating a user.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName" validate:"required"`
	Role     string `json:"role" validate:"required"`
}
