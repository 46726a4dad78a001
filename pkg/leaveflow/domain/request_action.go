package domain

import "time"

// Audit action types recorded against a vacation request.
const (
	ActionTypeSubmitted = "SUBMITTED"
	ActionTypeApproved  = "APPROVED"
	ActionTypeDenied    = "DENIED"
)

// RequestAction is one append-only audit entry for a vacation request.
type RequestAction struct {
	ID        int64     `json:"id"`
	RequestID int64     `json:"requestId"`
	ActorID   int64     `json:"actorId"`
	ActorName string    `json:"actorName"`
	ActorRole Role      `json:"actorRole"`
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	DateTime  time.Time `json:"dateTime"`
}
