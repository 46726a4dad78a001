package engine

import (
	"database/sql"
	"time"

	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/models"
)

// RequestRepo defines the persistence interface for vacation requests,
// matching repository.RequestRepository.
type RequestRepo interface {
	Save(req *domain.VacationRequest) (int64, error)
	FindByID(id int64) (*domain.VacationRequest, error)
	FindByExternalID(externalID string) (*domain.VacationRequest, error)
	Search(filter models.RequestFilter) (*[]domain.VacationRequest, error)
	// UpdateDecision writes status, the approvals column and the modified
	// timestamp in one statement, conditional on the row still carrying
	// seenModified. It returns false (and no error) when the row was
	// changed by someone else in between.
	UpdateDecision(id int64, status domain.Status, approvals string, seenModified time.Time, newModified time.Time) (bool, error)
	FindModifiedSince(since time.Time, limit int) (*[]domain.VacationRequest, error)
}

// ActionRepo defines the persistence interface for the audit trail.
type ActionRepo interface {
	Save(a *domain.RequestAction) (int64, error)
	FindAllByRequestID(requestID int64) (*[]domain.RequestAction, error)
}

// UserRepo defines the persistence interface for users, matching
// repository.UserRepository.
type UserRepo interface {
	FindBySessionID(sessionID string, now time.Time) (*domain.User, error)
	FindByApiKey(apiKey string) (*domain.User, error)
	FindAll() (*[]domain.User, error)
	Save(user *domain.User) (int64, error)
	FindById(id int64) (*domain.User, error)
	DeleteById(id int64) error
	FindByUsername(username string) (*domain.User, error)
	UpdateSession(userID int64, sessionID string, expiry time.Time) error
	ClearSessionBySessionID(sessionID string) error
	UpdateUser(id int64, fullName string, role domain.Role, apiKey sql.NullString, enabled sql.NullBool) error
}
