package repository

import (
	"database/sql"
	"log/slog"

	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
)

// RequestActionRepository persists and queries the append-only audit trail.
type RequestActionRepository struct {
	db *sql.DB
}

func NewRequestActionRepository(db *sql.DB) *RequestActionRepository {
	return &RequestActionRepository{db: db}
}

// Save inserts a new audit entry and returns its ID. Entries are never
// updated or deleted.
func (r *RequestActionRepository) Save(a *domain.RequestAction) (int64, error) {
	base := `
		INSERT INTO request_actions (
			request_id, actor_id, actor_name, actor_role, type, text, date_time
		) VALUES (
			` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `, ` + placeholder(5) + `, ` + placeholder(6) + `, ` + placeholder(7) + `
		)`

	var err error
	if supportsReturning() {
		err = r.db.QueryRow(
			base+" RETURNING id",
			a.RequestID,
			a.ActorID,
			a.ActorName,
			string(a.ActorRole),
			a.Type,
			a.Text,
			a.DateTime,
		).Scan(&a.ID)
	} else {
		res, e := r.db.Exec(base,
			a.RequestID,
			a.ActorID,
			a.ActorName,
			string(a.ActorRole),
			a.Type,
			a.Text,
			a.DateTime,
		)
		if e != nil {
			err = e
		} else {
			id, e2 := res.LastInsertId()
			if e2 != nil {
				err = e2
			} else {
				a.ID = id
			}
		}
	}

	if err != nil {
		slog.Error("Failed to save request action", "error", err)
	}

	return a.ID, err
}

// FindAllByRequestID returns all audit entries for a request, newest first.
func (r *RequestActionRepository) FindAllByRequestID(requestID int64) (*[]domain.RequestAction, error) {
	query := `
		SELECT id, request_id, actor_id, actor_name, actor_role, type, text, date_time
		FROM request_actions
		WHERE request_id = ` + placeholder(1) + `
		ORDER BY id DESC
	`
	rows, err := r.db.Query(query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []domain.RequestAction
	for rows.Next() {
		var a domain.RequestAction
		var role string
		if err := rows.Scan(
			&a.ID,
			&a.RequestID,
			&a.ActorID,
			&a.ActorName,
			&role,
			&a.Type,
			&a.Text,
			&a.DateTime,
		); err != nil {
			return nil, err
		}
		a.ActorRole = domain.Role(role)
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &actions, nil
}
