package repository

import (
	"database/sql"
	"time"

	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/core"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
)

// UserRepository provides persistence methods for the users table.
type UserRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewUserRepository(db *sql.DB, clock core.Clock) *UserRepository {
	return &UserRepository{db: db, clock: clock}
}

const userColumns = `id, username, password, full_name, role, session_id, api_key, session_expiry, created, enabled`

// Save inserts a new user and returns its generated id.
// It will set Created to now if it's not provided.
func (r *UserRepository) Save(u *domain.User) (int64, error) {
	if !u.Created.Valid {
		u.Created = sql.NullTime{Time: r.clock.Now().UTC(), Valid: true}
	}

	base := `
        INSERT INTO users (username, password, full_name, role, session_id, api_key, session_expiry, created, enabled)
        VALUES (` + placeholder(1) + `,` + placeholder(2) + `,` + placeholder(3) + `,` + placeholder(4) + `,` + placeholder(5) + `,` + placeholder(6) + `,` + placeholder(7) + `,` + placeholder(8) + `,` + placeholder(9) + `)
    `

	args := []any{
		u.Username,
		u.Password,
		u.FullName,
		string(u.Role),
		u.SessionID,
		u.ApiKey,
		u.SessionExpiry,
		u.Created,
		u.Enabled,
	}

	var id int64
	var err error
	if supportsReturning() {
		err = r.db.QueryRow(base+" RETURNING id", args...).Scan(&id)
	} else {
		res, e := r.db.Exec(base, args...)
		if e != nil {
			err = e
		} else {
			newID, e2 := res.LastInsertId()
			if e2 != nil {
				err = e2
			} else {
				id = newID
			}
		}
	}
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

// FindByUsername fetches a user by exact username. Returns (nil, nil) if not found.
func (r *UserRepository) FindByUsername(username string) (*domain.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users
        WHERE username = ` + placeholder(1) + `
        LIMIT 1
    `
	return r.queryOne(query, username)
}

// FindBySessionID fetches the user holding an unexpired session.
// Returns (nil, nil) if the session is unknown or expired.
func (r *UserRepository) FindBySessionID(sessionID string, now time.Time) (*domain.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users
        WHERE session_id = ` + placeholder(1) + ` AND session_expiry > ` + placeholder(2) + `
        LIMIT 1
    `
	return r.queryOne(query, sessionID, now)
}

// FindByApiKey fetches an enabled user by API key. Returns (nil, nil) if not found.
func (r *UserRepository) FindByApiKey(apiKey string) (*domain.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users
        WHERE api_key = ` + placeholder(1) + `
        LIMIT 1
    `
	return r.queryOne(query, apiKey)
}

// FindById fetches a user by id. Returns (nil, nil) if not found.
func (r *UserRepository) FindById(id int64) (*domain.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users
        WHERE id = ` + placeholder(1) + `
    `
	return r.queryOne(query, id)
}

// FindAll returns every user ordered by username.
func (r *UserRepository) FindAll() (*[]domain.User, error) {
	query := `
        SELECT ` + userColumns + `
        FROM users
        ORDER BY username ASC
    `
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &users, nil
}

func (r *UserRepository) DeleteById(id int64) error {
	_, err := r.db.Exec(`DELETE FROM users WHERE id = `+placeholder(1), id)
	return err
}

// UpdateSession stores a fresh session id and expiry on the user row.
func (r *UserRepository) UpdateSession(userID int64, sessionID string, expiry time.Time) error {
	query := `
        UPDATE users
        SET session_id = ` + placeholder(1) + `, session_expiry = ` + placeholder(2) + `
        WHERE id = ` + placeholder(3) + `
    `
	_, err := r.db.Exec(query, sessionID, expiry, userID)
	return err
}

// ClearSessionBySessionID invalidates a session on logout.
func (r *UserRepository) ClearSessionBySessionID(sessionID string) error {
	query := `
        UPDATE users
        SET session_id = NULL, session_expiry = NULL
        WHERE session_id = ` + placeholder(1) + `
    `
	_, err := r.db.Exec(query, sessionID)
	return err
}

// UpdateUser updates the mutable profile fields of a user.
func (r *UserRepository) UpdateUser(id int64, fullName string, role domain.Role, apiKey sql.NullString, enabled sql.NullBool) error {
	query := `
        UPDATE users
        SET full_name = ` + placeholder(1) + `, role = ` + placeholder(2) + `, api_key = ` + placeholder(3) + `, enabled = ` + placeholder(4) + `
        WHERE id = ` + placeholder(5) + `
    `
	_, err := r.db.Exec(query, fullName, string(role), apiKey, enabled, id)
	return err
}

func (r *UserRepository) queryOne(query string, args ...any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Password,
		&u.FullName,
		&role,
		&u.SessionID,
		&u.ApiKey,
		&u.SessionExpiry,
		&u.Created,
		&u.Enabled,
	)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
