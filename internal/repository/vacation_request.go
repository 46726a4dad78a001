package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/models"
)

// RequestRepository persists vacation requests. It relies only on
// single-row atomicity: the decision write is one conditional UPDATE
// keyed on the modified timestamp the caller last read.
type RequestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, external_id, employee_id, employee_name, employee_role,
		start_date, end_date, reason, replacement_user_id, replacement_user_name,
		status, approvals, created, modified`

// Save inserts a new request and returns its ID.
func (r *RequestRepository) Save(req *domain.VacationRequest) (int64, error) {
	approvals, err := domain.MarshalApprovals(req.Approvals)
	if err != nil {
		return 0, err
	}

	base := `
		INSERT INTO vacation_requests (
			external_id, employee_id, employee_name, employee_role,
			start_date, end_date, reason, replacement_user_id, replacement_user_name,
			status, approvals, created, modified
		) VALUES (
			` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `,
			` + placeholder(5) + `, ` + placeholder(6) + `, ` + placeholder(7) + `, ` + placeholder(8) + `, ` + placeholder(9) + `,
			` + placeholder(10) + `, ` + placeholder(11) + `, ` + placeholder(12) + `, ` + placeholder(13) + `
		)`

	args := []any{
		req.ExternalID,
		req.EmployeeID,
		req.EmployeeName,
		string(req.EmployeeRole),
		req.StartDate,
		req.EndDate,
		req.Reason,
		req.ReplacementUserID,
		req.ReplacementUserName,
		string(req.Status),
		approvals,
		req.Created,
		req.Modified,
	}

	if supportsReturning() {
		err = r.db.QueryRow(base+" RETURNING id", args...).Scan(&req.ID)
		if err != nil {
			return 0, err
		}
		return req.ID, nil
	}

	res, err := r.db.Exec(base, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	req.ID = id
	return id, nil
}

// FindByID fetches a single request. Returns (nil, nil) if not found.
func (r *RequestRepository) FindByID(id int64) (*domain.VacationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM vacation_requests
		WHERE id = ` + placeholder(1) + `
	`
	return r.queryOne(query, id)
}

// FindByExternalID fetches a single request by its external UUID.
// Returns (nil, nil) if not found.
func (r *RequestRepository) FindByExternalID(externalID string) (*domain.VacationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM vacation_requests
		WHERE external_id = ` + placeholder(1) + `
	`
	return r.queryOne(query, externalID)
}

// UpdateDecision applies one workflow transition: status, the whole
// approvals document and the modified timestamp in a single statement.
// The WHERE clause compares the modified value the caller read, so a
// request changed by a concurrent actor affects zero rows and the caller
// gets false back.
func (r *RequestRepository) UpdateDecision(id int64, status domain.Status, approvals string, seenModified time.Time, newModified time.Time) (bool, error) {
	query := `
		UPDATE vacation_requests
		SET status = ` + placeholder(1) + `, approvals = ` + placeholder(2) + `, modified = ` + placeholder(3) + `
		WHERE id = ` + placeholder(4) + ` AND modified = ` + placeholder(5) + `
	`
	res, err := r.db.Exec(query, string(status), approvals, newModified, id, seenModified)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Search returns requests matching the filter, newest first.
func (r *RequestRepository) Search(filter models.RequestFilter) (*[]domain.VacationRequest, error) {
	var where []string
	var args []any
	idx := 1

	if filter.EmployeeID != 0 {
		where = append(where, "employee_id = "+placeholder(idx))
		args = append(args, filter.EmployeeID)
		idx++
	}
	if filter.Status != "" {
		where = append(where, "status = "+placeholder(idx))
		args = append(args, string(filter.Status))
		idx++
	}

	query := "SELECT " + requestColumns + " FROM vacation_requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	return r.queryMany(query, args...)
}

// FindModifiedSince returns requests whose modified timestamp is strictly
// after the given time, oldest change first, for the watch poller.
func (r *RequestRepository) FindModifiedSince(since time.Time, limit int) (*[]domain.VacationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM vacation_requests
		WHERE modified > ` + placeholder(1) + `
		ORDER BY modified ASC
		LIMIT ` + fmt.Sprintf("%d", limit)
	return r.queryMany(query, since)
}

func (r *RequestRepository) queryOne(query string, args ...any) (*domain.VacationRequest, error) {
	row := r.db.QueryRow(query, args...)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *RequestRepository) queryMany(query string, args ...any) (*[]domain.VacationRequest, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.VacationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.VacationRequest, error) {
	var req domain.VacationRequest
	var role, status, approvals string
	err := row.Scan(
		&req.ID,
		&req.ExternalID,
		&req.EmployeeID,
		&req.EmployeeName,
		&role,
		&req.StartDate,
		&req.EndDate,
		&req.Reason,
		&req.ReplacementUserID,
		&req.ReplacementUserName,
		&status,
		&approvals,
		&req.Created,
		&req.Modified,
	)
	if err != nil {
		return nil, err
	}
	req.EmployeeRole = domain.Role(role)
	req.Status = domain.Status(status)
	req.Approvals, err = domain.UnmarshalApprovals(approvals)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
