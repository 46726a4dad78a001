package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops-hq/leaveflow/internal/policy"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/core"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/models"
)

// Actor identifies who is performing an engine operation. Identity is an
// already-authenticated fact supplied by the caller; the engine only
// authorizes the role against the current stage.
type Actor struct {
	ID   int64
	Name string
	Role domain.Role
}

// WorkflowEngine orchestrates the vacation approval workflow: it evaluates
// the policy against the latest persisted state, applies the transition,
// appends audit entries and notifies watchers. It owns the status and
// approvals fields of every request; nothing else writes them.
type WorkflowEngine struct {
	RequestRepo RequestRepo
	ActionRepo  ActionRepo
	notifier    *Notifier
	clock       core.Clock

	wakeup chan struct{}
	cursor time.Time
}

func NewWorkflowEngine(requestRepo RequestRepo, actionRepo ActionRepo, notifier *Notifier, clock core.Clock) *WorkflowEngine {
	return &WorkflowEngine{
		RequestRepo: requestRepo,
		ActionRepo:  actionRepo,
		notifier:    notifier,
		clock:       clock,
		wakeup:      make(chan struct{}, 1),
	}
}

// Notifier exposes the watch hub so the shell can attach subscribers.
func (e *WorkflowEngine) Notifier() *Notifier { return e.notifier }

// Submit validates a new request and persists it with status pending and
// all approval slots undecided.
func (e *WorkflowEngine) Submit(ctx context.Context, req models.NewVacationRequest) (*domain.VacationRequest, error) {
	if err := e.validateSubmission(req); err != nil {
		return nil, err
	}

	now := e.clock.Now().UTC()
	record := &domain.VacationRequest{
		ExternalID:          uuid.NewString(),
		EmployeeID:          req.EmployeeID,
		EmployeeName:        req.EmployeeName,
		EmployeeRole:        req.EmployeeRole,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Reason:              strings.TrimSpace(req.Reason),
		ReplacementUserID:   req.ReplacementUserID,
		ReplacementUserName: req.ReplacementUserName,
		Status:              domain.StatusPending,
		Approvals:           domain.NewApprovals(),
		Created:             now,
		Modified:            now,
	}

	id, err := e.RequestRepo.Save(record)
	if err != nil {
		return nil, &StorageError{Op: "save", Err: err}
	}
	record.ID = id

	slog.InfoContext(ctx, "Vacation request submitted",
		"request_id", id, "external_id", record.ExternalID,
		"employee_id", record.EmployeeID, "start", record.StartDate, "end", record.EndDate)

	e.saveAction(ctx, &domain.RequestAction{
		RequestID: id,
		ActorID:   req.EmployeeID,
		ActorName: req.EmployeeName,
		ActorRole: req.EmployeeRole,
		Type:      domain.ActionTypeSubmitted,
		Text:      fmt.Sprintf("Requested %s to %s, replacement %s", record.StartDate.Format("2006-01-02"), record.EndDate.Format("2006-01-02"), record.ReplacementUserName),
		DateTime:  now,
	})

	e.notifier.Publish(record)
	return record, nil
}

// Act applies one approver decision. The record is re-fetched immediately
// before the transition and the write is conditional on the fetched
// modified timestamp, so two near-simultaneous approvers cannot both land.
func (e *WorkflowEngine) Act(ctx context.Context, requestID int64, actor Actor, action domain.Action, comment string) (*domain.VacationRequest, error) {
	record, err := e.RequestRepo.FindByID(requestID)
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	if record == nil {
		return nil, ErrNotFound
	}

	decision, err := policy.Evaluate(record.Status, actor.Role, action)
	if err != nil {
		switch {
		case errors.Is(err, policy.ErrTerminalState):
			return nil, ErrAlreadyFinalized
		case errors.Is(err, policy.ErrNotAuthorized):
			return nil, ErrPermissionDenied
		default:
			return nil, &ValidationError{Field: "action", Reason: err.Error()}
		}
	}

	comment = strings.TrimSpace(comment)
	if action == domain.ActionDeny && comment == "" {
		return nil, &ValidationError{Field: "comment", Reason: "a comment is required when denying"}
	}

	now := e.clock.Now().UTC()
	slot := &domain.ApprovalSlot{
		Approved: action == domain.ActionApprove,
		Date:     &now,
		Comment:  comment,
	}
	approvals := make(map[domain.Role]*domain.ApprovalSlot, len(record.Approvals))
	for r, s := range record.Approvals {
		approvals[r] = s
	}
	approvals[decision.Slot] = slot

	encoded, err := domain.MarshalApprovals(approvals)
	if err != nil {
		return nil, &StorageError{Op: "encode approvals", Err: err}
	}

	ok, err := e.RequestRepo.UpdateDecision(record.ID, decision.Next, encoded, record.Modified, now)
	if err != nil {
		return nil, &StorageError{Op: "update", Err: err}
	}
	if !ok {
		slog.WarnContext(ctx, "Lost decision write to a concurrent actor",
			"request_id", record.ID, "actor_role", actor.Role, "status", record.Status)
		return nil, ErrConcurrentModification
	}

	from := record.Status
	record.Status = decision.Next
	record.Approvals = approvals
	record.Modified = now

	slog.InfoContext(ctx, "Vacation request transitioned",
		"request_id", record.ID, "from", from, "to", record.Status,
		"actor_id", actor.ID, "actor_role", actor.Role, "slot", decision.Slot)

	actionType := domain.ActionTypeApproved
	if action == domain.ActionDeny {
		actionType = domain.ActionTypeDenied
	}
	e.saveAction(ctx, &domain.RequestAction{
		RequestID: record.ID,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		ActorRole: actor.Role,
		Type:      actionType,
		Text:      fmt.Sprintf("From %s to %s", from, record.Status),
		DateTime:  now,
	})

	e.notifier.Publish(record)
	return record, nil
}

// List returns requests matching the filter. It has no side effects.
func (e *WorkflowEngine) List(ctx context.Context, filter models.RequestFilter) ([]domain.VacationRequest, error) {
	results, err := e.RequestRepo.Search(filter)
	if err != nil {
		return nil, &StorageError{Op: "search", Err: err}
	}
	if results == nil {
		return []domain.VacationRequest{}, nil
	}
	return *results, nil
}

// Get fetches one request by id.
func (e *WorkflowEngine) Get(ctx context.Context, requestID int64) (*domain.VacationRequest, error) {
	record, err := e.RequestRepo.FindByID(requestID)
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

// GetByExternalID fetches one request by its external UUID.
func (e *WorkflowEngine) GetByExternalID(ctx context.Context, externalID string) (*domain.VacationRequest, error) {
	record, err := e.RequestRepo.FindByExternalID(externalID)
	if err != nil {
		return nil, &StorageError{Op: "find", Err: err}
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

// History returns the audit trail for one request, newest first.
func (e *WorkflowEngine) History(ctx context.Context, requestID int64) ([]domain.RequestAction, error) {
	actions, err := e.ActionRepo.FindAllByRequestID(requestID)
	if err != nil {
		return nil, &StorageError{Op: "find actions", Err: err}
	}
	if actions == nil {
		return []domain.RequestAction{}, nil
	}
	return *actions, nil
}

func (e *WorkflowEngine) validateSubmission(req models.NewVacationRequest) error {
	if req.StartDate.IsZero() {
		return &ValidationError{Field: "startDate", Reason: "start date is required"}
	}
	if req.EndDate.IsZero() {
		return &ValidationError{Field: "endDate", Reason: "end date is required"}
	}
	if !req.StartDate.Before(req.EndDate) {
		return &ValidationError{Field: "endDate", Reason: "end date must be after start date"}
	}
	today := startOfDay(e.clock.Now().UTC())
	if req.StartDate.Before(today) {
		return &ValidationError{Field: "startDate", Reason: "start date must not be in the past"}
	}
	if strings.TrimSpace(req.Reason) == "" {
		return &ValidationError{Field: "reason", Reason: "a reason is required"}
	}
	if req.ReplacementUserID <= 0 {
		return &ValidationError{Field: "replacementUserId", Reason: "a replacement must be selected"}
	}
	if req.ReplacementUserID == req.EmployeeID {
		return &ValidationError{Field: "replacementUserId", Reason: "the replacement cannot be the requester"}
	}
	return nil
}

func (e *WorkflowEngine) saveAction(ctx context.Context, a *domain.RequestAction) {
	if _, err := e.ActionRepo.Save(a); err != nil {
		slog.ErrorContext(ctx, "Failed to save request action", "request_id", a.RequestID, "type", a.Type, "error", err)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
