package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/fieldops-hq/leaveflow/internal/engine"
	"github.com/fieldops-hq/leaveflow/internal/util"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/models"
)

// VacationsController holds dependencies for the vacation request HTTP endpoints.
type VacationsController struct {
	AuthController
	Engine   *engine.WorkflowEngine
	validate *validator.Validate
}

func NewVacationsController(eng *engine.WorkflowEngine, userRepo engine.UserRepo) *VacationsController {
	return &VacationsController{
		Engine:   eng,
		validate: validator.New(),
		AuthController: AuthController{
			UserRepo: userRepo,
		},
	}
}

func (c *VacationsController) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	req, err := util.DecodeJSONBody[models.SubmitVacationRequest](r)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := c.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			util.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", fieldErrs[0].Field()))
			return
		}
		util.WriteJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	replacement, err := c.UserRepo.FindById(req.ReplacementUserID)
	if err != nil {
		slog.Error("Failed to look up replacement user", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	if replacement == nil {
		util.WriteJSONError(w, http.StatusBadRequest, "replacement user does not exist")
		return
	}

	record, err := c.Engine.Submit(r.Context(), models.NewVacationRequest{
		EmployeeID:          actor.ID,
		EmployeeName:        actor.Name,
		EmployeeRole:        actor.Role,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Reason:              req.Reason,
		ReplacementUserID:   replacement.ID,
		ReplacementUserName: replacement.FullName,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusCreated, record)
}

func (c *VacationsController) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter := models.RequestFilter{}
	if v := r.URL.Query().Get("employeeId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			util.WriteJSONError(w, http.StatusBadRequest, "employeeId is an integer")
			return
		}
		filter.EmployeeID = id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := domain.ParseStatus(v)
		if err != nil {
			util.WriteJSONError(w, http.StatusBadRequest, "unknown status")
			return
		}
		filter.Status = status
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			util.WriteJSONError(w, http.StatusBadRequest, "limit is a positive integer")
			return
		}
		filter.Limit = limit
	}

	// Employees only ever see their own requests; the oversight view is
	// for approver roles and admin.
	if actor.Role == domain.RoleEmployee {
		filter.EmployeeID = actor.ID
	}

	results, err := c.Engine.List(r.Context(), filter)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, results)
}

func (c *VacationsController) handleGetById(w http.ResponseWriter, r *http.Request) {
	_, record, ok := c.loadAuthorized(w, r)
	if !ok {
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, record)
}

func (c *VacationsController) handleGetByExternalId(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	externalID := r.PathValue("externalId")
	if externalID == "" {
		util.WriteJSONError(w, http.StatusBadRequest, "externalId is required")
		return
	}
	record, err := c.Engine.GetByExternalID(r.Context(), externalID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if actor.Role == domain.RoleEmployee && record.EmployeeID != actor.ID {
		util.WriteJSONError(w, http.StatusForbidden, "Forbidden")
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, record)
}

func (c *VacationsController) handleApprove(w http.ResponseWriter, r *http.Request) {
	c.handleDecision(w, r, domain.ActionApprove)
}

func (c *VacationsController) handleDeny(w http.ResponseWriter, r *http.Request) {
	c.handleDecision(w, r, domain.ActionDeny)
}

func (c *VacationsController) handleDecision(w http.ResponseWriter, r *http.Request, action domain.Action) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := parseID(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "id is an integer")
		return
	}

	// The comment body is optional on approve; tolerate an empty body.
	var comment string
	if r.Body != nil && r.ContentLength != 0 {
		req, err := util.DecodeJSONBody[models.DecisionRequest](r)
		if err != nil {
			util.WriteJSONError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		comment = req.Comment
	}

	record, err := c.Engine.Act(r.Context(), id, actor, action, comment)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, record)
}

// handleWatch streams request changes as server-sent events until the
// client disconnects.
func (c *VacationsController) handleWatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		util.WriteJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	filter := models.RequestFilter{}
	if actor.Role == domain.RoleEmployee {
		filter.EmployeeID = actor.ID
	}
	updates, cancel := c.Engine.Notifier().Subscribe(filter)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case req, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(req)
			if err != nil {
				slog.Error("Failed to encode watch event", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// loadAuthorized fetches the request from the path id and enforces that
// employees can only read their own records.
func (c *VacationsController) loadAuthorized(w http.ResponseWriter, r *http.Request) (engine.Actor, *domain.VacationRequest, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return engine.Actor{}, nil, false
	}
	id, err := parseID(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "id is an integer")
		return engine.Actor{}, nil, false
	}
	record, err := c.Engine.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return engine.Actor{}, nil, false
	}
	if actor.Role == domain.RoleEmployee && record.EmployeeID != actor.ID {
		util.WriteJSONError(w, http.StatusForbidden, "Forbidden")
		return engine.Actor{}, nil, false
	}
	return actor, record, true
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// writeEngineError maps the engine error taxonomy onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	var validationErr *engine.ValidationError
	var storageErr *engine.StorageError
	switch {
	case errors.As(err, &validationErr):
		util.WriteJSONError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, engine.ErrNotFound):
		util.WriteJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrPermissionDenied):
		util.WriteJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrAlreadyFinalized), errors.Is(err, engine.ErrConcurrentModification):
		util.WriteJSONError(w, http.StatusConflict, err.Error())
	case errors.As(err, &storageErr):
		slog.Error("Storage failure", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "storage unavailable")
	default:
		slog.Error("Unexpected engine error", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "server error")
	}
}
