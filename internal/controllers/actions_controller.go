package controllers

import (
	"net/http"
	"strconv"

	"github.com/fieldops-hq/leaveflow/internal/engine"
	"github.com/fieldops-hq/leaveflow/internal/util"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
)

// ActionsController serves the audit trail of a vacation request.
type ActionsController struct {
	AuthController
	Engine *engine.WorkflowEngine
}

func NewActionsController(eng *engine.WorkflowEngine, userRepo engine.UserRepo) *ActionsController {
	return &ActionsController{Engine: eng, AuthController: AuthController{
		UserRepo: userRepo,
	}}
}

func (c *ActionsController) handleGetActionsForRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "invalid id")
		return
	}

	record, err := c.Engine.Get(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if actor.Role == domain.RoleEmployee && record.EmployeeID != actor.ID {
		util.WriteJSONError(w, http.StatusForbidden, "Forbidden")
		return
	}

	actions, err := c.Engine.History(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, actions)
}
