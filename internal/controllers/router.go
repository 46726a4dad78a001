package controllers

import (
	"net/http"

	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
)

// RegisterRoutes wires the HTTP routes for this controller.
func (ac *AuthController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", ac.handleLogin)
	mux.HandleFunc("POST /api/logout", ac.RequireAuth(ac.handleLogout))
}

func (c *VacationsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/vacations", c.RequireAuth(c.handleSubmit))
	mux.HandleFunc("GET /api/vacations", c.RequireAuth(c.handleList))
	mux.HandleFunc("GET /api/vacations/watch", c.RequireAuth(c.handleWatch))
	mux.HandleFunc("GET /api/vacations/{id}", c.RequireAuth(c.handleGetById))
	mux.HandleFunc("GET /api/vacations/externalId/{externalId}", c.RequireAuth(c.handleGetByExternalId))
	mux.HandleFunc("POST /api/vacations/{id}/approve", c.RequireAuth(c.handleApprove))
	mux.HandleFunc("POST /api/vacations/{id}/deny", c.RequireAuth(c.handleDeny))
}

func (c *ActionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/actions/byVacationId/{id}", c.RequireAuth(c.handleGetActionsForRequest))
}

func (c *UsersController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/users", c.RequireRole(c.handleGetUsers, domain.RoleAdmin))
	mux.HandleFunc("POST /api/users", c.RequireRole(c.handleCreateUser, domain.RoleAdmin))
	mux.HandleFunc("GET /api/users/{id}", c.RequireRole(c.handleGetUserById, domain.RoleAdmin))
	mux.HandleFunc("DELETE /api/users/{id}", c.RequireRole(c.handleDeleteUser, domain.RoleAdmin))
	mux.HandleFunc("POST /api/users/{id}/apikey", c.RequireRole(c.handleGenerateApiKey, domain.RoleAdmin))
}
