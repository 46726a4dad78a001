package controllers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops-hq/leaveflow/internal/engine"
	"github.com/fieldops-hq/leaveflow/internal/util"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/models"
)

// UsersController provides admin-only user management.
type UsersController struct {
	AuthController
	validate *validator.Validate
}

func NewUsersController(userRepo engine.UserRepo) *UsersController {
	return &UsersController{
		validate: validator.New(),
		AuthController: AuthController{
			UserRepo: userRepo,
		},
	}
}

func (c *UsersController) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.UserRepo.FindAll()
	if err != nil {
		slog.Error("Failed to get users", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to get users")
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, users)
}

func (c *UsersController) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[models.CreateUserRequest](r)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid user data")
		return
	}
	if err := c.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			util.WriteJSONError(w, http.StatusBadRequest, "invalid "+fieldErrs[0].Field())
			return
		}
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid user data")
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "unknown role")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &domain.User{
		Username: req.Username,
		Password: string(hashed),
		FullName: req.FullName,
		Role:     role,
		Enabled:  sql.NullBool{Bool: true, Valid: true},
	}
	id, err := c.UserRepo.Save(user)
	if err != nil {
		slog.Error("Failed to create user", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	user.ID = id
	util.WriteJSONResponse(w, http.StatusCreated, user)
}

func (c *UsersController) handleGetUserById(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	user, err := c.UserRepo.FindById(id)
	if err != nil {
		slog.Error("Failed to get user", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}
	if user == nil {
		util.WriteJSONError(w, http.StatusNotFound, "User not found")
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, user)
}

func (c *UsersController) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if err := c.UserRepo.DeleteById(id); err != nil {
		slog.Error("Failed to delete user", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateApiKey mints a fresh API key for a user, replacing any
// previous key.
func (c *UsersController) handleGenerateApiKey(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	user, err := c.UserRepo.FindById(id)
	if err != nil {
		slog.Error("Failed to get user", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}
	if user == nil {
		util.WriteJSONError(w, http.StatusNotFound, "User not found")
		return
	}

	apiKey := uuid.NewString()
	if err := c.UserRepo.UpdateUser(user.ID, user.FullName, user.Role,
		sql.NullString{String: apiKey, Valid: true}, user.Enabled); err != nil {
		slog.Error("Failed to update user", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "Failed to generate api key")
		return
	}
	util.WriteJSONResponse(w, http.StatusOK, map[string]string{"apiKey": apiKey})
}
