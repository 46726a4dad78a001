package controllers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fieldops-hq/leaveflow/internal/config"
	"github.com/fieldops-hq/leaveflow/internal/engine"
	"github.com/fieldops-hq/leaveflow/internal/util"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/core"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/domain"
	"github.com/fieldops-hq/leaveflow/pkg/leaveflow/models"
)

// AuthController authenticates requests and exposes login/logout. It maps
// a session cookie or X-API-Key header to a user record and places the
// identity facts (id, name, role) on the request context; everything
// downstream trusts those facts and only authorizes against the role.
type AuthController struct {
	UserRepo engine.UserRepo
}

func NewAuthController(userRepo engine.UserRepo) *AuthController {
	return &AuthController{UserRepo: userRepo}
}

func (ac *AuthController) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 1) Try session cookie
		if c, err := r.Cookie("sessionId"); err == nil && c.Value != "" {
			u, err := ac.UserRepo.FindBySessionID(c.Value, time.Now().UTC())
			if err == nil && u != nil {
				next(w, r.WithContext(contextWithUser(r.Context(), u)))
				return
			}
		}
		// 2) Try API key from headers
		// Supported headers: X-API-Key: <key>
		apiKey := r.Header.Get("X-API-Key")
		if apiKey != "" {
			u, err := ac.UserRepo.FindByApiKey(apiKey)
			if err == nil && u != nil {
				next(w, r.WithContext(contextWithUser(r.Context(), u)))
				return
			}
		}
		util.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
	}
}

// RequireRole gates a handler to the given roles on top of RequireAuth.
func (ac *AuthController) RequireRole(next http.HandlerFunc, roles ...domain.Role) http.HandlerFunc {
	return ac.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			util.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				next(w, r)
				return
			}
		}
		util.WriteJSONError(w, http.StatusForbidden, "Forbidden")
	})
}

func (ac *AuthController) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[models.LoginRequest](r)
	if err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Username == "" || req.Password == "" {
		util.WriteJSONError(w, http.StatusUnauthorized, "username and password are required")
		return
	}

	u, err := ac.UserRepo.FindByUsername(req.Username)
	if err != nil {
		slog.Error("FindByUsername failed", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	if u == nil || (u.Enabled.Valid && !u.Enabled.Bool) {
		util.WriteJSONError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		slog.Error("rand.Read failed", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	sessionID := hex.EncodeToString(buf)
	expiryHours := config.GetSystemSettingInteger(config.WEB_SESSION_EXPIRY_HOURS)
	expires := time.Now().Add(time.Duration(expiryHours) * time.Hour)
	if err := ac.UserRepo.UpdateSession(u.ID, sessionID, expires); err != nil {
		slog.Error("UpdateSession failed", "error", err)
		util.WriteJSONError(w, http.StatusInternalServerError, "server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "sessionId",
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
	util.WriteJSONResponse(w, http.StatusOK, models.LoginResponse{
		SessionID: sessionID,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      string(u.Role),
	})
}

func (ac *AuthController) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie("sessionId"); err == nil && c.Value != "" {
		if err := ac.UserRepo.ClearSessionBySessionID(c.Value); err != nil {
			slog.Error("ClearSessionBySessionID failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "sessionId",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func contextWithUser(ctx context.Context, u *domain.User) context.Context {
	ctx = context.WithValue(ctx, core.CtxKeyUserID, u.ID)
	ctx = context.WithValue(ctx, core.CtxKeyUsername, u.Username)
	ctx = context.WithValue(ctx, core.CtxKeyFullName, u.FullName)
	ctx = context.WithValue(ctx, core.CtxKeyRole, u.Role)
	return ctx
}

// ActorFromContext rebuilds the engine actor from the identity facts the
// auth middleware placed on the context.
func ActorFromContext(ctx context.Context) (engine.Actor, bool) {
	id, ok := ctx.Value(core.CtxKeyUserID).(int64)
	if !ok {
		return engine.Actor{}, false
	}
	role, ok := ctx.Value(core.CtxKeyRole).(domain.Role)
	if !ok {
		return engine.Actor{}, false
	}
	name, _ := ctx.Value(core.CtxKeyFullName).(string)
	return engine.Actor{ID: id, Name: name, Role: role}, true
}
