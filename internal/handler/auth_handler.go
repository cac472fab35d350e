package handler

import (
	"errors"
	"go-comments-app/internal/logger"
	"go-comments-app/internal/middleware"
	"go-comments-app/internal/service"
	"go-comments-app/internal/session"
	"net/http"
)

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	users    service.UserServicer
	sessions session.Manager
	log      logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users service.UserServicer, sessions session.Manager, log logger.Logger) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, log: log}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin checks the credentials and stores the username in a fresh session.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req loginRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		return appErr
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.log.With(map[string]interface{}{"user": req.Username}).Warn("Failed login attempt")
		return middleware.Unauthorized("invalid username or password")
	}
	if err != nil {
		return middleware.Internal(err)
	}

	// A new token on privilege change prevents session fixation.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		return middleware.Internal(err)
	}
	h.sessions.Put(r.Context(), session.SubjectKey, user.Username)

	middleware.WriteJSON(w, http.StatusOK, middleware.Message{Message: "logged in"})
	return nil
}

// handleLogout ends the session.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.sessions.Destroy(r.Context()); err != nil {
		return middleware.Internal(err)
	}
	middleware.WriteJSON(w, http.StatusOK, middleware.Message{Message: "logged out"})
	return nil
}
