package middleware

import (
	"errors"
	"go-comments-app/internal/auth"
	"go-comments-app/internal/logger"
	"go-comments-app/internal/session"
	"net/http"
)

// Enforcer decides whether a subject may perform an action on an object.
type Enforcer interface {
	Enforce(rvals ...interface{}) (bool, error)
}

// Authorizer creates a new middleware for authorization.
// It checks the user's permissions using Casbin based on session data.
// Denied anonymous requests get 401, denied logged-in requests get 403.
func Authorizer(e Enforcer, sm session.Manager, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := sm.GetString(r.Context(), session.SubjectKey)
			if subject == "" {
				subject = auth.RoleAnonymous
			}
			userInfo := &UserInfo{Subject: subject}
			r = r.WithContext(SetUserInfo(r.Context(), userInfo))

			allowed, err := e.Enforce(subject, r.URL.Path, r.Method)
			if err != nil {
				log.Error(err, "Authorization check failed")
				WriteJSON(w, http.StatusInternalServerError, Message{Message: internalMessage})
				return
			}
			if !allowed {
				if userInfo.Anonymous() {
					WriteJSON(w, http.StatusUnauthorized, Message{Message: "login required"})
					return
				}
				WriteJSON(w, http.StatusForbidden, Message{Message: "forbidden"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// errUnauthorized is logged when a handler requires a user the session does not carry.
var errUnauthorized = errors.New("unauthorized")
