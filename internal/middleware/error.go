package middleware

import (
	"encoding/json"
	"fmt"
	"go-comments-app/internal/logger"
	"net/http"
)

// internalMessage is the only thing a client learns about a server-side failure.
const internalMessage = "system error"

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// Message is the JSON body of every error response.
type Message struct {
	Message string `json:"message"`
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// Internal wraps a server-side failure. The cause is logged, never sent.
func Internal(err error) *AppError {
	return &AppError{Error: err, Message: internalMessage, Code: http.StatusInternalServerError}
}

// BadRequest reports a client error whose message is safe to show.
func BadRequest(message string) *AppError {
	return &AppError{Message: message, Code: http.StatusBadRequest}
}

// NotFound reports a missing resource.
func NotFound(message string) *AppError {
	return &AppError{Message: message, Code: http.StatusNotFound}
}

// Unauthorized reports a missing or failed login.
func Unauthorized(message string) *AppError {
	return &AppError{Error: errUnauthorized, Message: message, Code: http.StatusUnauthorized}
}

// Error is a middleware that converts handler errors into JSON error responses.
func Error(log logger.Logger) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					WriteJSON(w, http.StatusInternalServerError, Message{Message: internalMessage})
				}
			}()

			appErr := next(w, r)
			if appErr == nil {
				return
			}
			if appErr.Code >= http.StatusInternalServerError {
				log.With(map[string]interface{}{"method": r.Method, "path": r.URL.Path}).Error(appErr.Error, "Request failed")
			} else if appErr.Error != nil {
				log.Debug(fmt.Sprintf("%s %s: %d %v", r.Method, r.URL.Path, appErr.Code, appErr.Error))
			}
			WriteJSON(w, appErr.Code, Message{Message: appErr.Message})
		})
	}
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
