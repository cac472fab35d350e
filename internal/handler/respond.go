package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"go-comments-app/internal/middleware"
	"go-comments-app/internal/service"
	"net"
	"net/http"
	"net/netip"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) *middleware.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &middleware.AppError{Error: err, Message: "invalid request body", Code: http.StatusBadRequest}
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, *middleware.AppError) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, &middleware.AppError{Error: err, Message: fmt.Sprintf("invalid %s id", name), Code: http.StatusBadRequest}
	}
	return id, nil
}

// queryInt returns nil when the parameter is absent or empty.
func queryInt(r *http.Request, name string) (*int, *middleware.AppError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &middleware.AppError{Error: err, Message: fmt.Sprintf("invalid query parameter '%s'", name), Code: http.StatusBadRequest}
	}
	return &v, nil
}

// queryUUID returns nil when the parameter is absent or empty.
func queryUUID(r *http.Request, name string) (*uuid.UUID, *middleware.AppError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := uuid.Parse(raw)
	if err != nil {
		return nil, &middleware.AppError{Error: err, Message: fmt.Sprintf("invalid query parameter '%s'", name), Code: http.StatusBadRequest}
	}
	return &v, nil
}

// serviceError maps service outcomes to responses. Only validation messages reach the client.
func serviceError(err error, notFound string) *middleware.AppError {
	if verr, ok := service.IsValidation(err); ok {
		return &middleware.AppError{Error: err, Message: verr.Message, Code: http.StatusBadRequest}
	}
	if errors.Is(err, service.ErrNotFound) {
		return middleware.NotFound(notFound)
	}
	return middleware.Internal(err)
}

// clientAddr returns the address of the submitter. With RealIP in front,
// RemoteAddr may be a bare address without a port.
func clientAddr(r *http.Request) (netip.Addr, error) {
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr(), nil
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("unparsable remote address %q: %w", r.RemoteAddr, err)
	}
	return addr, nil
}
