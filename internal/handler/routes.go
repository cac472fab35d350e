package handler

import (
	"go-comments-app/internal/logger"
	"go-comments-app/internal/middleware"
	"go-comments-app/internal/session"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig carries the optional parts of the router.
type RouterConfig struct {
	// StaticDir is served for every non-API path, with index.html as fallback.
	StaticDir string
	// CORSOrigin enables CORS for one front-end origin.
	CORSOrigin string
	// BehindProxy trusts X-Forwarded-For / X-Real-IP for the submitter address.
	BehindProxy bool
}

// NewRouter creates and configures a new chi router.
func NewRouter(
	cfg RouterConfig,
	commentHandler *CommentHandler,
	pageHandler *PageHandler,
	authHandler *AuthHandler,
	sessions session.Manager,
	authzMiddleware func(http.Handler) http.Handler,
	errorMiddleware func(middleware.AppHandler) http.Handler,
	log logger.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if cfg.BehindProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigin))

	r.Route("/api", func(r chi.Router) {
		r.Use(sessions.LoadAndSave)
		r.Use(authzMiddleware)

		r.Method(http.MethodPost, "/login", errorMiddleware(authHandler.handleLogin))
		r.Method(http.MethodGet, "/logout", errorMiddleware(authHandler.handleLogout))

		r.Method(http.MethodGet, "/pages", errorMiddleware(pageHandler.listHandler))
		r.Method(http.MethodPost, "/pages", errorMiddleware(pageHandler.createHandler))
		r.Method(http.MethodPatch, "/pages/{page}", errorMiddleware(pageHandler.updateHandler))
		r.Method(http.MethodDelete, "/pages/{page}", errorMiddleware(pageHandler.deleteHandler))

		r.Method(http.MethodGet, "/pages/{page}/comments", errorMiddleware(commentHandler.listHandler))
		r.Method(http.MethodPost, "/pages/{page}/comments", errorMiddleware(commentHandler.createHandler))
		r.Method(http.MethodGet, "/pages/{page}/comments/{comment}", errorMiddleware(commentHandler.getHandler))
		r.Method(http.MethodPatch, "/pages/{page}/comments/{comment}", errorMiddleware(commentHandler.markHandler))
		r.Method(http.MethodGet, "/pages/{page}/comments_count", errorMiddleware(commentHandler.countHandler))
	})

	if cfg.StaticDir != "" {
		r.Method(http.MethodGet, "/*", spaHandler(cfg.StaticDir))
	}

	return r
}

// spaHandler serves files from dir and falls back to index.html so that
// client-side routes survive a reload.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(name, "/"))))
		if err != nil || info.IsDir() && name != "/" {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
