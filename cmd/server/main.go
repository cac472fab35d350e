package main

import (
	"context"
	"errors"
	"fmt"
	"go-comments-app/internal/auth"
	"go-comments-app/internal/config"
	"go-comments-app/internal/data"
	"go-comments-app/internal/handler"
	"go-comments-app/internal/logger"
	"go-comments-app/internal/middleware"
	"go-comments-app/internal/notify"
	"go-comments-app/internal/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log, os.Stdout)

	// --- Database Initialization and Migration ---
	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(cfg.DB); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info("Database connection successful.")

	// --- Session Management Setup ---
	sessionManager := newSessionManager(cfg, db)

	// --- Authorization Setup ---
	log.Info("Initializing authorization...")
	enforcer, err := auth.NewEnforcer(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err, "Failed to initialize enforcer")
	}
	if err := auth.SeedDefaultPolicies(enforcer, log); err != nil {
		log.Fatal(err, "Failed to seed authorization policies")
	}

	// --- Dependency Injection and Handler Initialization ---
	commentRepository := data.NewSQLCommentRepository(db)
	pageRepository := data.NewSQLPageRepository(db)
	userRepository := data.NewSQLUserRepository(db)

	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.Mail.Enabled() {
		sender = notify.NewSMTPSender(cfg.Mail)
	} else {
		log.Warn("Mail is not configured; reply notifications will only be logged.")
	}
	notifier := notify.NewReplyNotifier(commentRepository, pageRepository, sender, notify.NewRenderer(), cfg.Mail.SiteName)
	notifyPool := notify.NewPool(cfg.Notify, notifier, log.With(map[string]interface{}{"component": "notify"}))
	poolCtx, stopPool := context.WithCancel(context.Background())
	defer stopPool()
	notifyPool.Start(poolCtx)

	commentService := service.NewCommentService(commentRepository, notifyPool, log, cfg.Comments.DeleteKeyCost)
	pageService := service.NewPageService(pageRepository)
	userService := service.NewUserService(userRepository, 0)

	commentHandler := handler.NewCommentHandler(commentService, log)
	pageHandler := handler.NewPageHandler(pageService, log)
	authHandler := handler.NewAuthHandler(userService, sessionManager, log)

	authzMiddleware := middleware.Authorizer(enforcer, sessionManager, log)
	errorMiddleware := middleware.Error(log)

	// --- Router Setup ---
	router := handler.NewRouter(
		handler.RouterConfig{
			StaticDir:   cfg.Server.StaticDir,
			CORSOrigin:  cfg.Server.CORSOrigin,
			BehindProxy: cfg.Server.BehindProxy,
		},
		commentHandler, pageHandler, authHandler,
		sessionManager, authzMiddleware, errorMiddleware, log,
	)

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}
	// Let queued notifications finish before the database goes away.
	if err := notifyPool.Shutdown(ctx); err != nil {
		log.Error(err, "Pending reply notifications were dropped")
	}
	log.Info("Server exiting")
}

func newSessionManager(cfg *config.Config, db *sqlx.DB) *scs.SessionManager {
	sessionManager := scs.New()
	if cfg.DB.Driver == data.DriverSQLite {
		sessionManager.Store = sqlite3store.New(db.DB)
	} else {
		sessionManager.Store = mysqlstore.New(db.DB)
	}
	sessionManager.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sessionManager.Cookie.Name = cfg.Session.CookieName
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.TLS.Enabled
	return sessionManager
}
