// Package app is the composition root: it loads configuration, opens the
// credential store, wires services to the router and owns the server
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reposcope/reposcope/internal/gateway/cache"
	"github.com/reposcope/reposcope/internal/gateway/github"
	httpapi "github.com/reposcope/reposcope/internal/gateway/http"
	"github.com/reposcope/reposcope/internal/gateway/service"
	"github.com/reposcope/reposcope/internal/gateway/store"
	"github.com/reposcope/reposcope/internal/gateway/store/drivers/sqlite"
	"github.com/reposcope/reposcope/pkg/cryptox"
	"github.com/reposcope/reposcope/pkg/jwtx"
	"github.com/reposcope/reposcope/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the gateway with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        store.Store
	cipher    *cryptox.Cipher
	sessions  *jwtx.Sessions
	client    *github.Client
	oauth     *github.OAuth
	respCache *cache.Cache

	loginService      *service.LoginService
	credentialService *service.CredentialService
	contextService    *service.ContextService
	judgeService      *service.JudgeService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. Anything
// misconfigured fails here, never at request time.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "reposcope-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cipher, err := cryptox.NewCipher([]byte(cfg.TokenSealKey))
	if err != nil {
		return nil, fmt.Errorf("initialize token cipher: %w", err)
	}
	app.cipher = cipher

	app.sessions = &jwtx.Sessions{
		Secret: []byte(cfg.SessionSecret),
		Issuer: "reposcope-gateway",
		TTL:    jwtx.DefaultSessionTTL,
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("gateway starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gateway stopped")
	return nil
}

// initDatabase opens the credential store and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices wires the upstream clients and business services.
func (app *Application) initServices() error {
	app.client = github.NewClient()
	if app.cfg.GitHubBaseURL != "" {
		app.client.BaseURL = app.cfg.GitHubBaseURL
	}
	if app.cfg.UpstreamMaxRetries >= 0 {
		app.client.MaxRetries = app.cfg.UpstreamMaxRetries
	}

	app.oauth = github.NewOAuth(app.cfg.GitHubClientID, app.cfg.GitHubClientSecret)
	app.respCache = cache.New()

	app.loginService = &service.LoginService{
		Store:    app.db,
		OAuth:    app.oauth,
		Client:   app.client,
		Cipher:   app.cipher,
		Sessions: app.sessions,
		Scopes:   app.cfg.GitHubScopes,
	}
	app.credentialService = &service.CredentialService{
		Store:  app.db,
		OAuth:  app.oauth,
		Cipher: app.cipher,
	}
	app.contextService = &service.ContextService{Client: app.client}

	judge, err := service.NewJudgeService(app.cfg.AnthropicAPIKey, app.cfg.JudgmentModel)
	if err != nil {
		return fmt.Errorf("initialize judge: %w", err)
	}
	app.judgeService = judge

	return nil
}

// initHTTP wires services to the router and builds the server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.sessions, BuildVersion, app.db, app.logger)

	router.LoginService = app.loginService
	router.CredentialService = app.credentialService
	router.ContextService = app.contextService
	router.JudgeService = app.judgeService
	router.Client = app.client
	router.Cache = app.respCache
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
