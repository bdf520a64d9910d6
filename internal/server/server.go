// Package server is the composition root: it builds every dependency from
// the configuration, mounts the routes, and runs the HTTP server until a
// shutdown signal arrives.
//
// DEPENDENCY FLOW:
//
//	config.Config
//	  → sqlite.DB, github.Client, auth.GitHubProvider, auth.AppSigner,
//	    inference.Client, mail.Mailer
//	  → service.SessionService → Lingo/Repo/Issue services
//	  → handler.*Handler → chi routes
//
// Handlers only see services, and services only see interfaces, so each
// layer can be tested with fakes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/auth"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/config"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/github"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/handler"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/inference"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/mail"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/middleware"
	sqliteRepo "github.com/MinuraPunchihewa/the-issue-is-backend/internal/repository/sqlite"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/secret"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	limiter *middleware.RateLimiter
}

// New opens the database, builds every client and service, and mounts the
// routes. Nothing is served until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	var dbOpts []sqliteRepo.Option
	if cfg.Session.SealTokens {
		sealer, err := secret.NewSealer(cfg.Session.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("creating token sealer: %w", err)
		}
		dbOpts = append(dbOpts, sqliteRepo.WithTokenSealer(sealer))
	}

	db, err := sqliteRepo.New(cfg.DBPath, dbOpts...)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		limiter: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// services groups what the handlers need.
type services struct {
	tokens   *auth.TokenService
	sessions *service.SessionService
	lingos   *service.LingoService
	repos    *service.RepoService
	issues   *service.IssueService
	contact  *service.ContactService
}

func (s *Server) buildServices() (*services, error) {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.Session.JWTSecret, cfg.Session.TTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	gh, err := github.NewClient(github.Config{
		BaseURL:    cfg.GitHub.APIURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     s.logger,
	})
	if err != nil {
		return nil, err
	}

	provider := auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret,
		auth.WithOAuthBaseURL(cfg.GitHub.OAuthURL),
	)

	signer, err := auth.NewAppSignerFromFile(cfg.GitHub.AppID, cfg.GitHub.AppPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading GitHub App key: %w", err)
	}

	writer, err := inference.NewClient(inference.Config{
		BaseURL:      cfg.Inference.BaseURL,
		APIKey:       cfg.Inference.APIKey,
		Organization: cfg.Inference.Organization,
		Model:        cfg.Inference.Model,
		MaxTokens:    cfg.Inference.MaxTokens,
	}, s.logger)
	if err != nil {
		return nil, err
	}
	s.checkInference(writer)

	mailer, err := s.buildMailer()
	if err != nil {
		return nil, err
	}

	sessions := service.NewSessionService(s.db, provider, gh, signer, tokens, s.logger)
	return &services{
		tokens:   tokens,
		sessions: sessions,
		lingos:   service.NewLingoService(sessions, s.db, s.logger),
		repos:    service.NewRepoService(sessions, gh, s.logger),
		issues:   service.NewIssueService(sessions, s.db, s.db, gh, writer, cfg.Inference.SystemPrompt, s.logger),
		contact:  service.NewContactService(mailer, cfg.Mail.From, cfg.Mail.ContactRecipient, s.logger),
	}, nil
}

// checkInference warns at start-up when the model endpoint is unreachable.
// The server still starts; generation fails per request until it recovers.
func (s *Server) checkInference(client *inference.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		s.logger.Warn("inference endpoint unreachable, /generate_issue will fail until it recovers",
			slog.String("base_url", s.config.Inference.BaseURL),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Server) buildMailer() (mail.Mailer, error) {
	m := s.config.Mail
	switch m.Provider {
	case config.MailProviderSMTP:
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     m.Host,
			Port:     m.Port,
			Username: m.Username,
			Password: m.Password,
			UseSSL:   m.UseSSL,
			UseTLS:   m.UseTLS,
		}, s.logger), nil
	case config.MailProviderSendGrid:
		return mail.NewSendGridMailer(m.SendGridAPIKey, s.logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", m.Provider)
	}
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET  /healthz         → liveness and database check
//	POST /access_token    → OAuth handshake, sets the session cookie
//	POST /logout          → clears the session cookie
//	POST /create_lingo    → create or replace a lingo
//	POST /lingo           → list lingo names
//	POST /repos           → repositories reachable through the GitHub App
//	POST /generate_issue  → draft an issue body
//	POST /create_issue    → file the issue on GitHub
//	POST /contact_us      → email the maintainers
//
// Middleware runs in the order it is added: request id, real IP,
// logging, panic recovery, then the session cookie. The rate limiter
// guards every POST route.
func (s *Server) setupRoutes() error {
	svc, err := s.buildServices()
	if err != nil {
		return err
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.OptionalAuth(svc.tokens))

	health := handler.NewHealthHandler(s.db, s.logger)
	sessions := handler.NewSessionHandler(svc.sessions, svc.tokens, s.logger)
	lingos := handler.NewLingoHandler(svc.lingos, s.logger)
	repos := handler.NewRepoHandler(svc.repos, s.logger)
	issues := handler.NewIssueHandler(svc.issues, s.logger)
	contact := handler.NewContactHandler(svc.contact, s.logger)

	s.router.Get("/healthz", health.HandleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware)

		r.Post("/access_token", sessions.HandleAccessToken)
		r.Post("/logout", sessions.HandleLogout)
		r.Post("/create_lingo", lingos.HandleCreateLingo)
		r.Post("/lingo", lingos.HandleListLingos)
		r.Post("/repos", repos.HandleListRepos)
		r.Post("/generate_issue", issues.HandleGenerateIssue)
		r.Post("/create_issue", issues.HandleCreateIssue)
		r.Post("/contact_us", contact.HandleContactUs)
	})

	return nil
}

// Close releases the database. Start calls it on shutdown.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go s.limiter.Run(ctx)

	// Issue generation waits on the model, so writes get more time than reads.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("mail_provider", s.config.Mail.Provider),
			slog.String("model", s.config.Inference.Model),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
