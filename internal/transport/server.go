// Package transport serves the self-service pages and the async flow API.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	authui "github.com/goliatone/go-authui"
	"github.com/goliatone/go-authui/internal/config"
	"github.com/goliatone/go-authui/pkg/kratos"
	"github.com/goliatone/go-authui/pkg/orchestrator"
	"github.com/goliatone/go-authui/pkg/render"
	"github.com/goliatone/go-authui/pkg/renderers/vanilla"
	"github.com/goliatone/go-authui/pkg/session"
	"github.com/goliatone/go-authui/pkg/submit"
)

const shutdownTimeout = 10 * time.Second

// IdentityAPI is the part of the identity API client the server uses.
type IdentityAPI interface {
	BrowserURL(kind kratos.FlowKind, returnTo string) string
	GetFlow(ctx context.Context, kind kratos.FlowKind, id string, creds kratos.Credentials) (*kratos.Flow, error)
	UpdateFlow(ctx context.Context, kind kratos.FlowKind, id string, body any, creds kratos.Credentials) (kratos.UpdateResult, error)
	ToSession(ctx context.Context, creds kratos.Credentials) (*kratos.Session, error)
	CreateLogoutFlow(ctx context.Context, creds kratos.Credentials, returnTo string) (*kratos.LogoutFlow, error)
	GetFlowError(ctx context.Context, id string) (*kratos.FlowError, error)
	Status(ctx context.Context) (kratos.Status, error)
}

var _ IdentityAPI = (*kratos.Client)(nil)

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the request and component logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracker replaces the session tracker built from the config.
func WithTracker(tracker *session.Tracker) Option {
	return func(s *Server) {
		s.tracker = tracker
	}
}

// WithPages replaces the vanilla renderer used for forms and page chrome.
func WithPages(pages *vanilla.Renderer) Option {
	return func(s *Server) {
		s.pages = pages
	}
}

// WithOrchestrator replaces the render pipeline built from the config.
func WithOrchestrator(o *orchestrator.Orchestrator) Option {
	return func(s *Server) {
		s.orchestrator = o
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// Server renders identity flows for browsers.
type Server struct {
	cfg          config.Config
	api          IdentityAPI
	logger       logrus.FieldLogger
	tracker      *session.Tracker
	pages        *vanilla.Renderer
	orchestrator *orchestrator.Orchestrator
	forms        *orchestrator.FlowForms
	transport    render.Transport
	now          func() time.Time
	router       *mux.Router
}

// New wires the server. Collaborators not passed as options are built from
// cfg.
func New(cfg config.Config, api IdentityAPI, options ...Option) (*Server, error) {
	if api == nil {
		return nil, errors.New("transport: identity api is required")
	}
	s := &Server{
		cfg:    cfg,
		api:    api,
		logger: logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	mode, err := submit.ParseMode(cfg.Submit.Mode)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	s.transport = mode

	if s.tracker == nil {
		tracker, err := session.NewTracker(session.TrackerConfig{
			Lifetime:   cfg.Session.Lifetime,
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.Secure,
			RedisURL:   cfg.Session.RedisURL,
		})
		if err != nil {
			return nil, fmt.Errorf("transport: %w", err)
		}
		s.tracker = tracker
	}
	if s.pages == nil {
		pages, err := vanilla.New(vanilla.WithLogger(s.logger), vanilla.WithBrand(cfg.Server.Brand))
		if err != nil {
			return nil, fmt.Errorf("transport: %w", err)
		}
		s.pages = pages
	}
	if s.orchestrator == nil {
		o, err := s.buildOrchestrator()
		if err != nil {
			return nil, err
		}
		s.orchestrator = o
	}

	s.forms = s.orchestrator.FlowForms(s.transport, render.RenderOptions{})
	s.router = s.routes()
	return s, nil
}

func (s *Server) buildOrchestrator() (*orchestrator.Orchestrator, error) {
	registry := render.NewRegistry()
	if err := registry.Register(s.pages); err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	selector, err := NewThemeSelector(s.cfg.Theme.Manifest)
	if err != nil {
		return nil, err
	}

	options := []orchestrator.Option{
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(s.pages.Name()),
		orchestrator.WithLogger(s.logger),
		orchestrator.WithThemeSelector(selector),
		orchestrator.WithDefaultTheme(s.cfg.Theme.Name, s.cfg.Theme.Variant),
	}
	if preset := s.cfg.Theme.Preset; preset != "" {
		transformer, err := orchestrator.NewJSONPresetTransformerFromFS(os.DirFS(filepath.Dir(preset)), filepath.Base(preset))
		if err != nil {
			return nil, fmt.Errorf("transport: %w", err)
		}
		options = append(options, orchestrator.WithTransformer(transformer))
	}
	return orchestrator.New(options...), nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.home).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/session", s.sessionInfo).Methods(http.MethodGet)
	for _, route := range flowRoutes {
		r.Handle(route.start, s.startFlow(route)).Methods(http.MethodGet)
		r.Handle(route.page, s.showFlow(route)).Methods(http.MethodGet)
	}
	r.HandleFunc("/error", s.flowError).Methods(http.MethodGet)
	r.HandleFunc("/logout", s.logout).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", http.FileServer(http.FS(vanilla.AssetsFS()))))
	r.PathPrefix("/runtime/").Handler(http.StripPrefix("/runtime/", http.FileServer(http.FS(authui.RuntimeAssetsFS()))))

	if s.transport == render.TransportAsync {
		async := submit.NewAsync(s.api,
			submit.WithRecorder(s.tracker),
			submit.WithFormRenderer(s.forms),
			submit.WithLifetime(s.cfg.Session.Lifetime),
			submit.WithClock(s.now),
			submit.WithLogger(s.logger),
		)
		api := r.PathPrefix("/api/flows").Subrouter()
		api.Use(RateLimiterMiddleware(s.cfg.Server.RPS))
		api.Handle("/{kind}/{id}", async.Handler(func(r *http.Request) (string, string) {
			vars := mux.Vars(r)
			return vars["kind"], vars["id"]
		})).Methods(http.MethodPost)
	}

	r.NotFoundHandler = http.HandlerFunc(s.notFound)
	return r
}

// Handler returns the router wrapped in the request id, logging and session
// middleware.
func (s *Server) Handler() http.Handler {
	return RequestIDMiddleware(LoggingMiddleware(s.logger)(s.tracker.LoadAndSave(s.router)))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"listen": s.cfg.Server.Listen,
			"mode":   s.transport,
		}).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("transport: serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("transport: shutdown: %w", err)
		}
		return nil
	}
}

// Close releases the session store.
func (s *Server) Close() error {
	return s.tracker.Close()
}
