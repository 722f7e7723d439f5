package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/envcascade/internal/api"
	"github.com/eugenenazirov/envcascade/internal/config"
	"github.com/eugenenazirov/envcascade/internal/loader"
	"github.com/eugenenazirov/envcascade/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage storage.Storage
	loader  *loader.Loader
	source  loader.Options
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
	clock   func() time.Time
}

// Option customises App construction.
type Option func(*App)

// WithLoader replaces the cascade loader, primarily for tests.
func WithLoader(l *loader.Loader) Option {
	return func(a *App) {
		a.loader = l
	}
}

// WithClock overrides the time source used for snapshot timestamps.
func WithClock(clock func() time.Time) Option {
	return func(a *App) {
		a.clock = clock
	}
}

// New initializes the application with all dependencies from the provided
// configuration and performs the initial load of the served cascade.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := &App{
		storage: storage.NewMemoryStorage(),
		source:  cfg.Source,
		logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.loader == nil {
		app.loader = loader.New(loader.WithLogger(logger))
	}

	if err := app.loadSnapshot(); err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}

	app.handler = api.NewHandler(app.storage, api.WithClock(app.clock))
	app.router = api.NewRouter(app.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	app.server = NewServer(cfg, BuildRootHandler(app.router))

	return app, nil
}

// loadSnapshot reads the served cascade into storage.
func (a *App) loadSnapshot() error {
	report, err := a.loader.LoadDetailed(a.source)
	if err != nil {
		return err
	}

	err = a.storage.SetSnapshot(storage.Snapshot{
		Config:      report.Config,
		Environment: report.Environment,
		Candidates:  report.Candidates,
		Files:       report.Files,
		Unresolved:  report.Unresolved,
		LoadedAt:    a.clock(),
	})
	if err != nil {
		return err
	}

	a.logger.Info("configuration loaded",
		zap.String("environment", report.Environment),
		zap.Strings("files", report.Files),
		zap.Int("unresolved", len(report.Unresolved)),
	)
	return nil
}

// BuildRootHandler routes API requests and redirects the bare root to the
// resolved configuration.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/api/config", http.StatusFound)
	}))
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
