package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/plc-visualizer/twin-editor/internal/api"
	"github.com/plc-visualizer/twin-editor/internal/config"
	"github.com/plc-visualizer/twin-editor/internal/logs"
	"github.com/plc-visualizer/twin-editor/internal/metrics"
	"github.com/plc-visualizer/twin-editor/internal/parser"
	"github.com/plc-visualizer/twin-editor/internal/session"
	"github.com/plc-visualizer/twin-editor/internal/simulator"
	"github.com/plc-visualizer/twin-editor/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the editor HTTP/WebSocket API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := logs.Init(logs.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				File:   cfg.Logging.File,
			}); err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			srv, err := newServer(cfg)
			if err != nil {
				return err
			}
			defer srv.Close()

			printBanner(cfg, configPath)
			return srv.Run(cmd.Context(), cfg.ServerAddr())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "twin-editor.yaml",
		"config file, created with defaults when missing; empty uses defaults and TWIN_* env only")
	return cmd
}

// server bundles the echo instance with the resources it owns.
type server struct {
	e        *echo.Echo
	store    storage.Store
	sessions *session.Manager
	cfg      *config.AppConfig
	stop     chan struct{}
}

func newServer(cfg *config.AppConfig) (*server, error) {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	registry, err := metrics.NewRegistry()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	sessions := session.NewManager(session.Options{
		MaxSessions:     cfg.Editor.MaxSessions,
		HistoryCapacity: cfg.Editor.HistoryCapacity,
		Storage:         store,
		Backend:         cfg.Storage.Backend,
		AutosaveDelay:   cfg.Editor.AutosaveDelay,
		EventDir:        cfg.Advanced.EventDir,
		Simulator: simulator.Options{
			Interval: cfg.Simulator.Interval,
			Speed:    cfg.Simulator.Speed,
		},
	})

	api.ShowErrorDetails = cfg.Advanced.ShowErrorDetails

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetOutput(logs.Logger.Writer())
	applyMiddleware(e, cfg)
	api.SetupMiddleware(e)

	handlers := api.NewHandlers(&api.Dependencies{
		Store:    store,
		Sessions: sessions,
		Registry: parser.GetGlobalRegistry(),
		Gatherer: registry,
		Version:  Version,
	})
	api.RegisterRoutes(e, handlers, registry)

	return &server{
		e:        e,
		store:    store,
		sessions: sessions,
		cfg:      cfg,
		stop:     make(chan struct{}),
	}, nil
}

func applyMiddleware(e *echo.Echo, cfg *config.AppConfig) {
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Server.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/keepalive") ||
				path == "/api/health" ||
				path == "/metrics"
		},
		Output: logs.For("http").Writer(),
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	// Hijacked websocket connections must not be wrapped by the timeout writer.
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: cfg.Server.RequestTimeout,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Request().URL.Path, "/ws")
		},
		ErrorMessage: "Request timeout",
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Request().URL.Path, "/ws")
		},
	}))

	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	if cfg.Server.EnableCORS {
		origins := cfg.Server.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *server) Run(ctx context.Context, addr string) error {
	go s.cleanupLoop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve: HTTP server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logs.For("server").Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: graceful shutdown: %w", err)
	}
	return <-errCh
}

func (s *server) cleanupLoop() {
	interval := s.cfg.Editor.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sessions.CleanupOldSessions(s.cfg.Editor.SessionMaxAge)
		case <-s.stop:
			return
		}
	}
}

// Close stops the cleanup loop, closes every workspace and then the store.
func (s *server) Close() {
	close(s.stop)
	s.sessions.Close()
	if err := s.store.Close(); err != nil {
		logs.For("server").Warnf("closing storage: %v", err)
	}
}

func printBanner(cfg *config.AppConfig, configPath string) {
	if configPath == "" {
		configPath = "(defaults)"
	}
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Digital Twin Layout Editor                      ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Storage:    %-45s║\n", cfg.Storage.Backend)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-39s║\n", cfg.ServerAddr())
	fmt.Printf("║  Layouts:   %-46s║\n", cfg.Storage.Path)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
