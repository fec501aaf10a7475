package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/narrai/narrai-web/config"
	httpx "github.com/narrai/narrai-web/internal/http"
)

const shutdownTimeout = 10 * time.Second

// BuildHTTPHandler builds the router with its middleware stack.
func BuildHTTPHandler(cfg *config.AppConfig, services ServiceContainer, logger *slog.Logger) (http.Handler, error) {
	if cfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
	}
	return httpx.NewRouter(httpx.RouterServices{
		Auth:             services.Auth,
		Accounts:         services.Accounts,
		Onboarding:       services.Onboarding,
		Verify:           services.Verification,
		Readiness:        services.Readiness,
		Metrics:          services.Metrics,
		CookieDomain:     cfg.HTTP.CookieDomain,
		Compression:      cfg.HTTP.CompressionEnabled,
		CompressionLevel: cfg.HTTP.CompressionLevel,
		IsDev:            cfg.IsDev,
		Logger:           logger,
	})
}

func newServer(handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// RunConfig contains what Run needs to serve traffic.
type RunConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger

	// Listener replaces the configured address (tests).
	Listener net.Listener
}

// Run serves HTTP and runs the verification janitor until ctx is cancelled, SIGINT or
// SIGTERM arrives, or either component fails. The server is shut down gracefully.
func Run(ctx context.Context, cfg RunConfig) error {
	if cfg.Config == nil {
		return errors.New("run: config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := BuildHTTPHandler(cfg.Config, cfg.Services, logger)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	server := newServer(handler, cfg.Config.HTTP.Addr)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var serveErr error
		if cfg.Listener != nil {
			logger.Info("starting HTTP server", "addr", cfg.Listener.Addr().String())
			serveErr = server.Serve(cfg.Listener)
		} else {
			logger.Info("starting HTTP server", "addr", server.Addr)
			serveErr = server.ListenAndServe()
		}
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", serveErr)
	})

	if cfg.Services.Verification != nil {
		g.Go(func() error {
			return cfg.Services.Verification.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		// gctx is already done; shutdown gets its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
