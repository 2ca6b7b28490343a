// Command authcore-server serves the authcore engine over HTTP.
//
// All settings come from AUTHCORE_* environment variables (see
// internal/config). A .env file in the working directory is loaded first.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/authcore/internal/config"
	"github.com/MrEthical07/authcore/internal/httpapi"
	"github.com/MrEthical07/authcore/internal/logging"
	"github.com/MrEthical07/authcore/internal/rate"
	promexport "github.com/MrEthical07/authcore/metrics/export/prometheus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "authcore-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	app, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler, err = promexport.Handler(promexport.NewCollector(app.engine))
		if err != nil {
			return fmt.Errorf("metrics handler: %w", err)
		}
	}

	apiCfg := httpapi.Config{
		Service:        app.engine,
		Logger:         log,
		Metrics:        metricsHandler,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if app.throttle != nil {
		apiCfg.Throttle = app.throttle
		apiCfg.ErrThrottled = rate.ErrRateLimited
	}
	api := httpapi.New(apiCfg)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.Store),
			zap.String("session_store", cfg.SessionStore),
			zap.String("revocation_store", cfg.RevocationStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
