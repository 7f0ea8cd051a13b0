package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapspot/internal/handlers"
	"snapspot/internal/logging"
	"snapspot/internal/middleware"
	"snapspot/internal/startup"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the snapspot HTTP API together with the catalog indexer, the
temp file janitor and the metrics collector. SIGINT or SIGTERM shuts
everything down in order.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	startTime := time.Now()

	cfg, err := startup.LoadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		return err
	}

	if err := a.janitor.Start(cfg.SweepInterval); err != nil {
		a.close()
		return err
	}

	startup.LogIndexerInit(cfg.IndexInterval)
	a.indexer.Start()
	startup.LogIndexerStarted()

	a.collector.Start()
	a.memory.Start()

	opts := handlers.Options{
		Pipeline:   a.pipeline,
		Indexer:    a.indexer,
		Sweeper:    a.janitor,
		TempMaxAge: cfg.TempMaxAge,
		StartedAt:  startTime,
	}
	if a.feed != nil {
		opts.Fixes = a.feed
	}
	router := handlers.NewRouter(handlers.New(opts))
	startup.LogHTTPRoutes(router, cfg.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = cfg.LogHealthChecks
	handler := middleware.RequestID(middleware.Logger(loggingConfig)(router))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            cfg.Port,
		StartupDuration: time.Since(startTime),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		startup.LogShutdownInitiated(sig.String())
	case err := <-serverErr:
		runErr = err
		startup.LogShutdownInitiated("server error")
		logging.Error("Server error: %v", err)
	}

	a.shutdown(srv)
	return runErr
}

// shutdown stops components in dependency order: no new requests first,
// then background producers, then the pipeline and storage.
func (a *app) shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping indexer")
	a.indexer.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	a.collector.Stop()
	a.memory.Stop()

	a.close()
	startup.LogShutdownComplete()
}
