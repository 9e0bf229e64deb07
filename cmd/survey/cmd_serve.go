package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"survey-stats/internal/api"
	"survey-stats/internal/state"
)

var preload bool

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the batteries over HTTP",
	Long: `Starts the JSON API on server.port (PORT env, default 8001). Datasets are
uploaded to POST /api/dataset or loaded from Postgres via /api/db/*;
--preload loads the configured data source at startup.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&preload, "preload", false, "Load the configured dataset before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if preload {
		df, err := loadDataset(ctx)
		if err != nil {
			return err
		}
		state.State.SetDataFrame(df)
	}

	handler := api.NewHandler(cfg, newHypothesisService(), state.State, logger)
	defer handler.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(cfg.Server, logger, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting survey API",
			zap.String("addr", "http://localhost:"+cfg.Server.Port),
			zap.Strings("cors_origins", cfg.Server.AllowedOrigins))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
