package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"keaview/internal/exporter"
	"keaview/internal/inspect"
	"keaview/internal/log"
)

var exporterOpts struct {
	Listen string
}

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Serve fleet statistics as Prometheus metrics",
	RunE:  runExporter,
}

func init() {
	exporterCmd.Flags().StringVar(&exporterOpts.Listen, "listen", "", "Listen address (default from config, :9547)")

	rootCmd.AddCommand(exporterCmd)
}

func runExporter(cmd *cobra.Command, args []string) error {
	listen := cfg.Listen
	if exporterOpts.Listen != "" {
		listen = exporterOpts.Listen
	}

	tgts := targets()
	collector := exporter.NewCollector(func(ctx context.Context) *inspect.Snapshot {
		return inspect.Fetch(ctx, tgts, cfg.Service)
	}, inspect.Budget(tgts))

	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter.Handler(collector))

	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.WithComponent("exporter")
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Str("listen", listen).Int("servers", len(tgts)).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
