package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rawblock/abacus/internal/api"
	"github.com/rawblock/abacus/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Connects to PostgreSQL and serves the data-entry, committee-session, and results API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		log.Info().Str("database_url", cfg.DatabaseURL).Msg("connecting to PostgreSQL")
		st, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer st.Close()

		if err := st.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("schema init failed, continuing against existing schema")
		}

		hub := api.NewHub()
		go hub.Run()

		router := api.SetupRouter(st, cfg, hub)

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf(":%d", cfg.APIPort+1)
		go func() {
			log.Info().Str("addr", metricsAddr).Msg("serving Prometheus metrics")
			if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()

		addr := fmt.Sprintf(":%d", cfg.APIPort)
		srv := &http.Server{Addr: addr, Handler: router}

		go func() {
			<-ctx.Done()
			log.Info().Msg("shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		log.Info().Str("addr", addr).Msg("abacus API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
