// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

// Command server runs the Cactus Performance Dashboard API: a read-only
// analytics service over Supabase remote procedures, serving error rate
// charts, cumulative token counts, and error log summaries.
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

	"github.com/joho/godotenv"

	"github.com/rshemet/cactus-dashboard/internal/api"
	"github.com/rshemet/cactus-dashboard/internal/config"
	"github.com/rshemet/cactus-dashboard/internal/dashboard"
	"github.com/rshemet/cactus-dashboard/internal/logging"
	"github.com/rshemet/cactus-dashboard/internal/supabase"
)

func main() {
	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingSupabaseCredentials) {
			fmt.Fprint(os.Stderr, config.RemediationText)
			os.Exit(1)
		}
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("supabase_url", cfg.Supabase.URL).
		Strs("project_universe", cfg.Dashboard.ProjectUniverse).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("Configuration loaded")

	client := supabase.NewClient(&cfg.Supabase)
	breaker := supabase.NewBreakerClient(client)
	gateway := supabase.NewGateway(breaker, cfg.Cache.TTL)
	service := dashboard.New(gateway, cfg.Dashboard)
	handler := api.NewHandler(service, gateway.CacheStats)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}
