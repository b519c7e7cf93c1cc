// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/rshemet/cactus-dashboard/internal/cache"
	"github.com/rshemet/cactus-dashboard/internal/logging"
	"github.com/rshemet/cactus-dashboard/internal/metrics"
	"github.com/rshemet/cactus-dashboard/internal/models"
	"github.com/rshemet/cactus-dashboard/internal/validation"
)

// Gateway is the query gateway over the RPC client. It caches successful
// results per (procedure, params) pair, validates row schemas at the
// boundary, and converts every failure into an empty table plus a
// user-visible warning. Downstream code treats an empty table as "no data
// available", never as an exceptional condition.
type Gateway struct {
	rpc   RPCCaller
	cache *cache.Cache
}

// NewGateway creates a gateway caching successful results for ttl.
func NewGateway(rpc RPCCaller, ttl time.Duration) *Gateway {
	return &Gateway{
		rpc:   rpc,
		cache: NewGatewayCache(ttl),
	}
}

// NewGatewayCache builds the result cache used by the gateway. Split out
// so tests can inspect cache behavior.
func NewGatewayCache(ttl time.Duration) *cache.Cache {
	return cache.New(ttl)
}

// CacheStats exposes result cache counters for the health endpoint.
func (g *Gateway) CacheStats() cache.Stats {
	return g.cache.GetStats()
}

// RateRows fetches daily error/success rates grouped by the given
// dimension. On failure the returned slice is empty and warning is
// non-empty.
func (g *Gateway) RateRows(ctx context.Context, grouping models.Grouping, params models.RPCParams) ([]models.RateRow, string) {
	return fetchRows[models.RateRow](g, ctx, grouping.Procedure(), params)
}

// TokenRows fetches daily generated token counts per device manufacturer.
func (g *Gateway) TokenRows(ctx context.Context, params models.RPCParams) ([]models.TokenRow, string) {
	return fetchRows[models.TokenRow](g, ctx, "get_generated_tokens_new", params)
}

// ErrorLogs fetches the aggregated error log entries.
func (g *Gateway) ErrorLogs(ctx context.Context, params models.RPCParams) ([]models.ErrorLogEntry, string) {
	return fetchRows[models.ErrorLogEntry](g, ctx, "get_error_logs", params)
}

// fetchRows runs one procedure call through cache, breaker-backed client
// and schema validation. All failure modes collapse to (empty, warning).
func fetchRows[T any](g *Gateway, ctx context.Context, procedure string, params interface{}) ([]T, string) {
	key := cache.GenerateKey(procedure, params)
	if cached, ok := g.cache.Get(key); ok {
		if rows, ok := cached.([]T); ok {
			metrics.CacheHits.WithLabelValues(procedure).Inc()
			return rows, ""
		}
	}
	metrics.CacheMisses.WithLabelValues(procedure).Inc()

	start := time.Now()
	var rows []T
	err := g.rpc.Call(ctx, procedure, params, &rows)
	metrics.RecordRPC(procedure, time.Since(start))

	if err != nil {
		metrics.RPCErrors.WithLabelValues(procedure, "http").Inc()
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Str("procedure", procedure).Msg("RPC call failed, serving empty table")
		return []T{}, fmt.Sprintf("Error running procedure '%s': %v", procedure, err)
	}

	if err := validateRows(rows); err != nil {
		metrics.RPCErrors.WithLabelValues(procedure, "schema").Inc()
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Str("procedure", procedure).Msg("RPC response failed schema validation")
		return []T{}, fmt.Sprintf("Malformed response from '%s': %v", procedure, err)
	}

	if len(rows) == 0 {
		metrics.RPCEmptyResults.WithLabelValues(procedure).Inc()
		// An empty result is valid and cacheable; it is not a failure.
		rows = []T{}
	}

	g.cache.Set(key, rows)
	return rows, ""
}

// validateRows checks each decoded row against its schema tags so a
// missing or renamed backend column fails at the boundary instead of
// propagating zero values into chart construction.
func validateRows[T any](rows []T) error {
	for i := range rows {
		if err := validation.ValidateStruct(&rows[i]); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
