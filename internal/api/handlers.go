// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rshemet/cactus-dashboard/internal/cache"
	"github.com/rshemet/cactus-dashboard/internal/dashboard"
	"github.com/rshemet/cactus-dashboard/internal/models"
	"github.com/rshemet/cactus-dashboard/internal/validation"
)

// Handler serves the dashboard API endpoints.
type Handler struct {
	service    *dashboard.Service
	cacheStats func() cache.Stats
	startedAt  time.Time
}

// NewHandler creates the API handler. cacheStats may be nil when no
// result cache statistics are available.
func NewHandler(service *dashboard.Service, cacheStats func() cache.Stats) *Handler {
	return &Handler{
		service:    service,
		cacheStats: cacheStats,
		startedAt:  time.Now(),
	}
}

// dashboardRequest carries the validated selector state of one render.
type dashboardRequest struct {
	GroupBy string `validate:"omitempty,oneof=project device event"`
}

// Dashboard renders the full dashboard view model for the requested
// selector state.
//
// Method: GET
// Path: /api/v1/dashboard
//
// Query Parameters:
//   - included_projects: comma-separated project identifiers to include
//     (defaults to the configured default selection when absent)
//   - group_by: grouping dimension, one of project, device, event
//     (default: project)
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	req := dashboardRequest{GroupBy: r.URL.Query().Get("group_by")}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	selection := dashboard.Selection{
		GroupBy:          models.Grouping(req.GroupBy),
		IncludedProjects: parseProjectsParam(r),
	}

	start := time.Now()
	vm := h.service.Render(r.Context(), selection)
	respondSuccess(w, vm, vm.Warnings, time.Since(start))
}

// Selectors returns the fixed selector universe the UI renders its
// controls from.
//
// Method: GET
// Path: /api/v1/dashboard/selectors
func (h *Handler) Selectors(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.service.Selectors(), nil, 0)
}

// healthStatus is the health endpoint payload.
type healthStatus struct {
	Status        string          `json:"status"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	ResultCache   *cacheStatsView `json:"result_cache,omitempty"`
}

// cacheStatsView is the JSON shape of the result cache counters.
type cacheStatsView struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	TotalKeys int64 `json:"total_keys"`
}

// HealthLive is the liveness probe: the process is up and serving.
//
// Method: GET
// Path: /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, healthStatus{Status: "ok", UptimeSeconds: int64(time.Since(h.startedAt).Seconds())}, nil, 0)
}

// HealthReady is the readiness probe. The service holds no local state
// and degrades gracefully when the backend is down, so readiness equals
// liveness.
//
// Method: GET
// Path: /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.HealthLive(w, r)
}

// Health reports liveness plus result cache statistics.
//
// Method: GET
// Path: /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}
	if h.cacheStats != nil {
		stats := h.cacheStats()
		status.ResultCache = &cacheStatsView{
			Hits:      stats.Hits,
			Misses:    stats.Misses,
			Evictions: stats.Evictions,
			TotalKeys: stats.TotalKeys,
		}
	}
	respondSuccess(w, status, nil, 0)
}

// parseProjectsParam parses the included_projects query parameter.
// Absent means "use defaults" (nil); present but empty means an
// explicitly empty selection.
func parseProjectsParam(r *http.Request) []string {
	values, present := r.URL.Query()["included_projects"]
	if !present {
		return nil
	}
	projects := []string{}
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				projects = append(projects, trimmed)
			}
		}
	}
	return projects
}
