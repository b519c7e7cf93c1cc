// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

// Package dashboard assembles the performance dashboard view model.
//
// Render is an explicit function over the current selector state: it
// invokes the query gateway, routes sparse tables through the
// densifier, builds declarative chart specs, and returns a fully-formed
// view model. Each render cycle is synchronous and independent; the only
// shared state is the gateway's result cache.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rshemet/cactus-dashboard/internal/charts"
	"github.com/rshemet/cactus-dashboard/internal/config"
	"github.com/rshemet/cactus-dashboard/internal/metrics"
	"github.com/rshemet/cactus-dashboard/internal/models"
	"github.com/rshemet/cactus-dashboard/internal/timeseries"
)

// deviceTelemetryCaveat is shown whenever the device grouping is active:
// error logs do not carry a device ID, which skews device error rates low.
const deviceTelemetryCaveat = "Watch out: there is a known issue with telemetry, which does not log " +
	"device ID in error logs. This leads to misleadingly low error rates. " +
	"Group errors by event for a more accurate representation."

// QueryGateway is the slice of the supabase gateway the dashboard needs.
type QueryGateway interface {
	RateRows(ctx context.Context, grouping models.Grouping, params models.RPCParams) ([]models.RateRow, string)
	TokenRows(ctx context.Context, params models.RPCParams) ([]models.TokenRow, string)
	ErrorLogs(ctx context.Context, params models.RPCParams) ([]models.ErrorLogEntry, string)
}

// Selection is the dashboard's runtime selector state.
type Selection struct {
	// IncludedProjects is the inclusion multi-select over the fixed
	// project universe. Projects outside the selection are sent to the
	// backend as the filter_out_projects denylist.
	IncludedProjects []string `json:"included_projects"`

	// GroupBy selects the grouping dimension for the rate charts.
	GroupBy models.Grouping `json:"group_by" validate:"required,oneof=project device event"`
}

// ErrorLogView is one error log entry with its rendered summary line.
type ErrorLogView struct {
	Title string `json:"title"`
	models.ErrorLogEntry
}

// ViewModel is the fully-formed dashboard state for one render cycle.
// Nil chart specs mean "nothing to render" for that slot; a matching
// warning explains why.
type ViewModel struct {
	GroupBy          models.Grouping              `json:"group_by"`
	IncludedProjects []string                     `json:"included_projects"`
	DailyCount       *charts.ChartSpec            `json:"daily_count,omitempty"`
	SuccessRate      *charts.ChartSpec            `json:"success_rate,omitempty"`
	ErrorRate        *charts.ChartSpec            `json:"error_rate,omitempty"`
	DailyTokens      *charts.ChartSpec            `json:"daily_tokens,omitempty"`
	CumulativeTokens []timeseries.CumulativePoint `json:"cumulative_tokens"`
	ErrorLogs        []ErrorLogView               `json:"error_logs"`
	Warnings         []string                     `json:"warnings,omitempty"`
}

// Selectors describes the fixed selector universe for the UI.
type Selectors struct {
	ProjectUniverse []string          `json:"project_universe"`
	DefaultIncluded []string          `json:"default_included"`
	Groupings       []models.Grouping `json:"groupings"`
}

// Service renders the dashboard from selector state.
type Service struct {
	gateway  QueryGateway
	universe []string
	defaults []string
}

// New creates a dashboard service over the given gateway.
func New(gateway QueryGateway, cfg config.DashboardConfig) *Service {
	return &Service{
		gateway:  gateway,
		universe: cfg.ProjectUniverse,
		defaults: cfg.DefaultIncluded,
	}
}

// Selectors returns the selector universe for the UI.
func (s *Service) Selectors() Selectors {
	return Selectors{
		ProjectUniverse: s.universe,
		DefaultIncluded: s.defaults,
		Groupings:       []models.Grouping{models.GroupByProject, models.GroupByDevice, models.GroupByEvent},
	}
}

// Normalize fills selection defaults and discards unknown projects.
func (s *Service) Normalize(sel Selection) Selection {
	if sel.GroupBy == "" {
		sel.GroupBy = models.GroupByProject
	}
	if sel.IncludedProjects == nil {
		sel.IncludedProjects = append([]string(nil), s.defaults...)
	} else {
		known := make(map[string]struct{}, len(s.universe))
		for _, p := range s.universe {
			known[p] = struct{}{}
		}
		kept := make([]string, 0, len(sel.IncludedProjects))
		for _, p := range sel.IncludedProjects {
			if _, ok := known[p]; ok {
				kept = append(kept, p)
			}
		}
		sel.IncludedProjects = kept
	}
	return sel
}

// DenyList converts the inclusion selection into the filter_out_projects
// denylist, preserving universe order.
func (s *Service) DenyList(included []string) []string {
	selected := make(map[string]struct{}, len(included))
	for _, p := range included {
		selected[p] = struct{}{}
	}
	denied := make([]string, 0, len(s.universe))
	for _, p := range s.universe {
		if _, ok := selected[p]; !ok {
			denied = append(denied, p)
		}
	}
	return denied
}

// Render performs one full dashboard render for the given selection.
// Backend failures never abort the render: each degraded table surfaces
// as a warning and its charts are omitted.
func (s *Service) Render(ctx context.Context, sel Selection) *ViewModel {
	start := time.Now()
	sel = s.Normalize(sel)

	vm := &ViewModel{
		GroupBy:          sel.GroupBy,
		IncludedProjects: sel.IncludedProjects,
		CumulativeTokens: []timeseries.CumulativePoint{},
		ErrorLogs:        []ErrorLogView{},
	}

	if sel.GroupBy == models.GroupByDevice {
		vm.warn(deviceTelemetryCaveat)
	}

	params := models.RPCParams{FilterOutProjects: s.DenyList(sel.IncludedProjects)}

	s.renderRateCharts(ctx, sel.GroupBy, params, vm)
	s.renderTokenCharts(ctx, params, vm)
	s.renderErrorLogs(ctx, params, vm)

	metrics.RenderDuration.WithLabelValues(string(sel.GroupBy)).Observe(time.Since(start).Seconds())
	metrics.RenderWarnings.WithLabelValues(string(sel.GroupBy)).Add(float64(len(vm.Warnings)))
	return vm
}

func (vm *ViewModel) warn(message string) {
	if message != "" {
		vm.Warnings = append(vm.Warnings, message)
	}
}

func (s *Service) renderRateCharts(ctx context.Context, grouping models.Grouping, params models.RPCParams, vm *ViewModel) {
	rows, warning := s.gateway.RateRows(ctx, grouping, params)
	vm.warn(warning)
	if len(rows) == 0 && warning == "" {
		vm.warn(fmt.Sprintf("Could not load %s rates.", grouping))
	}

	countField := grouping.CountColumn()
	records := rateRecords(rows, grouping, countField)
	suffix := chartSuffix(grouping)
	groupTitle := charts.FieldTitle(string(grouping))

	spec, w := charts.StackedBar(records, "time", countField, "framework",
		fmt.Sprintf("Daily %s Count", groupTitle), fmt.Sprintf("%s Count", groupTitle), "")
	vm.DailyCount = spec
	vm.warn(w)

	spec, w = charts.Line(records, "time", "success_rate", "framework",
		"Daily Success Rate "+suffix, "Success Rate (%)", "%")
	vm.SuccessRate = spec
	vm.warn(w)

	spec, w = charts.Line(records, "time", "error_rate", "framework",
		"Daily Error Rate "+suffix, "Error Rate (%)", "%")
	vm.ErrorRate = spec
	vm.warn(w)
}

func (s *Service) renderTokenCharts(ctx context.Context, params models.RPCParams, vm *ViewModel) {
	rows, warning := s.gateway.TokenRows(ctx, params)
	vm.warn(warning)
	if len(rows) == 0 {
		if warning == "" {
			vm.warn("Could not load cumulative tokens.")
		}
		return
	}

	// Densify to fix gaps in the cumulative chart: full daily grid per
	// device manufacturer, zeros filled, running total per device.
	dense := timeseries.DensifyAndAccumulate(tokenPoints(rows))
	vm.CumulativeTokens = dense

	spec, w := charts.StackedBar(tokenRecords(dense), "time", "tokens_generated", "device_manufacturer",
		"Daily Tokens Generated", "Tokens Generated", "")
	vm.DailyTokens = spec
	vm.warn(w)
}

func (s *Service) renderErrorLogs(ctx context.Context, params models.RPCParams, vm *ViewModel) {
	entries, warning := s.gateway.ErrorLogs(ctx, params)
	vm.warn(warning)
	if len(entries) == 0 {
		if warning == "" {
			vm.warn("No error logs to display.")
		}
		return
	}

	views := make([]ErrorLogView, len(entries))
	for i, entry := range entries {
		views[i] = ErrorLogView{
			Title:         errorLogTitle(entry),
			ErrorLogEntry: entry,
		}
	}
	vm.ErrorLogs = views
}

// errorLogTitle renders the one-line summary shown for a collapsed log
// entry: "[FLUTTER] model load failed | Count: 42 | Last seen: 2 days ago".
func errorLogTitle(entry models.ErrorLogEntry) string {
	message := entry.Payload.Message
	if message == "" {
		message = "No message found"
	}
	return fmt.Sprintf("[%s] %s | Count: %d | Last seen: %s",
		strings.ToUpper(entry.Framework), message, entry.Errors, entry.LastSeenSummary)
}

func chartSuffix(grouping models.Grouping) string {
	return fmt.Sprintf("(by %s)", charts.FieldTitle(string(grouping)))
}

// rateRecords converts typed rate rows into the generic records chart
// specs embed, exposing only the columns the charts bind.
func rateRecords(rows []models.RateRow, grouping models.Grouping, countField string) []map[string]interface{} {
	records := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		records[i] = map[string]interface{}{
			"time":         row.Time.String(),
			"framework":    row.Framework,
			"success_rate": row.SuccessRate,
			"error_rate":   row.ErrorRate,
			countField:     row.Count(grouping),
		}
	}
	return records
}

// tokenPoints adapts typed token rows to densifier points.
func tokenPoints(rows []models.TokenRow) []timeseries.Point {
	points := make([]timeseries.Point, len(rows))
	for i, row := range rows {
		points[i] = timeseries.Point{
			Date:     row.Time,
			Category: row.DeviceManufacturer,
			Value:    row.TokensGenerated,
		}
	}
	return points
}

// tokenRecords converts the dense cumulative grid into chart records.
func tokenRecords(dense []timeseries.CumulativePoint) []map[string]interface{} {
	records := make([]map[string]interface{}, len(dense))
	for i, cp := range dense {
		records[i] = map[string]interface{}{
			"time":                cp.Date.String(),
			"device_manufacturer": cp.Category,
			"tokens_generated":    cp.Value,
			"cumulative_tokens":   cp.Cumulative,
		}
	}
	return records
}
