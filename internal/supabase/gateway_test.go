// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

package supabase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/rshemet/cactus-dashboard/internal/models"
)

// fakeRPC returns canned JSON per procedure and counts calls.
type fakeRPC struct {
	responses map[string]string
	err       error
	calls     map[string]int
}

func newFakeRPC() *fakeRPC {
	return &fakeRPC{
		responses: make(map[string]string),
		calls:     make(map[string]int),
	}
}

func (f *fakeRPC) Call(_ context.Context, procedure string, _ interface{}, result interface{}) error {
	f.calls[procedure]++
	if f.err != nil {
		return f.err
	}
	raw, ok := f.responses[procedure]
	if !ok {
		raw = "[]"
	}
	return json.Unmarshal([]byte(raw), result)
}

func TestGatewayRateRowsSuccess(t *testing.T) {
	rpc := newFakeRPC()
	rpc.responses["get_project_error_rate"] = `[
		{"t":"2024-01-01","framework":"flutter","success_rate":0.95,"error_rate":0.05,"projects":7}
	]`
	gw := NewGateway(rpc, time.Minute)

	rows, warning := gw.RateRows(context.Background(), models.GroupByProject, models.RPCParams{})
	if warning != "" {
		t.Fatalf("warning = %q, want none", warning)
	}
	if len(rows) != 1 || rows[0].Count(models.GroupByProject) != 7 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestGatewayFailureYieldsEmptyTableAndWarning(t *testing.T) {
	rpc := newFakeRPC()
	rpc.err = errors.New("connection refused")
	gw := NewGateway(rpc, time.Minute)

	rows, warning := gw.TokenRows(context.Background(), models.RPCParams{})
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %v, want empty non-nil slice", rows)
	}
	if !strings.Contains(warning, "get_generated_tokens_new") {
		t.Errorf("warning = %q, want procedure name", warning)
	}
}

func TestGatewayCachesSuccessfulResults(t *testing.T) {
	rpc := newFakeRPC()
	rpc.responses["get_error_logs"] = `[
		{"framework":"flutter","errors":3,"first_seen":"2024-01-01T00:00:00Z",
		 "last_seen":"2024-01-02T00:00:00Z","last_seen_summary":"1 day ago",
		 "error_payload":{"message":"boom"}}
	]`
	gw := NewGateway(rpc, time.Minute)

	params := models.RPCParams{FilterOutProjects: []string{"kin_ai"}}
	first, _ := gw.ErrorLogs(context.Background(), params)
	second, _ := gw.ErrorLogs(context.Background(), params)

	if rpc.calls["get_error_logs"] != 1 {
		t.Errorf("backend calls = %d, want 1 (second served from cache)", rpc.calls["get_error_logs"])
	}
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("rows: first=%d second=%d, want 1 each", len(first), len(second))
	}
}

func TestGatewayCacheKeyedByParams(t *testing.T) {
	rpc := newFakeRPC()
	gw := NewGateway(rpc, time.Minute)

	ctx := context.Background()
	gw.RateRows(ctx, models.GroupByProject, models.RPCParams{FilterOutProjects: []string{"kin_ai"}})
	gw.RateRows(ctx, models.GroupByProject, models.RPCParams{FilterOutProjects: []string{"cactus_chat"}})

	if rpc.calls["get_project_error_rate"] != 2 {
		t.Errorf("backend calls = %d, want 2 (different params must not share a cache entry)",
			rpc.calls["get_project_error_rate"])
	}
}

func TestGatewayDoesNotCacheFailures(t *testing.T) {
	rpc := newFakeRPC()
	rpc.err = errors.New("timeout")
	gw := NewGateway(rpc, time.Minute)

	ctx := context.Background()
	gw.TokenRows(ctx, models.RPCParams{})
	gw.TokenRows(ctx, models.RPCParams{})

	if rpc.calls["get_generated_tokens_new"] != 2 {
		t.Errorf("backend calls = %d, want 2 (failures must not be cached)",
			rpc.calls["get_generated_tokens_new"])
	}
}

func TestGatewaySchemaViolationDegradesToWarning(t *testing.T) {
	rpc := newFakeRPC()
	// Missing the required framework column.
	rpc.responses["get_project_error_rate"] = `[
		{"t":"2024-01-01","success_rate":0.95,"error_rate":0.05,"projects":7}
	]`
	gw := NewGateway(rpc, time.Minute)

	rows, warning := gw.RateRows(context.Background(), models.GroupByProject, models.RPCParams{})
	if len(rows) != 0 {
		t.Errorf("rows = %+v, want empty for schema violation", rows)
	}
	if !strings.Contains(warning, "Malformed response") {
		t.Errorf("warning = %q", warning)
	}
}

func TestGatewayGroupingRoutesToProcedure(t *testing.T) {
	rpc := newFakeRPC()
	gw := NewGateway(rpc, time.Minute)
	ctx := context.Background()

	gw.RateRows(ctx, models.GroupByDevice, models.RPCParams{})
	gw.RateRows(ctx, models.GroupByEvent, models.RPCParams{})

	if rpc.calls["get_device_error_rate"] != 1 || rpc.calls["get_event_error_rate"] != 1 {
		t.Errorf("calls = %v, want one device and one event call", rpc.calls)
	}
}

func TestGatewayEmptyResultIsNotAWarning(t *testing.T) {
	rpc := newFakeRPC()
	gw := NewGateway(rpc, time.Minute)

	rows, warning := gw.ErrorLogs(context.Background(), models.RPCParams{})
	if warning != "" {
		t.Errorf("warning = %q, want none for an empty result", warning)
	}
	if rows == nil {
		t.Error("rows = nil, want empty slice")
	}
}
