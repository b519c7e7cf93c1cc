// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/rshemet/cactus-dashboard/internal/cache"
	"github.com/rshemet/cactus-dashboard/internal/config"
	"github.com/rshemet/cactus-dashboard/internal/dashboard"
	"github.com/rshemet/cactus-dashboard/internal/models"
)

// fakeGateway returns canned rows and records the parameters of the
// last call so tests can assert on the denylist wiring.
type fakeGateway struct {
	rateRows   []models.RateRow
	tokenRows  []models.TokenRow
	errorLogs  []models.ErrorLogEntry
	lastParams models.RPCParams
}

func (f *fakeGateway) RateRows(_ context.Context, _ models.Grouping, params models.RPCParams) ([]models.RateRow, string) {
	f.lastParams = params
	return f.rateRows, ""
}

func (f *fakeGateway) TokenRows(_ context.Context, params models.RPCParams) ([]models.TokenRow, string) {
	f.lastParams = params
	return f.tokenRows, ""
}

func (f *fakeGateway) ErrorLogs(_ context.Context, params models.RPCParams) ([]models.ErrorLogEntry, string) {
	f.lastParams = params
	return f.errorLogs, ""
}

func testDashboardConfig() config.DashboardConfig {
	return config.DashboardConfig{
		ProjectUniverse: []string{"kin_ai", "cactus_chat", "other"},
		DefaultIncluded: []string{"other"},
	}
}

func newTestRouter(t *testing.T, gw *fakeGateway) http.Handler {
	t.Helper()
	service := dashboard.New(gw, testDashboardConfig())
	c := cache.New(0)
	return NewRouter(NewHandler(service, c.GetStats))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response envelope: %v", err)
	}
	return resp
}

func TestDashboardEndpoint(t *testing.T) {
	gw := &fakeGateway{}
	router := newTestRouter(t, gw)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?group_by=device&included_projects=kin_ai,other", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("expected ETag header")
	}

	resp := decodeEnvelope(t, rec)
	if resp.Status != "success" {
		t.Fatalf("status = %q, want success", resp.Status)
	}

	vm, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is %T, want object", resp.Data)
	}
	if got := vm["group_by"]; got != "device" {
		t.Errorf("group_by = %v, want device", got)
	}

	// kin_ai and other included, so only cactus_chat is filtered out.
	if got := gw.lastParams.FilterOutProjects; len(got) != 1 || got[0] != "cactus_chat" {
		t.Errorf("filter_out_projects = %v, want [cactus_chat]", got)
	}
}

func TestDashboardDefaultsWhenNoParams(t *testing.T) {
	gw := &fakeGateway{}
	router := newTestRouter(t, gw)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	resp := decodeEnvelope(t, rec)
	vm := resp.Data.(map[string]interface{})
	if got := vm["group_by"]; got != "project" {
		t.Errorf("group_by = %v, want project", got)
	}

	// Default selection is [other], so kin_ai and cactus_chat are denied.
	want := map[string]bool{"kin_ai": true, "cactus_chat": true}
	if len(gw.lastParams.FilterOutProjects) != 2 {
		t.Fatalf("filter_out_projects = %v, want 2 entries", gw.lastParams.FilterOutProjects)
	}
	for _, p := range gw.lastParams.FilterOutProjects {
		if !want[p] {
			t.Errorf("unexpected denied project %q", p)
		}
	}
}

func TestDashboardRejectsInvalidGroupBy(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?group_by=framework", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	resp := decodeEnvelope(t, rec)
	if resp.Status != "error" {
		t.Errorf("status = %q, want error", resp.Status)
	}
	if resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want code VALIDATION_ERROR", resp.Error)
	}
}

func TestSelectorsEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/selectors", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})

	universe, ok := data["project_universe"].([]interface{})
	if !ok || len(universe) != 3 {
		t.Fatalf("project_universe = %v, want 3 entries", data["project_universe"])
	}
	groupings, ok := data["groupings"].([]interface{})
	if !ok || len(groupings) != 3 {
		t.Fatalf("groupings = %v, want 3 entries", data["groupings"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	if got := data["status"]; got != "ok" {
		t.Errorf("health status = %v, want ok", got)
	}
	if _, ok := data["result_cache"]; !ok {
		t.Error("expected result_cache in health payload")
	}
}

func TestParseProjectsParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"absent means defaults", "", nil},
		{"explicit empty", "included_projects=", []string{}},
		{"single", "included_projects=other", []string{"other"}},
		{"comma separated with spaces", "included_projects=kin_ai,%20other", []string{"kin_ai", "other"}},
		{"repeated parameter", "included_projects=kin_ai&included_projects=other", []string{"kin_ai", "other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard?"+tt.query, nil)
			got := parseProjectsParam(req)

			if (got == nil) != (tt.want == nil) {
				t.Fatalf("parseProjectsParam() = %v, want %v", got, tt.want)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseProjectsParam() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseProjectsParam()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRequestIDHeaderPropagated(t *testing.T) {
	router := newTestRouter(t, &fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header on response")
	}
}

func TestGenerateETagStable(t *testing.T) {
	a := generateETag([]byte(`{"status":"success"}`))
	b := generateETag([]byte(`{"status":"success"}`))
	c := generateETag([]byte(`{"status":"error"}`))

	if a != b {
		t.Errorf("same payload produced different ETags: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different payloads produced the same ETag %q", a)
	}
}
