// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestParseDayFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare date", "2024-01-01", "2024-01-01"},
		{"rfc3339", "2024-01-01T15:30:00Z", "2024-01-01"},
		{"rfc3339 with offset", "2024-01-02T01:30:00+05:00", "2024-01-01"},
		{"postgres timestamp", "2024-03-15T00:00:00", "2024-03-15"},
		{"surrounding whitespace", " 2024-01-01 ", "2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDay(tt.input)
			if err != nil {
				t.Fatalf("ParseDay(%q) error: %v", tt.input, err)
			}
			if d.String() != tt.want {
				t.Errorf("ParseDay(%q) = %s, want %s", tt.input, d, tt.want)
			}
		})
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	for _, input := range []string{"not-a-date", "01/02/2024", "2024-13-45", ""} {
		if _, err := ParseDay(input); err == nil {
			t.Errorf("ParseDay(%q) = nil error, want parse failure", input)
		}
	}
}

func TestDayNextCrossesMonthBoundary(t *testing.T) {
	d, _ := ParseDay("2024-01-31")
	if got := d.Next().String(); got != "2024-02-01" {
		t.Errorf("Next() = %s, want 2024-02-01", got)
	}
}

func TestDayJSONRoundTrip(t *testing.T) {
	d := NewDay(time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC))

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `"2024-06-15"` {
		t.Errorf("Marshal = %s, want \"2024-06-15\"", data)
	}

	var back Day
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip = %s, want %s", back, d)
	}
}

func TestRateRowDecodesBackendColumns(t *testing.T) {
	raw := `{"t":"2024-01-01","framework":"flutter","success_rate":0.98,"error_rate":0.02,"projects":12}`

	var row RateRow
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if row.Time.String() != "2024-01-01" {
		t.Errorf("Time = %s, want 2024-01-01", row.Time)
	}
	if row.Framework != "flutter" {
		t.Errorf("Framework = %q, want flutter", row.Framework)
	}
	if row.Count(GroupByProject) != 12 {
		t.Errorf("Count(project) = %f, want 12", row.Count(GroupByProject))
	}
}

func TestGroupingRouting(t *testing.T) {
	tests := []struct {
		g         Grouping
		procedure string
		column    string
	}{
		{GroupByProject, "get_project_error_rate", "projects"},
		{GroupByDevice, "get_device_error_rate", "devices"},
		{GroupByEvent, "get_event_error_rate", "events"},
	}

	for _, tt := range tests {
		if got := tt.g.Procedure(); got != tt.procedure {
			t.Errorf("%s.Procedure() = %q, want %q", tt.g, got, tt.procedure)
		}
		if got := tt.g.CountColumn(); got != tt.column {
			t.Errorf("%s.CountColumn() = %q, want %q", tt.g, got, tt.column)
		}
	}

	if Grouping("framework").Valid() {
		t.Error("unexpected grouping accepted")
	}
}

func TestErrorLogEntryDecodesNestedPayload(t *testing.T) {
	raw := `{"framework":"react_native","errors":42,"first_seen":"2024-01-01T08:00:00Z",` +
		`"last_seen":"2024-01-05T09:30:00Z","last_seen_summary":"2 days ago",` +
		`"error_payload":{"message":"model load failed","stack":"at loadModel()"}}`

	var entry ErrorLogEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if entry.Errors != 42 {
		t.Errorf("Errors = %d, want 42", entry.Errors)
	}
	if entry.Payload.Message != "model load failed" {
		t.Errorf("Payload.Message = %q", entry.Payload.Message)
	}
	if entry.Payload.Stack == "" {
		t.Error("Payload.Stack should be populated")
	}
}
