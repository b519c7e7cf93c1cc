// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

// Package models defines the typed row schemas for each remote procedure
// the dashboard consumes, plus the API response envelope.
//
// Each remote procedure has an explicit record type validated at the query
// gateway boundary, so a missing or renamed backend column fails fast
// instead of propagating zero values into chart construction.
package models

// Grouping is the user-selectable dimension the rate procedures group by.
type Grouping string

const (
	GroupByProject Grouping = "project"
	GroupByDevice  Grouping = "device"
	GroupByEvent   Grouping = "event"
)

// Valid reports whether g is one of the known grouping dimensions.
func (g Grouping) Valid() bool {
	switch g {
	case GroupByProject, GroupByDevice, GroupByEvent:
		return true
	}
	return false
}

// Procedure returns the remote procedure name serving this grouping.
func (g Grouping) Procedure() string {
	switch g {
	case GroupByDevice:
		return "get_device_error_rate"
	case GroupByEvent:
		return "get_event_error_rate"
	default:
		return "get_project_error_rate"
	}
}

// CountColumn returns the name of the count column the grouping's rate
// procedure returns ("projects", "devices" or "events").
func (g Grouping) CountColumn() string {
	switch g {
	case GroupByDevice:
		return "devices"
	case GroupByEvent:
		return "events"
	default:
		return "projects"
	}
}

// RateRow is one row of the daily error/success rate procedures
// (get_project_error_rate, get_device_error_rate, get_event_error_rate).
// The backend names the time column "t"; exactly one of the count columns
// is populated depending on which procedure produced the row.
type RateRow struct {
	Time        Day     `json:"t" validate:"required"`
	Framework   string  `json:"framework" validate:"required"`
	SuccessRate float64 `json:"success_rate" validate:"gte=0"`
	ErrorRate   float64 `json:"error_rate" validate:"gte=0"`
	Projects    float64 `json:"projects,omitempty"`
	Devices     float64 `json:"devices,omitempty"`
	Events      float64 `json:"events,omitempty"`
}

// Count returns the value of the grouping's count column.
func (r RateRow) Count(g Grouping) float64 {
	switch g {
	case GroupByDevice:
		return r.Devices
	case GroupByEvent:
		return r.Events
	default:
		return r.Projects
	}
}

// TokenRow is one row of get_generated_tokens_new: tokens generated per
// day per device manufacturer. Sparse; the densifier fills the gaps.
type TokenRow struct {
	Time               Day     `json:"t" validate:"required"`
	DeviceManufacturer string  `json:"device_manufacturer" validate:"required"`
	TokensGenerated    float64 `json:"tokens_generated" validate:"gte=0"`
}

// ErrorPayload is the nested error detail inside an error log row.
type ErrorPayload struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// ErrorLogEntry is one row of get_error_logs. Read-only; rendered as-is
// with no transformation.
type ErrorLogEntry struct {
	Framework       string       `json:"framework" validate:"required"`
	Errors          int64        `json:"errors" validate:"gte=0"`
	FirstSeen       string       `json:"first_seen"`
	LastSeen        string       `json:"last_seen"`
	LastSeenSummary string       `json:"last_seen_summary"`
	Payload         ErrorPayload `json:"error_payload"`
}

// RPCParams is the parameter mapping sent to the rate and token procedures.
// FilterOutProjects is a denylist of project identifiers to exclude,
// derived from the user's inclusion selection against the fixed universe.
type RPCParams struct {
	FilterOutProjects []string `json:"filter_out_projects"`
}
