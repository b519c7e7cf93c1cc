// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints.
//
// Status is "success" or "error". Data carries the payload on success;
// Error is populated only on failure. Warnings carry user-visible,
// non-fatal conditions (a backend call that failed and degraded to an
// empty table, a chart omitted for lack of data).
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Warnings []string    `json:"warnings,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError carries a machine-readable code plus a human-readable message.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
