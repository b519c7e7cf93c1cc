// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

package models

import (
	"fmt"
	"strings"
	"time"
)

// DayFormat is the wire format for calendar dates.
const DayFormat = "2006-01-02"

// Day is a calendar date with daily granularity. The backend returns time
// columns either as bare dates or as timestamps; both decode to a Day
// truncated to UTC midnight.
type Day struct {
	time.Time
}

// NewDay returns the Day containing t (UTC).
func NewDay(t time.Time) Day {
	u := t.UTC()
	return Day{Time: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a date in "2006-01-02" form, or any RFC3339 timestamp,
// truncating to the calendar day.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DayFormat, s); err == nil {
		return NewDay(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDay(t), nil
	}
	// Postgres timestamp without zone, e.g. "2024-01-01T00:00:00"
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return NewDay(t), nil
	}
	return Day{}, fmt.Errorf("cannot parse %q as a calendar date", s)
}

// Next returns the following calendar day.
func (d Day) Next() Day {
	return Day{Time: d.Time.AddDate(0, 0, 1)}
}

// Before reports whether d is an earlier day than other.
func (d Day) Before(other Day) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is a later day than other.
func (d Day) After(other Day) bool {
	return d.Time.After(other.Time)
}

// String returns the date in "2006-01-02" form.
func (d Day) String() string {
	return d.Time.Format(DayFormat)
}

// MarshalJSON encodes the date as "2006-01-02".
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a date or timestamp string into a Day.
func (d *Day) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
