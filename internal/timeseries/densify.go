// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

// Package timeseries reshapes sparse daily metric tables for charting.
//
// Sparse (date, category, value) rows leave gaps in cumulative charts: a
// category with no row on a given day simply vanishes from the series.
// DensifyAndAccumulate repairs this by expanding the input to the full
// cross product of observed dates and categories, filling absent cells
// with zero, and computing a running per-category total.
package timeseries

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/rshemet/cactus-dashboard/internal/models"
)

// Point is one (date, category, value) observation.
type Point struct {
	Date     models.Day `json:"date"`
	Category string     `json:"category"`
	Value    float64    `json:"value"`
}

// CumulativePoint is a dense grid cell with its running per-category total.
type CumulativePoint struct {
	Point
	Cumulative float64 `json:"cumulative"`
}

// ParseError reports a value in the date column that could not be parsed
// as a calendar date.
type ParseError struct {
	Column string
	Value  interface{}
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("column %q: cannot parse %v as a date: %v", e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TypeMismatchError reports a non-numeric entry in the value column.
// A genuinely absent value is not a mismatch; it densifies to zero.
type TypeMismatchError struct {
	Column string
	Value  interface{}
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q: expected numeric value, got %T (%v)", e.Column, e.Value, e.Value)
}

// FromRecords extracts points from loosely-typed records, such as rows
// decoded from a backend response. Malformed dates and non-numeric values
// fail loudly rather than being coerced; silent coercion would corrupt
// the cumulative sums downstream.
func FromRecords(rows []map[string]interface{}, dateCol, categoryCol, valueCol string) ([]Point, error) {
	points := make([]Point, 0, len(rows))
	for _, row := range rows {
		date, err := parseDate(row[dateCol], dateCol)
		if err != nil {
			return nil, err
		}

		value, err := parseNumeric(row[valueCol], valueCol)
		if err != nil {
			return nil, err
		}

		points = append(points, Point{
			Date:     date,
			Category: categoryValue(row[categoryCol]),
			Value:    value,
		})
	}
	return points, nil
}

func parseDate(raw interface{}, column string) (models.Day, error) {
	s, ok := raw.(string)
	if !ok {
		return models.Day{}, &ParseError{Column: column, Value: raw, Err: fmt.Errorf("expected string, got %T", raw)}
	}
	day, err := models.ParseDay(s)
	if err != nil {
		return models.Day{}, &ParseError{Column: column, Value: raw, Err: err}
	}
	return day, nil
}

func parseNumeric(raw interface{}, column string) (float64, error) {
	switch v := raw.(type) {
	case nil:
		// Absent value densifies to zero by contract.
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, &TypeMismatchError{Column: column, Value: raw}
		}
		return f, nil
	default:
		return 0, &TypeMismatchError{Column: column, Value: raw}
	}
}

// categoryValue renders a category cell as an opaque string key.
func categoryValue(raw interface{}) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprint(raw)
}

type cell struct {
	date     string
	category string
}

// DensifyAndAccumulate produces the dense daily grid over the input's
// observed date range and category set, with a running cumulative sum per
// category:
//
//  1. Every calendar day in [min(date), max(date)] appears exactly once
//     per observed category, including days with no source rows.
//  2. Duplicate (date, category) rows are summed, not overwritten.
//  3. Absent combinations get value 0.
//  4. Output is sorted by (category, date) ascending, and Cumulative is
//     the prefix sum of Value within each category partition.
//
// Output row count is |days| x |categories|. Empty input yields an empty
// (non-nil) result.
func DensifyAndAccumulate(points []Point) []CumulativePoint {
	if len(points) == 0 {
		return []CumulativePoint{}
	}

	minDate, maxDate := points[0].Date, points[0].Date
	sums := make(map[cell]float64, len(points))
	categorySet := make(map[string]struct{})

	for _, p := range points {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}
		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
		categorySet[p.Category] = struct{}{}
		sums[cell{date: p.Date.String(), category: p.Category}] += p.Value
	}

	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	days := enumerateDays(minDate, maxDate)

	out := make([]CumulativePoint, 0, len(days)*len(categories))
	for _, category := range categories {
		running := 0.0
		for _, day := range days {
			value := sums[cell{date: day.String(), category: category}]
			running += value
			out = append(out, CumulativePoint{
				Point:      Point{Date: day, Category: category, Value: value},
				Cumulative: running,
			})
		}
	}
	return out
}

// enumerateDays lists every calendar day from first to last inclusive.
func enumerateDays(first, last models.Day) []models.Day {
	var days []models.Day
	for d := first; !d.After(last); d = d.Next() {
		days = append(days, d)
	}
	return days
}
