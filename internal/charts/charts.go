// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

// Package charts builds declarative Vega-Lite chart specifications from
// tabular results. Builders are pure: they construct a description of the
// chart and never render anything.
//
// An empty input table is a valid, displayable empty state, not a
// failure: builders return a nil spec plus a user-visible warning, and
// callers render the warning in place of the chart.
package charts

import (
	"strings"
)

// SchemaURL identifies the Vega-Lite dialect of the emitted specs.
const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// TimeAxisFormat is the x-axis tick label format (e.g. "Jan 02").
const TimeAxisFormat = "%b %d"

// ChartSpec is a declarative Vega-Lite chart description with inline data.
type ChartSpec struct {
	Schema   string   `json:"$schema"`
	Title    string   `json:"title"`
	Mark     Mark     `json:"mark"`
	Data     Data     `json:"data"`
	Encoding Encoding `json:"encoding"`
}

// Mark selects the chart geometry.
type Mark struct {
	Type    string `json:"type"` // "bar" or "line"
	Tooltip bool   `json:"tooltip,omitempty"`
}

// Data carries the chart's rows inline.
type Data struct {
	Values []map[string]interface{} `json:"values"`
}

// Encoding binds table columns to visual channels.
type Encoding struct {
	X       FieldDef     `json:"x"`
	Y       FieldDef     `json:"y"`
	Color   *ColorDef    `json:"color,omitempty"`
	Tooltip []TooltipDef `json:"tooltip,omitempty"`
}

// FieldDef binds one column to a positional channel.
type FieldDef struct {
	Field     string `json:"field"`
	Type      string `json:"type"` // "temporal", "quantitative", "nominal"
	TimeUnit  string `json:"timeUnit,omitempty"`
	Aggregate string `json:"aggregate,omitempty"`
	Title     string `json:"title,omitempty"`
	Axis      *Axis  `json:"axis,omitempty"`
	Stack     *bool  `json:"stack,omitempty"`
}

// ColorDef binds the category column to the color channel.
type ColorDef struct {
	Field  string  `json:"field"`
	Type   string  `json:"type"`
	Legend *Legend `json:"legend,omitempty"`
}

// Legend configures the color legend.
type Legend struct {
	Title string `json:"title"`
}

// Axis configures tick label formatting.
type Axis struct {
	Format string `json:"format,omitempty"`
}

// TooltipDef names one column shown in the hover tooltip.
type TooltipDef struct {
	Field     string `json:"field"`
	Aggregate string `json:"aggregate,omitempty"`
	Title     string `json:"title,omitempty"`
}

// StackedBar builds a stacked bar chart: x = time at day granularity,
// y = sum of valueField per day, color/stack = categoryField. Returns a
// nil spec and a warning when rows is empty.
func StackedBar(rows []map[string]interface{}, timeField, valueField, categoryField, title, yAxisTitle, yAxisFormat string) (*ChartSpec, string) {
	if len(rows) == 0 {
		return nil, "No data for: " + title
	}

	spec := baseSpec(rows, "bar", timeField, categoryField, title)
	spec.Encoding.Y = FieldDef{
		Field:     valueField,
		Type:      "quantitative",
		Aggregate: "sum",
		Title:     yAxisTitle,
		Axis:      axisFormat(yAxisFormat),
	}
	spec.Encoding.Tooltip = []TooltipDef{
		{Field: timeField},
		{Field: valueField, Aggregate: "sum"},
		{Field: categoryField},
	}
	return spec, ""
}

// Line builds a line chart: x = time at day granularity, y = raw value,
// one colored series per category. Returns a nil spec and a warning when
// rows is empty.
func Line(rows []map[string]interface{}, timeField, valueField, categoryField, title, yAxisTitle, yAxisFormat string) (*ChartSpec, string) {
	if len(rows) == 0 {
		return nil, "No data for: " + title
	}

	spec := baseSpec(rows, "line", timeField, categoryField, title)
	spec.Encoding.Y = FieldDef{
		Field: valueField,
		Type:  "quantitative",
		Title: yAxisTitle,
		Axis:  axisFormat(yAxisFormat),
	}
	spec.Encoding.Tooltip = []TooltipDef{
		{Field: timeField},
		{Field: valueField},
		{Field: categoryField},
	}
	return spec, ""
}

func baseSpec(rows []map[string]interface{}, markType, timeField, categoryField, title string) *ChartSpec {
	return &ChartSpec{
		Schema: SchemaURL,
		Title:  title,
		Mark:   Mark{Type: markType, Tooltip: true},
		Data:   Data{Values: rows},
		Encoding: Encoding{
			X: FieldDef{
				Field:    timeField,
				Type:     "temporal",
				TimeUnit: "yearmonthdate",
				Title:    "Time",
				Axis:     &Axis{Format: TimeAxisFormat},
			},
			Color: &ColorDef{
				Field:  categoryField,
				Type:   "nominal",
				Legend: &Legend{Title: FieldTitle(categoryField)},
			},
		},
	}
}

func axisFormat(format string) *Axis {
	if format == "" {
		return nil
	}
	return &Axis{Format: format}
}

// FieldTitle turns a snake_case column name into a display title,
// e.g. "device_manufacturer" -> "Device Manufacturer".
func FieldTitle(field string) string {
	words := strings.Split(field, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
