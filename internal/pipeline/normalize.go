// Package pipeline turns raw source rows into the canonical table and
// derives the aggregate views the presentation shell renders. Every function
// here is pure: no shared state, same output for the same input.
package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"compras/internal/core"
)

// NormalizeOptions carries the context a single row cannot supply itself.
type NormalizeOptions struct {
	// FallbackYear fills records without a usable year field, normally the
	// year the fetch was parameterized with.
	FallbackYear int
	// Region, when the fetch carried a region parameter, replaces the
	// unknown-province sentinel for records without a province field.
	Region string
}

// Warning records one non-fatal coercion problem. The row is kept with the
// field marked missing.
type Warning struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// Report summarizes a normalization pass.
type Report struct {
	Rows     int       `json:"rows"`
	Skipped  int       `json:"skipped"`
	Warnings []Warning `json:"warnings"`
}

// Normalize coerces raw rows into canonical records. Well-formed mappings
// are never dropped, however many fields they miss; only rows that were not
// mappings at all (nil RawRecord) are skipped and counted. Source row order
// is preserved.
func Normalize(raw []core.RawRecord, opts NormalizeOptions) ([]core.CanonicalRecord, Report) {
	records := make([]core.CanonicalRecord, 0, len(raw))
	var report Report

	for i, row := range raw {
		if row == nil {
			report.Skipped++
			continue
		}

		fields := canonicalFields(row)
		rec := core.CanonicalRecord{
			InternalType: categoryOf(fields["internal_type"]),
			Year:         opts.FallbackYear,
			Province:     provinceOf(fields["province"], opts.Region),
		}

		if v, present := fields["year"]; present {
			if y, ok := toInt(v); ok {
				rec.Year = y
			} else {
				report.Warnings = append(report.Warnings, Warning{Row: i, Field: "year", Value: rawValue(v)})
			}
		}

		if v, present := fields["month"]; present {
			if m, ok := toInt(v); ok && m >= 1 && m <= 12 {
				rec.Month = m
			} else {
				report.Warnings = append(report.Warnings, Warning{Row: i, Field: "month", Value: rawValue(v)})
			}
		}

		// No silent zero-month: without a month there is no date.
		if rec.HasMonth() {
			rec.Date = core.NewDate(rec.Year, rec.Month)
		}

		if v, present := fields["total"]; present {
			if f, ok := toFloat(v); ok && f >= 0 {
				rec.Total = f
				rec.HasTotal = true
			} else {
				report.Warnings = append(report.Warnings, Warning{Row: i, Field: "total", Value: rawValue(v)})
			}
		}

		if v, present := fields["contracts"]; present {
			if n, ok := toInt(v); ok {
				rec.Contracts = n
				rec.HasContracts = true
			} else {
				report.Warnings = append(report.Warnings, Warning{Row: i, Field: "contracts", Value: rawValue(v)})
			}
		}

		records = append(records, rec)
	}

	report.Rows = len(records)
	return records, report
}

// canonicalFields lower-cases and trims field names. On collisions the last
// value wins.
func canonicalFields(row core.RawRecord) map[string]any {
	fields := make(map[string]any, len(row))
	for name, value := range row {
		fields[strings.ToLower(strings.TrimSpace(name))] = value
	}
	return fields
}

func categoryOf(v any) string {
	if s, ok := toText(v); ok {
		return s
	}
	return core.CategoryUnspecified
}

func provinceOf(v any, region string) string {
	if s, ok := toText(v); ok {
		return s
	}
	if region != "" {
		return region
	}
	return core.ProvinceUnknown
}

// toFloat coerces the value kinds encoding/json can produce (plus plain ints
// for convenience). Anything else is not a number.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		// ParseFloat accepts "Inf" and "NaN" spellings; those are not
		// usable totals, so they fall to missing like any other junk.
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func toText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func rawValue(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}
