package core

import (
	"encoding/json"
	"time"
)

const (
	// CategoryUnspecified is the category assigned to records whose source
	// row carries no internal_type, so grouping never silently drops rows.
	CategoryUnspecified = "No especificado"

	// ProvinceUnknown is the province used when neither the record nor the
	// fetch parameters name one.
	ProvinceUnknown = "Desconocido"
)

// RawRecord is one source row as decoded from JSON: field names mapped to
// string, json.Number, bool, nil or nested values. No schema is assumed;
// the normalizer is the only place field meanings are interpreted.
// A nil RawRecord marks a row that was not a JSON object.
type RawRecord map[string]any

// CanonicalRecord is a procurement entry in the fixed schema. Missing is a
// distinct state from zero: Month 0, a zero Date and the Has* flags mark
// fields the source did not provide or that could not be coerced.
type CanonicalRecord struct {
	InternalType string
	Month        int // 1-12, 0 when missing
	Year         int
	Date         time.Time // first day of Year-Month, zero when missing
	Total        float64
	HasTotal     bool
	Contracts    int
	HasContracts bool
	Province     string
}

// HasMonth reports whether the record carries a valid month.
func (r CanonicalRecord) HasMonth() bool {
	return r.Month >= 1 && r.Month <= 12
}

// HasDate reports whether a date could be synthesized for the record.
func (r CanonicalRecord) HasDate() bool {
	return !r.Date.IsZero()
}

// MarshalJSON emits null for missing month/date/total/contracts so the
// presentation shell can tell missing apart from zero.
func (r CanonicalRecord) MarshalJSON() ([]byte, error) {
	type row struct {
		InternalType string   `json:"internal_type"`
		Month        *int     `json:"month"`
		Year         int      `json:"year"`
		Date         *string  `json:"date"`
		Total        *float64 `json:"total"`
		Contracts    *int     `json:"contracts"`
		Province     string   `json:"province"`
	}
	out := row{
		InternalType: r.InternalType,
		Year:         r.Year,
		Province:     r.Province,
	}
	if r.HasMonth() {
		m := r.Month
		out.Month = &m
	}
	if r.HasDate() {
		d := r.Date.Format("2006-01-02")
		out.Date = &d
	}
	if r.HasTotal {
		t := r.Total
		out.Total = &t
	}
	if r.HasContracts {
		c := r.Contracts
		out.Contracts = &c
	}
	return json.Marshal(out)
}

// NewDate builds the first calendar day of the given year and month in UTC.
func NewDate(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
