// Package export serializes the filtered canonical table for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"compras/internal/core"
)

// Filename is the fixed name the processed CSV is offered under.
const Filename = "compras_publicas_procesado.csv"

var header = []string{"internal_type", "month", "year", "date", "total", "contracts", "province"}

// WriteCSV writes the table as UTF-8 CSV with a header row. Missing fields
// become empty cells so the distinction from zero survives the export.
func WriteCSV(w io.Writer, table []core.CanonicalRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, rec := range table {
		row := []string{
			rec.InternalType,
			intCell(rec.Month, rec.HasMonth()),
			strconv.Itoa(rec.Year),
			dateCell(rec),
			floatCell(rec.Total, rec.HasTotal),
			intCell(rec.Contracts, rec.HasContracts),
			rec.Province,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func intCell(v int, present bool) string {
	if !present {
		return ""
	}
	return strconv.Itoa(v)
}

func floatCell(v float64, present bool) string {
	if !present {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dateCell(rec core.CanonicalRecord) string {
	if !rec.HasDate() {
		return ""
	}
	return rec.Date.Format("2006-01-02")
}
