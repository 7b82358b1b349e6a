package core

// CategoryTotal is a summed monetary amount for one contracting type.
type CategoryTotal struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// MonthTotal is a summed monetary amount for one calendar month.
type MonthTotal struct {
	Month int     `json:"month"`
	Total float64 `json:"total"`
}

// Pivot is a dense category-by-month matrix of summed totals. Categories are
// the row keys (ascending by name), Months the column keys (ascending), and
// Cells[i][j] holds the total for Categories[i] in Months[j], 0 when the
// combination does not occur.
type Pivot struct {
	Categories []string    `json:"categories"`
	Months     []int       `json:"months"`
	Cells      [][]float64 `json:"cells"`
}

// ScatterPoint is one contracts/total pair for correlation plots.
type ScatterPoint struct {
	Contracts    int     `json:"contracts"`
	Total        float64 `json:"total"`
	InternalType string  `json:"internal_type"`
}

// KPISummary holds the headline indicators for a filtered view. Mean and Max
// are computed only over records that carry a total; nil means undefined
// (no eligible records) and serializes as JSON null, never NaN.
type KPISummary struct {
	Count int      `json:"count"`
	Sum   float64  `json:"sum"`
	Mean  *float64 `json:"mean"`
	Max   *float64 `json:"max"`
}
