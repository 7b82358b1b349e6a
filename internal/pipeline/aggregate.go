package pipeline

import (
	"sort"

	"compras/internal/core"
)

// The aggregations below are total functions over a filtered view: they
// never fail, and their output order is deterministic. A missing total
// contributes 0 to sums but is excluded from mean and max (see Summarize).

// ByCategory groups the view by internal_type and sums totals, descending by
// sum with ties broken by name ascending. Categories whose rows all miss a
// total still appear, with sum 0.
func ByCategory(view []core.CanonicalRecord) []core.CategoryTotal {
	sums := make(map[string]float64)
	for _, rec := range view {
		sums[rec.InternalType] += totalOrZero(rec)
	}

	out := make([]core.CategoryTotal, 0, len(sums))
	for name, total := range sums {
		out = append(out, core.CategoryTotal{Name: name, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ByMonth groups rows that carry a month and sums totals, ascending by
// month.
func ByMonth(view []core.CanonicalRecord) []core.MonthTotal {
	sums := make(map[int]float64)
	for _, rec := range view {
		if rec.HasMonth() {
			sums[rec.Month] += totalOrZero(rec)
		}
	}

	out := make([]core.MonthTotal, 0, len(sums))
	for month, total := range sums {
		out = append(out, core.MonthTotal{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CategoryByMonth builds the dense category-by-month pivot over rows that
// carry a month. Cells for combinations that do not occur are 0.
func CategoryByMonth(view []core.CanonicalRecord) core.Pivot {
	type cell struct {
		category string
		month    int
	}
	sums := make(map[cell]float64)
	catSet := make(map[string]struct{})
	monthSet := make(map[int]struct{})
	for _, rec := range view {
		if !rec.HasMonth() {
			continue
		}
		sums[cell{rec.InternalType, rec.Month}] += totalOrZero(rec)
		catSet[rec.InternalType] = struct{}{}
		monthSet[rec.Month] = struct{}{}
	}

	pivot := core.Pivot{
		Categories: make([]string, 0, len(catSet)),
		Months:     make([]int, 0, len(monthSet)),
	}
	for name := range catSet {
		pivot.Categories = append(pivot.Categories, name)
	}
	sort.Strings(pivot.Categories)
	for month := range monthSet {
		pivot.Months = append(pivot.Months, month)
	}
	sort.Ints(pivot.Months)

	pivot.Cells = make([][]float64, len(pivot.Categories))
	for i, name := range pivot.Categories {
		row := make([]float64, len(pivot.Months))
		for j, month := range pivot.Months {
			row[j] = sums[cell{name, month}]
		}
		pivot.Cells[i] = row
	}
	return pivot
}

// ScatterPairs returns one (contracts, total, category) point per row where
// both values are present.
func ScatterPairs(view []core.CanonicalRecord) []core.ScatterPoint {
	points := make([]core.ScatterPoint, 0, len(view))
	for _, rec := range view {
		if !rec.HasTotal || !rec.HasContracts {
			continue
		}
		points = append(points, core.ScatterPoint{
			Contracts:    rec.Contracts,
			Total:        rec.Total,
			InternalType: rec.InternalType,
		})
	}
	return points
}

// Summarize computes the headline KPIs. Count covers every row; Sum treats a
// missing total as 0; Mean and Max only consider rows that carry a total and
// are nil when no row does.
func Summarize(view []core.CanonicalRecord) core.KPISummary {
	kpi := core.KPISummary{Count: len(view)}

	var present int
	var max float64
	for _, rec := range view {
		if !rec.HasTotal {
			continue
		}
		kpi.Sum += rec.Total
		if present == 0 || rec.Total > max {
			max = rec.Total
		}
		present++
	}

	if present > 0 {
		mean := kpi.Sum / float64(present)
		kpi.Mean = &mean
		m := max
		kpi.Max = &m
	}
	return kpi
}

func totalOrZero(rec core.CanonicalRecord) float64 {
	if rec.HasTotal {
		return rec.Total
	}
	return 0
}
