package pipeline

import (
	"sort"

	"compras/internal/core"
)

// Filter returns the subsequence of table whose internal_type is in allowed,
// preserving order. An empty allowed set yields an empty view so that
// deselect-all behaves predictably. The input is never mutated.
func Filter(table []core.CanonicalRecord, allowed []string) []core.CanonicalRecord {
	set := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		set[name] = struct{}{}
	}

	view := make([]core.CanonicalRecord, 0, len(table))
	for _, rec := range table {
		if _, ok := set[rec.InternalType]; ok {
			view = append(view, rec)
		}
	}
	return view
}

// Categories returns the distinct internal_type values of the table in
// ascending order, for the shell's category multi-select.
func Categories(table []core.CanonicalRecord) []string {
	seen := make(map[string]struct{}, len(table))
	var names []string
	for _, rec := range table {
		if _, ok := seen[rec.InternalType]; !ok {
			seen[rec.InternalType] = struct{}{}
			names = append(names, rec.InternalType)
		}
	}
	sort.Strings(names)
	return names
}
