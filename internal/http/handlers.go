package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"compras/internal/core"
	"compras/internal/export"
	applog "compras/internal/log"
	"compras/internal/pipeline"
	"compras/internal/source"
)

type datasetResponse struct {
	Records    []core.CanonicalRecord `json:"records"`
	Categories []string               `json:"categories"`
	Report     pipeline.Report        `json:"report"`
}

type summaryResponse struct {
	KPIs       core.KPISummary      `json:"kpis"`
	ByCategory []core.CategoryTotal `json:"by_category"`
	ByMonth    []core.MonthTotal    `json:"by_month"`
	Pivot      core.Pivot           `json:"category_by_month"`
	Scatter    []core.ScatterPoint  `json:"scatter"`
	Categories []string             `json:"categories"`
	Report     pipeline.Report      `json:"report"`
}

// parseFetchParams reads the optional year/region/type query parameters.
func parseFetchParams(r *http.Request) (source.FetchParams, error) {
	q := r.URL.Query()
	params := source.FetchParams{
		Region:       strings.TrimSpace(q.Get("region")),
		ContractType: strings.TrimSpace(q.Get("type")),
	}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid year %q", v)
		}
		params.Year = &year
	}
	return params, nil
}

// categoryFilter reads the categories parameter. ok=false means the
// parameter is absent, which selects every category; an explicitly empty
// value is the deselect-all case and yields an empty set.
func categoryFilter(r *http.Request) (allowed []string, ok bool) {
	q := r.URL.Query()
	if !q.Has("categories") {
		return nil, false
	}
	for _, name := range strings.Split(q.Get("categories"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			allowed = append(allowed, name)
		}
	}
	if allowed == nil {
		allowed = []string{}
	}
	return allowed, true
}

// loadRaw obtains raw records either from the remote source (GET) or from
// the request body (POST), together with a dataset identity usable as a
// cache key. ok=false means the error response was already written.
func (s *Server) loadRaw(w http.ResponseWriter, r *http.Request, params source.FetchParams) (raw []core.RawRecord, datasetKey string, ok bool) {
	switch r.Method {
	case http.MethodGet:
		raw, err := s.fetcher.Fetch(r.Context(), params)
		if err != nil {
			writeFetchError(w, r, err)
			return nil, "", false
		}
		return raw, params.Key(), true

	case http.MethodPost:
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUploadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
					fmt.Sprintf("payload exceeds %d bytes", s.maxUploadBytes), 0)
			} else {
				writeError(w, http.StatusBadRequest, "BAD_PAYLOAD", "could not read request body", 0)
			}
			return nil, "", false
		}
		raw, err = source.ParsePayload(body)
		if err != nil {
			writeFetchError(w, r, err)
			return nil, "", false
		}
		return raw, source.PayloadKey(body), true

	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use GET or POST", 0)
		return nil, "", false
	}
}

func (s *Server) normalizeOptions(params source.FetchParams) pipeline.NormalizeOptions {
	year := s.defaultYear
	if params.Year != nil {
		year = *params.Year
	}
	return pipeline.NormalizeOptions{FallbackYear: year, Region: params.Region}
}

// handleDataset returns the canonical table plus the categories available
// for filtering.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	params, err := parseFetchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_PARAMS", err.Error(), 0)
		return
	}
	raw, _, ok := s.loadRaw(w, r, params)
	if !ok {
		return
	}

	records, report := pipeline.Normalize(raw, s.normalizeOptions(params))
	logReport(r, report)

	writeJSON(w, http.StatusOK, datasetResponse{
		Records:    records,
		Categories: pipeline.Categories(records),
		Report:     report,
	})
}

// handleSummary returns the KPIs and the four aggregate views over the
// filtered table.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	allowed, hasFilter := categoryFilter(r)

	params, err := parseFetchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_PARAMS", err.Error(), 0)
		return
	}

	// For remote fetches the summary identity is known up front; uploads
	// need the payload hash, so their cache check happens after loadRaw.
	var cacheKey string
	if r.Method == http.MethodGet {
		cacheKey = summaryKey(params.Key(), allowed, hasFilter)
		if resp, hit := s.summaryCache.Get(cacheKey); hit {
			applog.Default(applog.ComponentCache).DebugContext(r.Context(), "summary cache hit",
				applog.FieldCacheKey, cacheKey)
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	raw, datasetKey, ok := s.loadRaw(w, r, params)
	if !ok {
		return
	}
	if cacheKey == "" {
		cacheKey = summaryKey(datasetKey, allowed, hasFilter)
		if resp, hit := s.summaryCache.Get(cacheKey); hit {
			writeJSON(w, http.StatusOK, resp)
			return
		}
	}

	records, report := pipeline.Normalize(raw, s.normalizeOptions(params))
	logReport(r, report)

	categories := pipeline.Categories(records)
	if !hasFilter {
		allowed = categories
	}
	view := pipeline.Filter(records, allowed)

	resp := summaryResponse{
		KPIs:       pipeline.Summarize(view),
		ByCategory: pipeline.ByCategory(view),
		ByMonth:    pipeline.ByMonth(view),
		Pivot:      pipeline.CategoryByMonth(view),
		Scatter:    pipeline.ScatterPairs(view),
		Categories: categories,
		Report:     report,
	}
	s.summaryCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleExport streams the filtered table as the processed CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	allowed, hasFilter := categoryFilter(r)

	params, err := parseFetchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_PARAMS", err.Error(), 0)
		return
	}
	raw, _, ok := s.loadRaw(w, r, params)
	if !ok {
		return
	}

	records, report := pipeline.Normalize(raw, s.normalizeOptions(params))
	logReport(r, report)

	if !hasFilter {
		allowed = pipeline.Categories(records)
	}
	view := pipeline.Filter(records, allowed)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	if err := export.WriteCSV(w, view); err != nil {
		applog.Default(applog.ComponentHTTP).ErrorContext(r.Context(), "csv export failed",
			applog.FieldError, err)
	}
}

func summaryKey(datasetKey string, allowed []string, hasFilter bool) string {
	if !hasFilter {
		return datasetKey + "|categories=*"
	}
	sorted := make([]string, len(allowed))
	copy(sorted, allowed)
	sort.Strings(sorted)
	return datasetKey + "|categories=" + strings.Join(sorted, ",")
}

func logReport(r *http.Request, report pipeline.Report) {
	if report.Skipped == 0 && len(report.Warnings) == 0 {
		return
	}
	applog.Default(applog.ComponentPipeline).WarnContext(r.Context(), "normalization issues",
		applog.FieldRecords, report.Rows,
		applog.FieldSkipped, report.Skipped,
		applog.FieldWarnings, len(report.Warnings))
}
