// Package source implements the record source adapter: it fetches raw
// procurement records from the remote analysis endpoint or from an uploaded
// JSON payload and reports failures as typed errors.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"compras/internal/core"
	applog "compras/internal/log"
)

// DefaultTimeout bounds how long a remote fetch may take.
const DefaultTimeout = 20 * time.Second

// FetchParams are the optional query parameters of the analysis endpoint.
// Absent parameters are simply not sent.
type FetchParams struct {
	Year         *int
	Region       string
	ContractType string
}

// Key returns a canonical string identity for the parameter set, used as the
// cache key.
func (p FetchParams) Key() string {
	return p.query().Encode()
}

func (p FetchParams) query() url.Values {
	q := url.Values{}
	if p.Year != nil {
		q.Set("year", strconv.Itoa(*p.Year))
	}
	if p.Region != "" {
		q.Set("region", p.Region)
	}
	if p.ContractType != "" {
		q.Set("type", p.ContractType)
	}
	return q
}

// Client fetches raw records from the remote analysis endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL. timeout <= 0 falls back
// to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch performs one GET against the analysis endpoint and returns the raw
// records. All failure modes come back as *SourceError.
func (c *Client) Fetch(ctx context.Context, params FetchParams) ([]core.RawRecord, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &SourceError{Code: ErrCodeTransport, Message: "invalid base URL", Cause: err}
	}
	u.RawQuery = params.query().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &SourceError{Code: ErrCodeTransport, Message: "build request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &SourceError{Code: ErrCodeTransport, Message: "request to data source failed", Cause: err}
	}
	defer resp.Body.Close()

	applog.Default(applog.ComponentSource).DebugContext(ctx, "data source responded",
		applog.FieldURL, u.Redacted(),
		applog.FieldStatusCode, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, &SourceError{
			Code:    ErrCodeRemoteStatus,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("data source returned HTTP %d", resp.StatusCode),
		}
	}

	records, err := decodeRecords(resp.Body)
	if err != nil {
		return nil, &SourceError{Code: ErrCodeMalformedInput, Message: "response is not a record array", Cause: err}
	}
	if len(records) == 0 {
		return nil, &SourceError{Code: ErrCodeEmptyResult, Message: "data source returned no records"}
	}
	return records, nil
}

// decodeRecords decodes a JSON array of objects into raw records. Numbers
// are kept as json.Number so the normalizer controls coercion. Elements that
// are not objects become nil records; the normalizer counts those as skipped.
func decodeRecords(r io.Reader) ([]core.RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var rows []any
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}

	records := make([]core.RawRecord, 0, len(rows))
	for _, row := range rows {
		if m, ok := row.(map[string]any); ok {
			records = append(records, core.RawRecord(m))
		} else {
			records = append(records, nil)
		}
	}
	return records, nil
}
