package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"companion/internal/adapters/http/perf"
	"companion/internal/domain/sheet"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// DefaultBaseURL is the public spreadsheet host.
const DefaultBaseURL = "https://docs.google.com"

// DefaultTimeout bounds one export download.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps the export size read into memory.
const maxBodyBytes = 8 << 20

// ErrUnrecognizedResponse means the body matched neither export format,
// typically a sign-in page for a sheet that is not published.
var ErrUnrecognizedResponse = errors.New("unrecognized export response")

// ErrMissingSpreadsheetID is returned by Fetch when no spreadsheet is configured.
var ErrMissingSpreadsheetID = errors.New("spreadsheet id is required")

// Config locates one published tab.
type Config struct {
	BaseURL       string // defaults to DefaultBaseURL
	SpreadsheetID string
	SheetName     string
	Format        string // json (default) or csv
}

// Fetcher downloads a tab as a Grid.
type Fetcher struct {
	cfg       Config
	client    *http.Client
	now       func() time.Time
	collector *perf.Collector
}

// NewFetcher returns a Fetcher for cfg. A nil client gets DefaultTimeout and a
// nil clock uses time.Now.
// POST: cfg.BaseURL and cfg.Format are defaulted
func NewFetcher(cfg Config, client *http.Client, now func() time.Time) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Format != FormatCSV {
		cfg.Format = FormatJSON
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if now == nil {
		now = time.Now
	}
	return &Fetcher{cfg: cfg, client: client, now: now}
}

// WithCollector records each download's timing to c.
func (f *Fetcher) WithCollector(c *perf.Collector) *Fetcher {
	f.collector = c
	return f
}

// URL builds the export URL with a fresh cache-busting token.
func (f *Fetcher) URL() string {
	q := url.Values{}
	q.Set("tqx", "out:"+f.cfg.Format)
	q.Set("sheet", f.cfg.SheetName)
	q.Set("headers", "0")
	q.Set("tq", "select *")
	q.Set("t", strconv.FormatInt(f.now().UnixMilli(), 10))
	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?%s",
		f.cfg.BaseURL, url.PathEscape(f.cfg.SpreadsheetID), q.Encode())
}

// Fetch downloads and decodes the tab.
// PRE: ctx is valid
// POST: Returns the tab as rows of trimmed-later cell text, or a wrapped error
func (f *Fetcher) Fetch(ctx context.Context) (g sheet.Grid, err error) {
	if f.cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: %w", ErrMissingSpreadsheetID)
	}
	start := time.Now()
	defer func() {
		f.collector.Record(perf.Entry{
			Kind:       perf.KindFetch,
			Path:       "sheets." + f.cfg.Format,
			Failed:     err != nil,
			DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
			Timestamp:  start,
		})
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("sheets: request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sheets: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("sheets: read: %w", err)
	}

	if f.cfg.Format == FormatCSV {
		g, err = decodeCSV(body)
	} else {
		g, err = decodeGviz(body)
	}
	if err != nil {
		return nil, fmt.Errorf("sheets: parse: %w", err)
	}
	return g, nil
}
