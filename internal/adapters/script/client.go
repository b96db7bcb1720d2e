package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"companion/internal/adapters/http/perf"
	"companion/internal/domain/attendance"
)

// PlaceholderMarker appears in the sample script URL shipped before deployment.
const PlaceholderMarker = "REPLACE_WITH_YOUR_ID"

// DefaultTimeout bounds one script call.
const DefaultTimeout = 20 * time.Second

// ErrNotConfigured means no deployed script URL is set.
var ErrNotConfigured = errors.New("script: endpoint not configured")

// Status is the outcome of a delivered request.
type Status string

const (
	// Confirmed means the script acknowledged the write.
	Confirmed Status = "confirmed"
	// Unknown means the request was accepted but the body carried no acknowledgement.
	Unknown Status = "unknown"
)

// Dispatch is the result of a delivered request.
type Dispatch struct {
	Status     Status
	StatusCode int
}

// Client talks to the spreadsheet-side script web app.
type Client struct {
	url       string
	http      *http.Client
	collector *perf.Collector
}

// NewClient returns a Client for url. A nil httpClient gets DefaultTimeout.
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{url: strings.TrimSpace(url), http: httpClient}
}

// WithCollector records each call's timing to c.
func (c *Client) WithCollector(col *perf.Collector) *Client {
	c.collector = col
	return c
}

// IsConfigured reports whether a real endpoint URL is set.
func (c *Client) IsConfigured() bool {
	return c.url != "" && !strings.Contains(c.url, PlaceholderMarker)
}

// Body builds the {"action": ..., ...payload} request body. The payload must
// encode as a JSON object; its fields sit beside the action key.
// PRE: action is non-empty
func Body(action string, payload any) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("script: encode payload: %w", err)
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("script: payload must be an object: %w", err)
		}
	}
	a, _ := json.Marshal(action)
	fields["action"] = a
	return json.Marshal(fields)
}

// Post sends a prebuilt body, as replayed from the outbox.
// PRE: body is a JSON object carrying an action key
// POST: transport failures and 4xx/5xx are errors; a 2xx/3xx is Confirmed
// only when the response acknowledges the write
func (c *Client) Post(ctx context.Context, body []byte) (d Dispatch, err error) {
	if !c.IsConfigured() {
		return Dispatch{}, ErrNotConfigured
	}
	start := time.Now()
	defer func() {
		c.collector.Record(perf.Entry{
			Kind:       perf.KindDispatch,
			Path:       "script." + actionOf(body),
			StatusCode: d.StatusCode,
			Failed:     err != nil,
			DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
			Timestamp:  start,
		})
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Dispatch{}, fmt.Errorf("script: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Dispatch{}, fmt.Errorf("script: request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 400 {
		return Dispatch{StatusCode: resp.StatusCode}, fmt.Errorf("script: status %d", resp.StatusCode)
	}
	d = Dispatch{Status: Unknown, StatusCode: resp.StatusCode}
	if acknowledged(respBody) {
		d.Status = Confirmed
	}
	return d, nil
}

// FetchState reads the shared session tally.
// POST: ok is false when the script holds no state
func (c *Client) FetchState(ctx context.Context) (state attendance.SessionState, ok bool, err error) {
	if !c.IsConfigured() {
		return attendance.SessionState{}, false, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return attendance.SessionState{}, false, fmt.Errorf("script: request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return attendance.SessionState{}, false, fmt.Errorf("script: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return attendance.SessionState{}, false, fmt.Errorf("script: status %d", resp.StatusCode)
	}

	var envelope struct {
		State *attendance.SessionState `json:"state"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&envelope); err != nil {
		return attendance.SessionState{}, false, fmt.Errorf("script: parse state: %w", err)
	}
	if envelope.State == nil {
		return attendance.SessionState{}, false, nil
	}
	return *envelope.State, true, nil
}

// acknowledged accepts {"success": true} or {"status": "ok"}.
func acknowledged(body []byte) bool {
	var ack struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(body), &ack); err != nil {
		return false
	}
	return ack.Success || strings.EqualFold(ack.Status, "ok")
}

func actionOf(body []byte) string {
	var a struct {
		Action string `json:"action"`
	}
	if json.Unmarshal(body, &a) != nil || a.Action == "" {
		return "unknown"
	}
	return a.Action
}
