package sheets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"companion/internal/domain/sheet"
)

var gvizWrapper = regexp.MustCompile(`(?s)google\.visualization\.Query\.setResponse\((.*)\);?\s*$`)

type gvizResponse struct {
	Status string `json:"status"`
	Errors []struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
		Detail  string `json:"detailed_message"`
	} `json:"errors"`
	Table *struct {
		Rows []struct {
			C []*gvizCell `json:"c"`
		} `json:"rows"`
	} `json:"table"`
}

type gvizCell struct {
	V any     `json:"v"`
	F *string `json:"f"`
}

// decodeGviz unwraps the JSONP-style table payload into a Grid.
func decodeGviz(body []byte) (sheet.Grid, error) {
	m := gvizWrapper.FindSubmatch(bytes.TrimSpace(body))
	if m == nil {
		return nil, ErrUnrecognizedResponse
	}
	dec := json.NewDecoder(bytes.NewReader(m[1]))
	dec.UseNumber()
	var resp gvizResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	if resp.Status == "error" {
		msg := "query failed"
		if len(resp.Errors) > 0 {
			msg = firstNonEmpty(resp.Errors[0].Detail, resp.Errors[0].Message, resp.Errors[0].Reason, msg)
		}
		return nil, errors.New(msg)
	}
	if resp.Table == nil {
		return nil, errors.New("response has no table")
	}

	g := make(sheet.Grid, len(resp.Table.Rows))
	for i, row := range resp.Table.Rows {
		cells := make([]string, len(row.C))
		for j, c := range row.C {
			cells[j] = c.text()
		}
		g[i] = cells
	}
	return g, nil
}

// text renders a cell value. Dates use the formatted value since the raw form
// is a constructor string such as "Date(2026,2,6)".
func (c *gvizCell) text() string {
	if c == nil {
		return ""
	}
	switch v := c.V.(type) {
	case nil:
		return ""
	case string:
		if strings.HasPrefix(v, "Date(") && c.F != nil {
			return *c.F
		}
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return numberText(v)
	default:
		if c.F != nil {
			return *c.F
		}
		return fmt.Sprint(v)
	}
}

func numberText(n json.Number) string {
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
