package sheets

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"companion/internal/domain/sheet"
)

// decodeCSV reads a CSV export. Rows may have different field counts.
// Blank sheet rows come through as quoted empty cells and are dropped, so the
// grid lines up with the JSON export.
func decodeCSV(body []byte) (sheet.Grid, error) {
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return nil, ErrUnrecognizedResponse
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	return sheet.Grid(records).Compact(), nil
}
