package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"companion/internal/domain/attendance"
)

// Format constants for export file format.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Version is the export layout version written into Metadata.
const Version = "1"

// ErrInvalidFormat is returned for a format other than json or csv.
var ErrInvalidFormat = errors.New("invalid format: must be 'json' or 'csv'")

// Night is one committed night with the guests comped on it.
type Night struct {
	attendance.Record
	CompedGuests []string `json:"compedGuests,omitempty"`
}

// Metadata contains information about the export itself.
type Metadata struct {
	ExportDate  time.Time `json:"exportDate"`
	Format      string    `json:"format"`
	Version     string    `json:"version"`
	RecordCount int       `json:"recordCount"`
}

// Data is the attendance ledger as downloaded by the owner.
type Data struct {
	Nights         []Night  `json:"nights"`
	ExportMetadata Metadata `json:"exportMetadata"`
}

// NormalizeFormat lower-cases format and defaults an empty one to JSON.
// POST: Returns FormatJSON or FormatCSV, or ErrInvalidFormat
func NormalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", ErrInvalidFormat
	}
}

// New assembles an export from the ledger. comped maps a date to its guests.
// POST: Nights keep the order of records; RecordCount is len(records)
func New(records []attendance.Record, comped map[string][]attendance.CompedRecord, format string, now time.Time) Data {
	nights := make([]Night, 0, len(records))
	for _, r := range records {
		n := Night{Record: r}
		for _, c := range comped[r.Date] {
			n.CompedGuests = append(n.CompedGuests, c.Name)
		}
		nights = append(nights, n)
	}
	return Data{
		Nights: nights,
		ExportMetadata: Metadata{
			ExportDate:  now,
			Format:      format,
			Version:     Version,
			RecordCount: len(records),
		},
	}
}

// ToJSON serializes the Data to JSON format.
func (d *Data) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// csvHeader matches the columns of the commitAttendance sheet tab.
var csvHeader = []string{
	"Date", "Total In Attendance", "Lesson & Dance", "Dance Only", "Total Comped",
	"Total Revenue", "Per Person Split", "Comped Guests", "Dispatch", "Created At",
}

// ToCSV serializes the nights to a single CSV table with a header row.
// INVARIANT: comped guest names are joined with "; " in one column
func (d *Data) ToCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, n := range d.Nights {
		row := []string{
			n.Date,
			strconv.Itoa(n.TotalInAttendance),
			strconv.Itoa(n.LessonAndDance),
			strconv.Itoa(n.DanceOnly),
			strconv.Itoa(n.TotalComped),
			formatAmount(n.TotalRevenue),
			formatAmount(n.PerPersonSplit),
			strings.Join(n.CompedGuests, "; "),
			n.Dispatch,
			n.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// formatAmount prints whole amounts without decimals.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
