package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"companion/internal/domain/attendance"
)

var payoutTemplate = template.Must(template.New("payout").Parse(`<h2>Dance night {{.Record.Date}}</h2>
<table>
<tr><td>Lesson and dance</td><td>{{.Record.LessonAndDance}}</td></tr>
<tr><td>Dance only</td><td>{{.Record.DanceOnly}}</td></tr>
<tr><td>Comped</td><td>{{.Record.TotalComped}}</td></tr>
<tr><td>Total in attendance</td><td>{{.Record.TotalInAttendance}}</td></tr>
<tr><td>Revenue</td><td>${{printf "%.2f" .Record.TotalRevenue}}</td></tr>
<tr><td>Per person</td><td>${{printf "%.2f" .Record.PerPersonSplit}}</td></tr>
</table>
{{if .Comped}}<h3>Comped guests</h3>
<ul>{{range .Comped}}<li>{{.Name}}{{if .Notes}} ({{.Notes}}){{end}}</li>{{end}}</ul>{{end}}
`))

// PayoutReport builds the summary sent after a night is committed.
// PRE: r has been validated
// POST: HTML escapes guest names and notes
func PayoutReport(to []string, r attendance.Record, comped []attendance.CompedRecord) (Message, error) {
	var buf bytes.Buffer
	err := payoutTemplate.Execute(&buf, struct {
		Record attendance.Record
		Comped []attendance.CompedRecord
	}{r, comped})
	if err != nil {
		return Message{}, fmt.Errorf("email: render payout: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Dance night %s\n", r.Date)
	fmt.Fprintf(&text, "Attendance %d (lesson %d, dance only %d, comped %d)\n",
		r.TotalInAttendance, r.LessonAndDance, r.DanceOnly, r.TotalComped)
	fmt.Fprintf(&text, "Revenue $%.2f, per person $%.2f\n", r.TotalRevenue, r.PerPersonSplit)

	return Message{
		To:      to,
		Subject: fmt.Sprintf("Dance night %s: $%.2f each", r.Date, r.PerPersonSplit),
		HTML:    buf.String(),
		Text:    text.String(),
	}, nil
}
