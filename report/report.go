package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/goccy/go-json"

	"github.com/TFMV/attemptgen/metrics"
)

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// ReportGenerator defines the methods for generating reports.
type ReportGenerator interface {
	GenerateRunReport(run metrics.RunReport) ([]byte, error)
	GenerateAlertNotification(run metrics.RunReport) ([]byte, error)
	SaveReportToFile(run metrics.RunReport, filePath string) error
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONReportGenerator generates JSON reports.
type JSONReportGenerator struct{}

// GenerateRunReport serializes the RunReport to JSON.
func (j *JSONReportGenerator) GenerateRunReport(run metrics.RunReport) ([]byte, error) {
	return json.MarshalIndent(run, "", "  ")
}

// GenerateAlertNotification generates an alert message in JSON format.
func (j *JSONReportGenerator) GenerateAlertNotification(run metrics.RunReport) ([]byte, error) {
	alert := map[string]any{
		"alert":     "Round trip failed",
		"run_id":    run.RunID,
		"store":     run.Store,
		"message":   alertMessage(run),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	return json.MarshalIndent(alert, "", "  ")
}

// SaveReportToFile saves the JSON report to a file.
func (j *JSONReportGenerator) SaveReportToFile(run metrics.RunReport, filePath string) error {
	data, err := j.GenerateRunReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

func alertMessage(run metrics.RunReport) string {
	switch {
	case run.RoundTrip != nil && len(run.RoundTrip.Mismatches) > 0:
		return fmt.Sprintf("%d columns differ after the round trip.", len(run.RoundTrip.Mismatches))
	case run.Presence != nil && len(run.Presence.Failing(metrics.CriticalChiSquare)) > 0:
		return fmt.Sprintf("%d optional columns fail the presence test.", len(run.Presence.Failing(metrics.CriticalChiSquare)))
	default:
		for _, st := range run.Steps {
			if st.Error != "" {
				return fmt.Sprintf("step %s failed: %s", st.Step, st.Error)
			}
		}
		return "No discrepancies."
	}
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLReportGenerator generates HTML reports.
type HTMLReportGenerator struct{}

// HTML template for the report.
const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Payment Attempt Run {{.RunID}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
        .status-pass { color: green; }
        .status-fail { color: red; }
    </style>
</head>
<body>
    <h1>Payment Attempt Run</h1>
    <p><strong>Run:</strong> {{.RunID}}</p>
    <p><strong>Store:</strong> {{.Store}} ({{.Table}})</p>
    <p><strong>Enum policy:</strong> {{.EnumPolicy}}</p>
    <p><strong>Started:</strong> {{.StartTime}}</p>

    <h2>Steps</h2>
    <table>
        <tr>
            <th>Step</th>
            <th>Duration</th>
            <th>Status</th>
        </tr>
        {{range .Steps}}
        <tr>
            <td>{{.Step}}</td>
            <td>{{.Duration}}</td>
            <td class="{{if .Error}}status-fail{{else}}status-pass{{end}}">
                {{if .Error}}FAIL: {{.Error}}{{else}}PASS{{end}}
            </td>
        </tr>
        {{end}}
    </table>

    {{with .RoundTrip}}
    <h2>Round Trip</h2>
    <p><strong>Key:</strong> {{.PaymentID}} / {{.AttemptID}}</p>
    <p><strong>Columns:</strong> {{.Columns}} ({{.NullColumns}} null)</p>
    <p><strong>Status:</strong> {{if .Status}}<span class="status-pass">PASS</span>{{else}}<span class="status-fail">FAIL</span>{{end}}</p>
    <table>
        <tr>
            <th>Column</th>
            <th>Kind</th>
            <th>Bound</th>
            <th>Stored</th>
        </tr>
        {{range .Mismatches}}
        <tr>
            <td>{{.Column}}</td>
            <td>{{.Kind}}</td>
            <td>{{.Want}}</td>
            <td>{{.Got}}</td>
        </tr>
        {{else}}
        <tr><td colspan="4">None</td></tr>
        {{end}}
    </table>
    {{end}}

    {{with .Presence}}
    <h2>Presence ({{.Samples}} samples, seed {{.Seed}})</h2>
    <table>
        <tr>
            <th>Column</th>
            <th>Present</th>
            <th>Rate</th>
            <th>Chi-square</th>
        </tr>
        {{range .Columns}}
        <tr>
            <td>{{.Column}}</td>
            <td>{{.Present}}</td>
            <td>{{printf "%.4f" .Rate}}</td>
            <td class="{{if within .}}status-pass{{else}}status-fail{{end}}">{{printf "%.3f" .ChiSquare}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    <footer>
        <p>Generated on {{.EndTime}}</p>
    </footer>
</body>
</html>
`

var htmlReport = template.Must(template.New("report").Funcs(template.FuncMap{
	"within": func(c metrics.ColumnPresence) bool { return c.Within(metrics.CriticalChiSquare) },
}).Parse(htmlTemplate))

// GenerateRunReport renders the run as HTML.
func (h *HTMLReportGenerator) GenerateRunReport(run metrics.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlReport.Execute(&buf, run); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateAlertNotification generates an HTML alert.
func (h *HTMLReportGenerator) GenerateAlertNotification(run metrics.RunReport) ([]byte, error) {
	alertHTML := fmt.Sprintf(
		`<html><body><h3>Round trip failed</h3><p>Run %s: %s</p></body></html>`,
		template.HTMLEscapeString(run.RunID), template.HTMLEscapeString(alertMessage(run)),
	)
	return []byte(alertHTML), nil
}

// SaveReportToFile saves the HTML report to a file.
func (h *HTMLReportGenerator) SaveReportToFile(run metrics.RunReport, filePath string) error {
	data, err := h.GenerateRunReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// SaveReports saves both JSON and HTML reports.
func SaveReports(run metrics.RunReport, jsonPath, htmlPath string) error {
	jsonGen := JSONReportGenerator{}
	htmlGen := HTMLReportGenerator{}

	if err := jsonGen.SaveReportToFile(run, jsonPath); err != nil {
		return err
	}
	return htmlGen.SaveReportToFile(run, htmlPath)
}

func ReportFromFilePath(filePath string) (metrics.RunReport, error) {
	store := metrics.JSONMetricsStore{FilePath: filePath}
	return store.Load()
}

// -----------------------------
// Text output
// -----------------------------

// PrintRow writes every row of rec as aligned "column  value" lines. Nulls
// print as NULL.
func PrintRow(w io.Writer, rec arrow.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for r := 0; r < int(rec.NumRows()); r++ {
		if r > 0 {
			fmt.Fprintln(tw)
		}
		for c, col := range rec.Columns() {
			v := "NULL"
			if col.IsValid(r) {
				v = fmt.Sprint(col.GetOneForMarshal(r))
			}
			fmt.Fprintf(tw, "%s\t%s\n", rec.ColumnName(c), v)
		}
	}
	return tw.Flush()
}

// PrintPresence writes one line per optional column with its count, rate and
// chi-square statistic, flagging columns at or over the critical value.
func PrintPresence(w io.Writer, stats metrics.PresenceStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "COLUMN\tPRESENT\tRATE\tCHI2\t\n")
	for _, c := range stats.Columns {
		flag := ""
		if !c.Within(metrics.CriticalChiSquare) {
			flag = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%d/%d\t%.4f\t%.3f\t%s\n", c.Column, c.Present, c.Total, c.Rate(), c.ChiSquare(), flag)
	}
	fmt.Fprintf(tw, "\nsamples=%d workers=%d seed=%d max_chi2=%.3f critical=%.3f\n",
		stats.Samples, stats.Workers, stats.Seed, stats.MaxChiSquare(), metrics.CriticalChiSquare)
	return tw.Flush()
}
