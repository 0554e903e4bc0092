package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/attemptgen/metrics"
)

func TestJSONReportGenerator_GenerateRunReport(t *testing.T) {
	report := createTestReport()
	generator := &JSONReportGenerator{}

	data, err := generator.GenerateRunReport(report)
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	var decoded metrics.RunReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Generated invalid JSON: %v", err)
	}
	if decoded.Store != "sqlite" {
		t.Errorf("Expected store 'sqlite', got %s", decoded.Store)
	}
	if decoded.RoundTrip == nil || decoded.RoundTrip.PaymentID != "pay_1" {
		t.Errorf("Round trip result did not survive serialization: %+v", decoded.RoundTrip)
	}
}

func TestJSONReportGenerator_Alert(t *testing.T) {
	report := createTestReport()
	report.RoundTrip.Status = false
	report.RoundTrip.Mismatches = []metrics.ColumnMismatch{{Column: "amount", Kind: "value", Want: "1", Got: "2"}}

	data, err := (&JSONReportGenerator{}).GenerateAlertNotification(report)
	require.NoError(t, err)

	var alert map[string]string
	require.NoError(t, json.Unmarshal(data, &alert))
	assert.Equal(t, "run-123", alert["run_id"])
	assert.Equal(t, "1 columns differ after the round trip.", alert["message"])

	html, err := (&HTMLReportGenerator{}).GenerateAlertNotification(report)
	require.NoError(t, err)
	assert.Contains(t, string(html), "run-123")
}

func TestHTMLReportGenerator_GenerateRunReport(t *testing.T) {
	report := createTestReport()
	generator := &HTMLReportGenerator{}

	data, err := generator.GenerateRunReport(report)
	if err != nil {
		t.Fatalf("Failed to generate HTML report: %v", err)
	}

	html := string(data)
	expectedElements := []string{
		"<!DOCTYPE html>",
		"<title>Payment Attempt Run run-123</title>",
		"pay_1",
		"PASS",
		"net_amount",
		"36.000",
	}
	for _, expected := range expectedElements {
		if !strings.Contains(html, expected) {
			t.Errorf("HTML report missing expected content: %s", expected)
		}
	}
}

func TestSaveReports(t *testing.T) {
	report := createTestReport()
	tmpDir := t.TempDir()
	jsonPath := filepath.Join(tmpDir, "report.json")
	htmlPath := filepath.Join(tmpDir, "report.html")

	if err := SaveReports(report, jsonPath, htmlPath); err != nil {
		t.Fatalf("Failed to save reports: %v", err)
	}
	if _, err := os.Stat(htmlPath); os.IsNotExist(err) {
		t.Error("HTML report file was not created")
	}

	loaded, err := ReportFromFilePath(jsonPath)
	if err != nil {
		t.Fatalf("Failed to load report: %v", err)
	}
	if loaded.RunID != report.RunID {
		t.Errorf("Loaded report data mismatch: expected %s, got %s", report.RunID, loaded.RunID)
	}
}

func TestPrintRow(t *testing.T) {
	s := arrow.NewSchema([]arrow.Field{
		{Name: "payment_id", Type: arrow.BinaryTypes.String},
		{Name: "amount", Type: arrow.PrimitiveTypes.Int64},
		{Name: "confirm", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), s)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).Append("pay_1")
	b.Field(1).(*array.Int64Builder).Append(500)
	b.Field(2).AppendNull()
	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	require.NoError(t, PrintRow(&buf, rec))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"payment_id", "pay_1"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"amount", "500"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"confirm", "NULL"}, strings.Fields(lines[2]))
}

func TestPrintPresence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintPresence(&buf, *createTestReport().Presence))

	out := buf.String()
	assert.Contains(t, out, "COLUMN")
	assert.Contains(t, out, "samples=100")
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "net_amount"):
			assert.Contains(t, line, "FAIL")
		case strings.HasPrefix(line, "connector"):
			assert.NotContains(t, line, "FAIL")
		}
	}
}

func createTestReport() metrics.RunReport {
	now := time.Now()
	return metrics.RunReport{
		RunID:      "run-123",
		Store:      "sqlite",
		Table:      "payment_attempt",
		EnumPolicy: "canonical",
		StartTime:  now,
		EndTime:    now.Add(time.Second),
		Duration:   time.Second,
		Steps: []metrics.StepTiming{
			{Step: "generate", Duration: time.Millisecond},
			{Step: "insert", Duration: 2 * time.Millisecond},
		},
		RoundTrip: &metrics.RoundTripResult{
			PaymentID:   "pay_1",
			AttemptID:   "att_1",
			Columns:     58,
			NullColumns: 20,
			Status:      true,
		},
		Presence: &metrics.PresenceStats{
			Seed:    1,
			Samples: 100,
			Workers: 1,
			Columns: []metrics.ColumnPresence{
				{Column: "connector", Index: 6, Present: 52, Total: 100},
				{Column: "net_amount", Index: 43, Present: 80, Total: 100},
			},
		},
	}
}
