package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TFMV/mimic/pkg/gen"
	"github.com/TFMV/mimic/pkg/schema"
)

func TestNewGenerationReport(t *testing.T) {
	report := createTestReport(t)

	if report.Dataset.Rows == 0 {
		t.Fatal("Expected a non-empty dataset")
	}
	if report.Dataset.Columns != 3 {
		t.Errorf("Expected 3 columns, got %d", report.Dataset.Columns)
	}
	if len(report.Columns) != 3 {
		t.Fatalf("Expected 3 column summaries, got %d", len(report.Columns))
	}
	if report.Columns[0].Name != "col0" || report.Columns[2].Name != "col2" {
		t.Errorf("Unexpected column names: %s, %s", report.Columns[0].Name, report.Columns[2].Name)
	}
	if report.Dataset.Bytes <= 0 {
		t.Errorf("Expected positive in-memory size, got %d", report.Dataset.Bytes)
	}
	if report.Throughput.RowsPerSecond <= 0 {
		t.Errorf("Expected positive row throughput, got %f", report.Throughput.RowsPerSecond)
	}
}

func TestJSONReportGenerator_GenerateReport(t *testing.T) {
	report := createTestReport(t)
	generator := &JSONReportGenerator{}

	data, err := generator.GenerateReport(report)
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	var decoded GenerationReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Generated invalid JSON: %v", err)
	}

	if decoded.Dataset.Seed != report.Dataset.Seed {
		t.Errorf("Expected seed %d, got %d", report.Dataset.Seed, decoded.Dataset.Seed)
	}
	if decoded.Dataset.Schema != "int32,float64,string" {
		t.Errorf("Unexpected schema: %s", decoded.Dataset.Schema)
	}
}

func TestJSONReportGenerator_SaveReportToFile(t *testing.T) {
	report := createTestReport(t)
	generator := &JSONReportGenerator{}

	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test_report.json")

	if err := generator.SaveReportToFile(report, filePath); err != nil {
		t.Fatalf("Failed to save report: %v", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}

	var decoded GenerationReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Saved file contains invalid JSON: %v", err)
	}
}

func TestHTMLReportGenerator_GenerateReport(t *testing.T) {
	report := createTestReport(t)
	generator := &HTMLReportGenerator{}

	data, err := generator.GenerateReport(report)
	if err != nil {
		t.Fatalf("Failed to generate HTML report: %v", err)
	}

	html := string(data)
	expectedElements := []string{
		"<!DOCTYPE html>",
		"<title>Generation Report</title>",
		"int32,float64,string",
		"col0",
		"rows/s",
	}

	for _, expected := range expectedElements {
		if !strings.Contains(html, expected) {
			t.Errorf("HTML report missing expected content: %s", expected)
		}
	}
}

func TestSaveReports(t *testing.T) {
	report := createTestReport(t)
	tmpDir := t.TempDir()
	jsonPath := filepath.Join(tmpDir, "report.json")
	htmlPath := filepath.Join(tmpDir, "report.html")

	if err := SaveReports(report, jsonPath, htmlPath); err != nil {
		t.Fatalf("Failed to save reports: %v", err)
	}

	if _, err := os.Stat(jsonPath); os.IsNotExist(err) {
		t.Error("JSON report file was not created")
	}
	if _, err := os.Stat(htmlPath); os.IsNotExist(err) {
		t.Error("HTML report file was not created")
	}
}

func TestReportFromFilePath(t *testing.T) {
	report := createTestReport(t)
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test_report.json")

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal report: %v", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	loaded, err := ReportFromFilePath(filePath)
	if err != nil {
		t.Fatalf("Failed to load report: %v", err)
	}

	if loaded.Dataset.Seed != report.Dataset.Seed {
		t.Errorf("Loaded report seed mismatch: expected %d, got %d",
			report.Dataset.Seed, loaded.Dataset.Seed)
	}
	if loaded.Dataset.Rows != report.Dataset.Rows {
		t.Errorf("Loaded report rows mismatch: expected %d, got %d",
			report.Dataset.Rows, loaded.Dataset.Rows)
	}
}

// Helper function to summarize a freshly generated table.
func createTestReport(t *testing.T) GenerationReport {
	t.Helper()

	tags, err := schema.Parse("int32,float64,string")
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}

	opts := gen.DefaultOptions()
	opts.Seed = 7
	opts.Workers = 2
	record, err := gen.Table(tags, 3, 1<<16, opts)
	if err != nil {
		t.Fatalf("Failed to generate table: %v", err)
	}
	defer record.Release()

	return New(record, RunInfo{
		Schema:       "int32,float64,string",
		Seed:         7,
		Workers:      2,
		OutputPath:   filepath.Join(t.TempDir(), "out.parquet"),
		OutputFormat: "parquet",
		OutputBytes:  12345,
		Elapsed:      80 * time.Millisecond,
	})
}
