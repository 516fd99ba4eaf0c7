// Package report builds summaries of a generation run: dataset shape and
// parameters, per-column statistics, and throughput, rendered as JSON or
// HTML.
package report

import (
	"bytes"
	"encoding/json"
	"html/template"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/TFMV/mimic/internal/inspect"
	"github.com/TFMV/mimic/utils"
)

// -----------------------------
// Report Types
// -----------------------------

// GenerationReport describes one generated dataset.
type GenerationReport struct {
	Dataset    DatasetMetadata `json:"dataset"`
	Columns    []ColumnSummary `json:"columns"`
	Throughput Throughput      `json:"throughput"`
}

// DatasetMetadata captures the run parameters and the resulting shape.
type DatasetMetadata struct {
	Schema       string        `json:"schema"`
	Rows         int64         `json:"rows"`
	Columns      int           `json:"columns"`
	Bytes        int64         `json:"bytes"`
	Seed         uint64        `json:"seed"`
	Workers      int           `json:"workers"`
	OutputPath   string        `json:"output_path,omitempty"`
	OutputFormat string        `json:"output_format,omitempty"`
	OutputBytes  int64         `json:"output_bytes,omitempty"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// ColumnSummary reports per-column realism statistics.
type ColumnSummary struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nulls      int64   `json:"nulls"`
	NullRatio  float64 `json:"null_ratio"`
	Distinct   int64   `json:"distinct"`
	MeanRunLen float64 `json:"mean_run_length"`
	Bytes      int64   `json:"bytes"`
}

// Throughput reports generation speed.
type Throughput struct {
	RowsPerSecond  float64 `json:"rows_per_second"`
	BytesPerSecond float64 `json:"bytes_per_second"`
}

// RunInfo carries the run facts the record itself does not know.
type RunInfo struct {
	Schema       string
	Seed         uint64
	Workers      int
	OutputPath   string
	OutputFormat string
	OutputBytes  int64
	Elapsed      time.Duration
}

// New summarizes a generated record together with its run facts.
func New(record arrow.Record, info RunInfo) GenerationReport {
	stats := inspect.Record(record)
	cols := make([]ColumnSummary, len(stats))
	var total int64
	for i, st := range stats {
		cols[i] = ColumnSummary{
			Name:       st.Name,
			Type:       st.Type,
			Nulls:      st.Nulls,
			NullRatio:  st.NullRatio,
			Distinct:   st.Distinct,
			MeanRunLen: st.MeanRunLen,
			Bytes:      st.Bytes,
		}
		total += st.Bytes
	}

	var tp Throughput
	if info.Elapsed > 0 {
		secs := info.Elapsed.Seconds()
		tp.RowsPerSecond = float64(record.NumRows()) / secs
		tp.BytesPerSecond = float64(total) / secs
	}

	return GenerationReport{
		Dataset: DatasetMetadata{
			Schema:       info.Schema,
			Rows:         record.NumRows(),
			Columns:      int(record.NumCols()),
			Bytes:        total,
			Seed:         info.Seed,
			Workers:      info.Workers,
			OutputPath:   info.OutputPath,
			OutputFormat: info.OutputFormat,
			OutputBytes:  info.OutputBytes,
			GeneratedAt:  time.Now().UTC(),
			Elapsed:      info.Elapsed,
		},
		Columns:    cols,
		Throughput: tp,
	}
}

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// ReportGenerator defines the methods for rendering generation reports.
type ReportGenerator interface {
	GenerateReport(run GenerationReport) ([]byte, error)
	SaveReportToFile(run GenerationReport, filePath string) error
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONReportGenerator renders reports as indented JSON.
type JSONReportGenerator struct{}

// GenerateReport serializes the GenerationReport to JSON.
func (j *JSONReportGenerator) GenerateReport(run GenerationReport) ([]byte, error) {
	return json.MarshalIndent(run, "", "  ")
}

// SaveReportToFile saves the JSON report to a file.
func (j *JSONReportGenerator) SaveReportToFile(run GenerationReport, filePath string) error {
	data, err := j.GenerateReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLReportGenerator renders reports as standalone HTML pages.
type HTMLReportGenerator struct{}

var reportFuncs = template.FuncMap{
	"bytes":    utils.FormatBytes,
	"count":    utils.FormatCount,
	"duration": utils.FormatDuration,
	"rate": func(bytesPerSecond float64) string {
		return utils.FormatBytes(int64(bytesPerSecond)) + "/s"
	},
}

// HTML template for the report.
const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Generation Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
    </style>
</head>
<body>
    <h1>Generation Report</h1>
    <p><strong>Schema:</strong> {{.Dataset.Schema}}</p>
    <p><strong>Rows:</strong> {{count .Dataset.Rows}} | <strong>Columns:</strong> {{.Dataset.Columns}} | <strong>In-Memory Size:</strong> {{bytes .Dataset.Bytes}}</p>
    <p><strong>Seed:</strong> {{.Dataset.Seed}} | <strong>Workers:</strong> {{.Dataset.Workers}}</p>
    {{if .Dataset.OutputPath}}<p><strong>Output:</strong> {{.Dataset.OutputPath}} ({{.Dataset.OutputFormat}}, {{bytes .Dataset.OutputBytes}})</p>{{end}}
    <p><strong>Generation Time:</strong> {{duration .Dataset.Elapsed}}</p>

    <h2>Throughput</h2>
    <p>{{printf "%.0f" .Throughput.RowsPerSecond}} rows/s | {{rate .Throughput.BytesPerSecond}}</p>

    <h2>Columns</h2>
    <table>
        <tr>
            <th>Name</th>
            <th>Type</th>
            <th>Nulls</th>
            <th>Null Ratio</th>
            <th>Distinct</th>
            <th>Mean Run Length</th>
            <th>Bytes</th>
        </tr>
        {{range .Columns}}
        <tr>
            <td>{{.Name}}</td>
            <td>{{.Type}}</td>
            <td>{{.Nulls}}</td>
            <td>{{printf "%.4f" .NullRatio}}</td>
            <td>{{.Distinct}}</td>
            <td>{{printf "%.2f" .MeanRunLen}}</td>
            <td>{{bytes .Bytes}}</td>
        </tr>
        {{end}}
    </table>

    <footer>
        <p>Generated on {{.Dataset.GeneratedAt}}</p>
    </footer>
</body>
</html>
`

// GenerateReport renders the GenerationReport as HTML.
func (h *HTMLReportGenerator) GenerateReport(run GenerationReport) ([]byte, error) {
	tmpl, err := template.New("report").Funcs(reportFuncs).Parse(htmlTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, run); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// SaveReportToFile saves the HTML report to a file.
func (h *HTMLReportGenerator) SaveReportToFile(run GenerationReport, filePath string) error {
	data, err := h.GenerateReport(run)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// SaveReports saves both JSON and HTML reports.
func SaveReports(run GenerationReport, jsonPath, htmlPath string) error {
	jsonGen := JSONReportGenerator{}
	htmlGen := HTMLReportGenerator{}

	if err := jsonGen.SaveReportToFile(run, jsonPath); err != nil {
		return err
	}

	if err := htmlGen.SaveReportToFile(run, htmlPath); err != nil {
		return err
	}

	return nil
}

// ReportFromFilePath loads a previously saved JSON report.
func ReportFromFilePath(filePath string) (GenerationReport, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return GenerationReport{}, err
	}
	var report GenerationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return GenerationReport{}, err
	}
	return report, nil
}
