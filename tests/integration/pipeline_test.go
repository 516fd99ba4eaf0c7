package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/pkg/diff"
	"github.com/TFMV/mimic/pkg/gen"
	"github.com/TFMV/mimic/pkg/readers"
	"github.com/TFMV/mimic/pkg/schema"
	"github.com/TFMV/mimic/pkg/writers"
	"github.com/TFMV/mimic/report"
	"github.com/TFMV/mimic/validation"
)

const (
	pipelineSchema = "int32,float64,string,bool,ts_ms"
	pipelineCols   = 5
	pipelineBytes  = 1 << 20
	pipelineSeed   = 42
)

func pipelineOptions() gen.Options {
	opts := gen.DefaultOptions()
	opts.Seed = pipelineSeed
	opts.Workers = 2
	return opts
}

// TestPipelineRoundTrip pushes one dataset through the full local pipeline
// for each on-disk format: generate, persist, reload, replay-verify, and
// profile-validate.
func TestPipelineRoundTrip(t *testing.T) {
	for _, format := range []string{"parquet", "arrow"} {
		t.Run(format, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "dataset."+format)

			tags, err := schema.Parse(pipelineSchema)
			if err != nil {
				t.Fatalf("failed to parse schema: %v", err)
			}
			opts := pipelineOptions()

			record, err := gen.Table(tags, pipelineCols, pipelineBytes, opts)
			if err != nil {
				t.Fatalf("failed to generate table: %v", err)
			}
			defer record.Release()

			writer, err := writers.DefaultFactory.Create(core.WriterConfig{Type: format, Path: path})
			if err != nil {
				t.Fatalf("failed to create writer: %v", err)
			}
			if err := writer.Write(ctx, record); err != nil {
				t.Fatalf("failed to write dataset: %v", err)
			}
			if err := writer.Close(); err != nil {
				t.Fatalf("failed to close writer: %v", err)
			}

			// The stored file must equal its deterministic replay.
			reader, err := readers.DefaultFactory.Create(core.ReaderConfig{Type: format, Path: path})
			if err != nil {
				t.Fatalf("failed to create reader: %v", err)
			}
			checker := diff.NewChecker()
			defer checker.Close()

			result, err := checker.Verify(ctx, reader, diff.ReplaySpec{
				Tags:       tags,
				NumCols:    pipelineCols,
				TableBytes: pipelineBytes,
				Opts:       opts,
			}, diff.Options{})
			reader.Close()
			if err != nil {
				t.Fatalf("verification failed: %v", err)
			}
			if !result.Equal {
				t.Fatalf("stored dataset diverges from its replay in %d cells: %+v",
					result.DiffCells, result.Divergences)
			}
			if result.ActualRows != record.NumRows() {
				t.Errorf("expected %d rows after reload, got %d", record.NumRows(), result.ActualRows)
			}

			// The reloaded dataset must still match its generation profile.
			reader, err = readers.DefaultFactory.Create(core.ReaderConfig{Type: format, Path: path})
			if err != nil {
				t.Fatalf("failed to create reader: %v", err)
			}
			reloaded, err := readers.ReadAll(ctx, memory.NewGoAllocator(), reader)
			reader.Close()
			if err != nil {
				t.Fatalf("failed to reload dataset: %v", err)
			}
			defer reloaded.Release()

			validator := validation.NewValidator(opts.Profile, nil)
			validator.ExpectedRows = record.NumRows()
			validator.ExpectedCols = pipelineCols

			rep, err := validator.Validate(ctx, reloaded)
			if err != nil {
				t.Fatalf("validation failed: %v", err)
			}
			if !rep.Status {
				for _, c := range rep.Checks {
					if !c.Status {
						t.Errorf("check %s failed on %s: observed %f, expected %f",
							c.Check, c.Column, c.Observed, c.Expected)
					}
				}
				t.Fatalf("reloaded dataset failed %d checks", rep.Failed)
			}
		})
	}
}

// TestPipelineReportRoundTrip saves a generation report and loads it back.
func TestPipelineReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "report.json")
	htmlPath := filepath.Join(dir, "report.html")

	tags, err := schema.Parse(pipelineSchema)
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}
	opts := pipelineOptions()

	record, err := gen.Table(tags, pipelineCols, pipelineBytes, opts)
	if err != nil {
		t.Fatalf("failed to generate table: %v", err)
	}
	defer record.Release()

	run := report.New(record, report.RunInfo{
		Schema:  pipelineSchema,
		Seed:    opts.Seed,
		Workers: opts.Workers,
	})
	if err := report.SaveReports(run, jsonPath, htmlPath); err != nil {
		t.Fatalf("failed to save reports: %v", err)
	}

	loaded, err := report.ReportFromFilePath(jsonPath)
	if err != nil {
		t.Fatalf("failed to reload report: %v", err)
	}
	if loaded.Dataset.Rows != record.NumRows() {
		t.Errorf("expected %d rows in reloaded report, got %d", record.NumRows(), loaded.Dataset.Rows)
	}
	if loaded.Dataset.Seed != opts.Seed {
		t.Errorf("expected seed %d in reloaded report, got %d", opts.Seed, loaded.Dataset.Seed)
	}
	if len(loaded.Columns) != pipelineCols {
		t.Errorf("expected %d column summaries, got %d", pipelineCols, len(loaded.Columns))
	}
}
