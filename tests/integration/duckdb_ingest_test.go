package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/TFMV/mimic/integrations"
	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/pkg/gen"
	"github.com/TFMV/mimic/pkg/readers"
	"github.com/TFMV/mimic/pkg/schema"
	"github.com/TFMV/mimic/pkg/writers"
)

// TestDuckDBIngest generates a dataset, persists it, and streams it into a
// DuckDB database file over ADBC, then counts the loaded rows through SQL.
func TestDuckDBIngest(t *testing.T) {
	dir := t.TempDir()

	target, err := integrations.OpenTarget("duckdb",
		integrations.WithPath(filepath.Join(dir, "mimic.db")))
	if err != nil {
		t.Skipf("DuckDB ADBC driver unavailable: %v", err)
	}
	defer target.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	tags, err := schema.Parse("int64,float64,string")
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}
	opts := gen.DefaultOptions()
	opts.Workers = 2

	record, err := gen.Table(tags, 3, 1<<16, opts)
	if err != nil {
		t.Fatalf("failed to generate table: %v", err)
	}
	defer record.Release()

	path := filepath.Join(dir, "dataset.parquet")
	writer, err := writers.DefaultFactory.Create(core.WriterConfig{Type: "parquet", Path: path})
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	if err := writer.Write(ctx, record); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	reader, err := readers.DefaultFactory.Create(core.ReaderConfig{Type: "parquet", Path: path})
	if err != nil {
		t.Fatalf("failed to create reader: %v", err)
	}

	rows, err := integrations.Ingest(ctx, target, reader, "mimic_bench", integrations.IngestCreate)
	reader.Close()
	if err != nil {
		t.Fatalf("ingestion failed: %v", err)
	}
	if rows != record.NumRows() {
		t.Errorf("expected %d rows ingested, got %d", record.NumRows(), rows)
	}

	// Count through SQL to confirm the load landed.
	conn, err := target.OpenConnection()
	if err != nil {
		t.Fatalf("failed to open connection: %v", err)
	}
	defer conn.Close()

	rr, stmt, _, err := conn.Query(ctx, "SELECT COUNT(*) FROM mimic_bench")
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	defer stmt.Close()
	defer rr.Release()

	if !rr.Next() {
		t.Fatal("expected one row from the count query")
	}
	count := rr.Record().Column(0).(*array.Int64).Value(0)
	if count != record.NumRows() {
		t.Errorf("expected %d rows in DuckDB, counted %d", record.NumRows(), count)
	}
}
