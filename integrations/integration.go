// Package integrations loads generated datasets into external engines over
// ADBC. DuckDB and PostgreSQL targets share the ingestion path; only
// database construction differs.
package integrations

import (
	"context"
	"fmt"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/utils"
)

// IngestMode selects how ingestion treats an existing table.
type IngestMode string

const (
	// IngestCreate creates the table and fails if it already exists.
	IngestCreate IngestMode = adbc.OptionValueIngestModeCreate
	// IngestAppend appends to an existing table.
	IngestAppend IngestMode = adbc.OptionValueIngestModeAppend
	// IngestReplace drops any existing table and recreates it.
	IngestReplace IngestMode = adbc.OptionValueIngestModeReplace
)

// Target represents a database that can receive generated datasets.
type Target interface {
	// Name identifies the engine for logs and metrics.
	Name() string
	// OpenConnection creates a new connection to the database.
	OpenConnection() (Connection, error)
	// Close closes the database and all its connections.
	Close()
	// ConnCount returns the number of open connections.
	ConnCount() int
}

// Connection represents a database connection that can execute statements
// and ingest record batches.
type Connection interface {
	// Exec executes a statement that doesn't return results.
	Exec(ctx context.Context, sql string) (int64, error)
	// Query executes a query and returns results. The caller closes the
	// returned reader and statement.
	Query(ctx context.Context, sql string) (array.RecordReader, adbc.Statement, int64, error)
	// IngestRecord loads one record into table according to mode and
	// returns the number of rows affected, or -1 if unknown.
	IngestRecord(ctx context.Context, record arrow.Record, table string, mode IngestMode) (int64, error)
	// IngestReader streams every batch of reader into table as one
	// ingestion and returns the number of rows loaded.
	IngestReader(ctx context.Context, reader core.DatasetReader, table string, mode IngestMode) (int64, error)
	// GetTableSchema returns the schema for a table.
	GetTableSchema(ctx context.Context, catalog, schema *string, table string) (*arrow.Schema, error)
	// Close closes the connection.
	Close()
}

// OpenTarget constructs a Target by engine name. DuckDB interprets the Path
// option as a database file, PostgreSQL as a connection URI.
func OpenTarget(name string, options ...Option) (Target, error) {
	switch name {
	case "duckdb":
		return NewDuckDB(options...)
	case "postgres", "postgresql":
		return NewPostgres(options...)
	default:
		return nil, fmt.Errorf("unknown ingest target %q (supported: duckdb, postgres)", name)
	}
}

// Ingest opens a connection on target, loads the dataset behind reader into
// table, and closes the connection. Open a Connection directly to run
// several loads over one connection.
func Ingest(ctx context.Context, target Target, reader core.DatasetReader, table string, mode IngestMode) (int64, error) {
	conn, err := target.OpenConnection()
	if err != nil {
		return -1, fmt.Errorf("failed to connect to %s: %w", target.Name(), err)
	}
	defer conn.Close()

	return conn.IngestReader(ctx, reader, table, mode)
}

// ingestStatement prepares a statement configured for bulk ingestion.
func ingestStatement(conn adbc.Connection, table string, mode IngestMode) (adbc.Statement, error) {
	stmt, err := conn.NewStatement()
	if err != nil {
		return nil, fmt.Errorf("failed to create statement: %w", err)
	}
	if err := stmt.SetOption(adbc.OptionKeyIngestTargetTable, table); err != nil {
		stmt.Close()
		return nil, fmt.Errorf("failed to set target table: %w", err)
	}
	if err := stmt.SetOption(adbc.OptionKeyIngestMode, string(mode)); err != nil {
		stmt.Close()
		return nil, fmt.Errorf("failed to set ingest mode: %w", err)
	}
	return stmt, nil
}

// ingestRecord loads one record through a fresh statement on conn. The C
// driver manager binds streams, so the record travels as a single-batch
// stream; the statement owns the extra reference taken here.
func ingestRecord(ctx context.Context, conn adbc.Connection, record arrow.Record, table string, mode IngestMode) (int64, error) {
	stmt, err := ingestStatement(conn, table, mode)
	if err != nil {
		return -1, err
	}
	defer stmt.Close()

	record.Retain()
	stream := utils.NewSingleRecordReader(record)
	if err := stmt.BindStream(ctx, stream); err != nil {
		stream.Release()
		return -1, fmt.Errorf("failed to bind record stream: %w", err)
	}

	affected, err := stmt.ExecuteUpdate(ctx)
	if err != nil {
		return -1, fmt.Errorf("failed to ingest into %s: %w", table, err)
	}
	return affected, nil
}

// ingestDataset streams the whole dataset through one statement on conn.
// Returns the number of rows streamed; the driver's own count is used only
// when it reports one and the stream stayed healthy.
func ingestDataset(ctx context.Context, conn adbc.Connection, reader core.DatasetReader, table string, mode IngestMode) (int64, error) {
	stmt, err := ingestStatement(conn, table, mode)
	if err != nil {
		return -1, err
	}
	defer stmt.Close()

	stream := newDatasetStream(ctx, reader)
	if err := stmt.BindStream(ctx, stream); err != nil {
		stream.Release()
		return -1, fmt.Errorf("failed to bind dataset stream: %w", err)
	}

	affected, err := stmt.ExecuteUpdate(ctx)
	if err != nil {
		return -1, fmt.Errorf("failed to ingest into %s: %w", table, err)
	}
	if err := stream.Err(); err != nil {
		return stream.Rows(), fmt.Errorf("dataset stream failed during ingest: %w", err)
	}
	if affected < 0 {
		affected = stream.Rows()
	}
	return affected, nil
}
