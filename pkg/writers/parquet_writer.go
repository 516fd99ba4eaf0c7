package writers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/TFMV/mimic/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ParquetWriter implements a writer for Parquet files.
type ParquetWriter struct {
	writer     *pqarrow.FileWriter
	file       *os.File
	schema     *arrow.Schema
	codec      compress.Compression
	properties pqarrow.ArrowWriterProperties
}

// NewParquetWriter creates a new Parquet writer.
func NewParquetWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet writer")
	}

	// Resolve the compression codec before touching the filesystem
	codec, err := parquetCodec(config.Compression)
	if err != nil {
		return nil, err
	}

	// Create file
	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create Parquet file: %w", err)
	}

	// Store the Arrow schema in the file metadata so durations and
	// timestamp units read back exactly as generated
	properties := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	// We will create the writer when we receive the first record
	// because we need the schema
	return &ParquetWriter{
		file:       file,
		codec:      codec,
		properties: properties,
	}, nil
}

// SupportedCompression reports whether name maps to a Parquet compression
// codec this writer accepts.
func SupportedCompression(name string) bool {
	_, err := parquetCodec(name)
	return err == nil
}

// parquetCodec maps a configured compression name to a Parquet codec.
// The empty string selects Snappy, the default for generated datasets.
func parquetCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed,
			fmt.Errorf("unsupported compression codec %q: %w", name, core.ErrInvalidConfiguration)
	}
}

// Write writes a record to the file.
func (w *ParquetWriter) Write(ctx context.Context, record arrow.Record) error {
	// Check if context is canceled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// If this is the first record, initialize the writer
	if w.writer == nil {
		// Get schema from record
		schema := record.Schema()

		// Dictionary encoding is disabled so that on-disk pages mirror the
		// run-length structure of the generated columns
		writeProps := parquet.NewWriterProperties(
			parquet.WithCompression(w.codec),
			parquet.WithDictionaryDefault(false),
		)

		// Create file writer
		writer, err := pqarrow.NewFileWriter(
			schema,
			w.file,
			writeProps,
			w.properties,
		)
		if err != nil {
			return fmt.Errorf("failed to create Parquet writer: %w", err)
		}

		w.writer = writer
		w.schema = schema
	}

	// Every batch of a dataset must carry the schema of the first batch
	if !w.schema.Equal(record.Schema()) {
		return fmt.Errorf("record schema does not match dataset schema: %w", core.ErrInvalidConfiguration)
	}

	// Write the record
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	return nil
}

// Close closes the writer and flushes any pending data.
func (w *ParquetWriter) Close() error {
	var err error

	// Close the writer
	if w.writer != nil {
		if closeErr := w.writer.Close(); closeErr != nil {
			err = closeErr
		}
	}

	// Close the file
	if w.file != nil {
		if closeErr := w.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	return err
}
