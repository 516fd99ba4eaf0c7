package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/mimic/internal/inspect"
	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/pkg/readers"
	"github.com/TFMV/mimic/utils"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: inspect_dataset <file>")
		os.Exit(1)
	}

	filePath := os.Args[1]
	fileType := "parquet"
	lowercase := strings.ToLower(filePath)
	if strings.HasSuffix(lowercase, ".arrow") || strings.HasSuffix(lowercase, ".ipc") {
		fileType = "arrow"
	}

	reader, err := readers.DefaultFactory.Create(core.ReaderConfig{Type: fileType, Path: filePath})
	if err != nil {
		fmt.Printf("Error creating reader: %v\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	record, err := readers.ReadAll(context.Background(), memory.NewGoAllocator(), reader)
	if err != nil {
		fmt.Printf("Error reading dataset: %v\n", err)
		os.Exit(1)
	}
	defer record.Release()

	// Print file metadata
	fmt.Printf("File: %s\n", filePath)
	fmt.Printf("Number of rows: %d\n", record.NumRows())
	fmt.Printf("Number of columns: %d\n", record.NumCols())

	// Print schema
	fmt.Println("\nSchema:")
	for i, field := range record.Schema().Fields() {
		fmt.Printf("  Field %d: %s (%s)\n", i, field.Name, field.Type)
	}

	// Print per-column statistics
	fmt.Println("\nColumn statistics:")
	var total int64
	for _, st := range inspect.Record(record) {
		fmt.Printf("  %-8s %-16s nulls=%d (%.2f%%) distinct=%d runs=%d mean_run=%.2f bytes=%s\n",
			st.Name, st.Type, st.Nulls, st.NullRatio*100, st.Distinct,
			st.Runs, st.MeanRunLen, utils.FormatBytes(st.Bytes))
		total += st.Bytes
	}
	fmt.Printf("\nIn-memory size: %s\n", utils.FormatBytes(total))

	printRows(record, 5)
}

func printRows(record arrow.Record, maxRows int) {
	numRows := int(record.NumRows())
	if numRows > maxRows {
		numRows = maxRows
	}

	fmt.Printf("\nFirst %d rows:\n", numRows)
	for i := 0; i < numRows; i++ {
		fmt.Printf("Row %d: [", i)
		for j, col := range record.Columns() {
			if j > 0 {
				fmt.Print(", ")
			}
			if col.IsNull(i) {
				fmt.Print("NULL")
			} else {
				fmt.Printf("%v", col.GetOneForMarshal(i))
			}
		}
		fmt.Println("]")
	}
}
