package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TFMV/mimic/pkg/gen"
	"github.com/TFMV/mimic/pkg/schema"
	"github.com/TFMV/mimic/utils"
)

// EstimateOptions represents the options for the estimate command.
type EstimateOptions struct {
	Schema     string
	Columns    int
	TableBytes string
	JSON       bool
}

// estimateResult mirrors what generate would produce for these parameters.
type estimateResult struct {
	Schema      string `json:"schema"`
	Columns     int    `json:"columns"`
	TableBytes  int64  `json:"table_bytes"`
	BytesPerRow int64  `json:"bytes_per_row"`
	Rows        int64  `json:"rows"`
}

// newEstimateCommand creates a new estimate command.
func newEstimateCommand() *cobra.Command {
	options := &EstimateOptions{}

	cmd := &cobra.Command{
		Use:   "estimate [flags]",
		Short: "Preview the row count a byte budget buys",
		Long: `The estimate command computes the row count that generate would produce
for a schema, column count, and byte budget, without generating anything.

The estimate uses fixed per-type element widths, so the in-memory table may
differ somewhat from the budget for variable-width columns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, options)
		},
	}

	// Add flags
	cmd.Flags().StringVar(&options.Schema, "schema", "", "Comma-separated column type list")
	cmd.Flags().IntVarP(&options.Columns, "columns", "c", 0, "Total number of columns")
	cmd.Flags().StringVarP(&options.TableBytes, "size", "s", "", "Target in-memory table size (e.g. 512MiB)")
	cmd.Flags().BoolVar(&options.JSON, "json", false, "Print the estimate as JSON")

	return cmd
}

// runEstimate executes the estimate command with the given options.
func runEstimate(cmd *cobra.Command, options *EstimateOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("schema") {
		options.Schema = cfg.Generation.Schema
	}
	if !flags.Changed("columns") {
		options.Columns = cfg.Generation.Columns
	}
	if !flags.Changed("size") {
		options.TableBytes = cfg.Generation.TableBytes
	}

	tags, err := schema.Parse(options.Schema)
	if err != nil {
		return err
	}
	if options.Columns < 1 {
		return fmt.Errorf("column count must be positive, got %d", options.Columns)
	}
	size, err := utils.ParseBytes(options.TableBytes)
	if err != nil {
		return err
	}

	repeated := schema.Repeat(tags, options.Columns)
	rows, err := gen.RowCount(repeated, size)
	if err != nil {
		return err
	}

	var rowBytes int64
	for _, tag := range repeated {
		b, err := gen.AvgElementBytes(tag)
		if err != nil {
			return err
		}
		rowBytes += b
	}

	result := estimateResult{
		Schema:      options.Schema,
		Columns:     options.Columns,
		TableBytes:  size,
		BytesPerRow: rowBytes,
		Rows:        int64(rows),
	}

	if options.JSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode estimate: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Printf("Schema:        %s\n", schema.Format(repeated))
	cmd.Printf("Columns:       %d\n", result.Columns)
	cmd.Printf("Budget:        %s\n", utils.FormatBytes(result.TableBytes))
	cmd.Printf("Bytes per row: %d\n", result.BytesPerRow)
	cmd.Printf("Rows:          %s\n", utils.FormatCount(result.Rows))
	return nil
}
