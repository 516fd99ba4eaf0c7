package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/TFMV/mimic/config"
	"github.com/TFMV/mimic/logger"
	"github.com/TFMV/mimic/metrics"
	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/pkg/gen"
	"github.com/TFMV/mimic/pkg/readers"
	"github.com/TFMV/mimic/validation"
)

// ValidateOptions represents the options for the validate command.
type ValidateOptions struct {
	Path            string
	Type            string
	NullFrequency   float64
	Cardinality     int
	AvgRunLength    int
	AvgStringLength int
	ExpectedRows    int64
	ExpectedColumns int
	JSON            bool
}

// newValidateCommand creates a new validate command.
func newValidateCommand() *cobra.Command {
	defaults := config.Default()
	options := &ValidateOptions{
		Type:            "auto",
		NullFrequency:   defaults.Generation.NullFrequency,
		Cardinality:     defaults.Generation.Cardinality,
		AvgRunLength:    defaults.Generation.AvgRunLength,
		AvgStringLength: defaults.Generation.AvgStringLength,
	}

	cmd := &cobra.Command{
		Use:   "validate [flags] PATH",
		Short: "Check that a dataset matches its generation profile statistically",
		Long: `The validate command reads a dataset and checks its realism statistics
against a generation profile: null ratios, run-length structure, distinct
value counts, and string buffer integrity.

Unlike verify, validate needs no seed; it judges distributions, not exact
values, so it also works on datasets generated elsewhere.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Path = args[0]
			return runValidate(cmd, options)
		},
	}

	// Add flags
	cmd.Flags().StringVar(&options.Type, "type", options.Type, "Dataset file type (auto, parquet, arrow)")
	cmd.Flags().Float64Var(&options.NullFrequency, "null-frequency", options.NullFrequency, "Expected null fraction per column")
	cmd.Flags().IntVar(&options.Cardinality, "cardinality", options.Cardinality, "Expected distinct value bound per column")
	cmd.Flags().IntVar(&options.AvgRunLength, "run-length", options.AvgRunLength, "Expected average run length")
	cmd.Flags().IntVar(&options.AvgStringLength, "string-length", options.AvgStringLength, "Expected average string length")
	cmd.Flags().Int64Var(&options.ExpectedRows, "expect-rows", 0, "Expected row count (0 = skip)")
	cmd.Flags().IntVar(&options.ExpectedColumns, "expect-columns", 0, "Expected column count (0 = skip)")
	cmd.Flags().BoolVar(&options.JSON, "json", false, "Print the report as JSON")

	return cmd
}

// runValidate executes the validate command with the given options.
func runValidate(cmd *cobra.Command, options *ValidateOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("null-frequency") {
		options.NullFrequency = cfg.Generation.NullFrequency
	}
	if !flags.Changed("cardinality") {
		options.Cardinality = cfg.Generation.Cardinality
	}
	if !flags.Changed("run-length") {
		options.AvgRunLength = cfg.Generation.AvgRunLength
	}
	if !flags.Changed("string-length") {
		options.AvgStringLength = cfg.Generation.AvgStringLength
	}

	prof := gen.Profile{
		NullFrequency:   options.NullFrequency,
		Cardinality:     options.Cardinality,
		AvgRunLength:    options.AvgRunLength,
		AvgStringLength: options.AvgStringLength,
	}
	if err := prof.Validate(); err != nil {
		return err
	}

	if options.Type == "auto" {
		options.Type = detectType(options.Path)
	}

	reader, err := readers.DefaultFactory.Create(core.ReaderConfig{
		Type: options.Type,
		Path: options.Path,
	})
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Close()

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	go func() {
		<-sig
		fmt.Println("\nCancelling operation...")
		cancel()
	}()

	record, err := readers.ReadAll(ctx, memory.NewGoAllocator(), reader)
	if err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}
	defer record.Release()

	validator := validation.NewValidator(prof, logger.GetLogger())
	validator.ExpectedRows = options.ExpectedRows
	validator.ExpectedCols = options.ExpectedColumns

	start := time.Now()
	rep, err := validator.Validate(ctx, record)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	metrics.Default.StageCompleted(metrics.StageValidate, time.Since(start))

	if options.JSON {
		out, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		cmd.Println(string(out))
	} else {
		printValidateReport(cmd, options.Path, rep)
	}

	if !rep.Status {
		return fmt.Errorf("dataset failed %d of %d checks", rep.Failed, len(rep.Checks))
	}
	return nil
}

// printValidateReport prints a validation report in the plain text format.
func printValidateReport(cmd *cobra.Command, path string, rep validation.Report) {
	cmd.Printf("Validated: %s (%d rows, %d columns)\n\n", path, rep.Rows, rep.Columns)

	for _, c := range rep.Checks {
		status := "ok  "
		if !c.Status {
			status = "FAIL"
		}
		target := c.Column
		if target == "" {
			target = "-"
		}
		line := fmt.Sprintf("  [%s] %-15s %-8s observed %.4f expected %.4f", status, c.Check, target, c.Observed, c.Expected)
		if c.Allowed > 0 {
			line += fmt.Sprintf(" (±%.4f)", c.Allowed)
		}
		if c.Detail != "" {
			line += "  " + c.Detail
		}
		cmd.Println(line)
	}

	cmd.Printf("\nChecks: %d, failed: %d\n", len(rep.Checks), rep.Failed)
	if rep.Status {
		cmd.Println("Dataset matches its profile.")
	}
}
