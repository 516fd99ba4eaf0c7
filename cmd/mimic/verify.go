package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/mimic/config"
	"github.com/TFMV/mimic/logger"
	"github.com/TFMV/mimic/metrics"
	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/pkg/diff"
	"github.com/TFMV/mimic/pkg/readers"
	"github.com/TFMV/mimic/pkg/schema"
	"github.com/TFMV/mimic/utils"
)

// VerifyOptions represents the options for the verify command.
type VerifyOptions struct {
	Path            string
	Type            string
	Schema          string
	Columns         int
	TableBytes      string
	Seed            uint64
	Workers         int
	NullFrequency   float64
	Cardinality     int
	AvgRunLength    int
	AvgStringLength int
	MaxDivergences  int
	CompareWorkers  int
	JSON            bool
}

// newVerifyCommand creates a new verify command.
func newVerifyCommand() *cobra.Command {
	defaults := config.Default()
	options := &VerifyOptions{
		Type:            "auto",
		Schema:          defaults.Generation.Schema,
		Columns:         defaults.Generation.Columns,
		TableBytes:      defaults.Generation.TableBytes,
		Seed:            defaults.Generation.Seed,
		Workers:         defaults.Generation.Workers,
		NullFrequency:   defaults.Generation.NullFrequency,
		Cardinality:     defaults.Generation.Cardinality,
		AvgRunLength:    defaults.Generation.AvgRunLength,
		AvgStringLength: defaults.Generation.AvgStringLength,
	}

	cmd := &cobra.Command{
		Use:   "verify [flags] PATH",
		Short: "Check a stored dataset against its deterministic replay",
		Long: `The verify command regenerates a dataset from its generation parameters and
compares the stored file against the regeneration cell by cell.

The parameters must match the original run exactly, including the worker
count: a different worker count partitions the columns differently and
produces different data for the same seed. "mimic generate" prints a replay
hint with the resolved values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Path = args[0]
			return runVerify(cmd, options)
		},
	}

	// Add flags
	cmd.Flags().StringVar(&options.Type, "type", options.Type, "Dataset file type (auto, parquet, arrow)")
	cmd.Flags().StringVar(&options.Schema, "schema", options.Schema, "Comma-separated column type list used at generation time")
	cmd.Flags().IntVarP(&options.Columns, "columns", "c", options.Columns, "Total number of columns used at generation time")
	cmd.Flags().StringVarP(&options.TableBytes, "size", "s", options.TableBytes, "Byte budget used at generation time")
	cmd.Flags().Uint64Var(&options.Seed, "seed", options.Seed, "Root seed used at generation time")
	cmd.Flags().IntVarP(&options.Workers, "workers", "w", options.Workers, "Worker count used at generation time (0 = one per CPU)")
	cmd.Flags().Float64Var(&options.NullFrequency, "null-frequency", options.NullFrequency, "Null fraction used at generation time")
	cmd.Flags().IntVar(&options.Cardinality, "cardinality", options.Cardinality, "Cardinality bound used at generation time")
	cmd.Flags().IntVar(&options.AvgRunLength, "run-length", options.AvgRunLength, "Average run length used at generation time")
	cmd.Flags().IntVar(&options.AvgStringLength, "string-length", options.AvgStringLength, "Average string length used at generation time")
	cmd.Flags().IntVar(&options.MaxDivergences, "max-divergences", 0, "Cap on reported differing cells (0 = default)")
	cmd.Flags().IntVar(&options.CompareWorkers, "compare-workers", 0, "Columns compared in parallel (0 = default)")
	cmd.Flags().BoolVar(&options.JSON, "json", false, "Print the result as JSON")

	return cmd
}

// applyVerifyConfig fills replay parameters the caller did not set on the
// command line from the loaded configuration.
func applyVerifyConfig(cmd *cobra.Command, options *VerifyOptions, cfg *config.Config) {
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
	if !flags.Changed("seed") {
		options.Seed = cfg.Generation.Seed
	}
	if !flags.Changed("workers") {
		options.Workers = cfg.Generation.Workers
	}
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
}

// runVerify executes the verify command with the given options.
func runVerify(cmd *cobra.Command, options *VerifyOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyVerifyConfig(cmd, options, cfg)

	genCfg := config.GenerationConfig{
		Schema:          options.Schema,
		Columns:         options.Columns,
		TableBytes:      options.TableBytes,
		Seed:            options.Seed,
		Workers:         options.Workers,
		NullFrequency:   options.NullFrequency,
		Cardinality:     options.Cardinality,
		AvgRunLength:    options.AvgRunLength,
		AvgStringLength: options.AvgStringLength,
	}
	if err := genCfg.Validate(); err != nil {
		return err
	}

	tags, err := schema.Parse(genCfg.Schema)
	if err != nil {
		return err
	}
	size, err := genCfg.Bytes()
	if err != nil {
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

	checker := diff.NewChecker()
	defer checker.Close()

	start := time.Now()
	result, err := checker.Verify(ctx, reader, diff.ReplaySpec{
		Tags:       tags,
		NumCols:    genCfg.Columns,
		TableBytes: size,
		Opts:       genCfg.Options(),
	}, diff.Options{
		MaxDivergences: options.MaxDivergences,
		Workers:        options.CompareWorkers,
	})
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	metrics.Default.StageCompleted(metrics.StageVerify, time.Since(start))

	logger.GetLogger().Info("dataset verified",
		zap.String("path", options.Path),
		zap.Bool("equal", result.Equal),
		zap.Int64("diff_cells", result.DiffCells))

	if options.JSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		cmd.Println(string(out))
	} else {
		printVerifySummary(cmd, options.Path, result)
	}

	if !result.Equal {
		return fmt.Errorf("dataset does not match its replay: %d differing cells", result.DiffCells)
	}
	return nil
}

// printVerifySummary prints a verification result in the plain text format.
func printVerifySummary(cmd *cobra.Command, path string, result *diff.Result) {
	cmd.Printf("Verified: %s\n", path)
	cmd.Println("\nVerification Summary:")
	cmd.Printf("  Expected rows:   %d\n", result.ExpectedRows)
	cmd.Printf("  Actual rows:     %d\n", result.ActualRows)
	cmd.Printf("  Columns:         %d\n", result.Columns)
	cmd.Printf("  Differing cells: %d\n", result.DiffCells)
	cmd.Printf("  Elapsed:         %s\n", utils.FormatDuration(result.Elapsed))

	if len(result.Divergences) > 0 {
		cmd.Println("\nFirst divergences:")
		for _, d := range result.Divergences {
			cmd.Printf("  %s row %d: expected %s, got %s\n", d.Column, d.Row, d.Expected, d.Actual)
		}
	}

	if result.Equal {
		cmd.Println("\nDataset matches its replay.")
	}
}

// detectType detects the type of a dataset file based on its extension.
func detectType(path string) string {
	lowercase := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lowercase, ".arrow"), strings.HasSuffix(lowercase, ".ipc"):
		return "arrow"
	default:
		return "parquet"
	}
}
