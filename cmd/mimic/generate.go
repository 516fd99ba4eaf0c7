package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/mimic/config"
	"github.com/TFMV/mimic/logger"
	"github.com/TFMV/mimic/metrics"
	"github.com/TFMV/mimic/pkg/core"
	"github.com/TFMV/mimic/pkg/gen"
	"github.com/TFMV/mimic/pkg/schema"
	"github.com/TFMV/mimic/pkg/writers"
	"github.com/TFMV/mimic/report"
	"github.com/TFMV/mimic/utils"
)

// GenerateOptions represents the options for the generate command.
type GenerateOptions struct {
	Schema          string
	Columns         int
	TableBytes      string
	Seed            uint64
	Workers         int
	NullFrequency   float64
	Cardinality     int
	AvgRunLength    int
	AvgStringLength int
	OutputPath      string
	Format          string
	Compression     string
	ReportPath      string
	Quiet           bool
}

// newGenerateCommand creates a new generate command.
func newGenerateCommand() *cobra.Command {
	defaults := config.Default()
	options := &GenerateOptions{
		Schema:          defaults.Generation.Schema,
		Columns:         defaults.Generation.Columns,
		TableBytes:      defaults.Generation.TableBytes,
		Seed:            defaults.Generation.Seed,
		Workers:         defaults.Generation.Workers,
		NullFrequency:   defaults.Generation.NullFrequency,
		Cardinality:     defaults.Generation.Cardinality,
		AvgRunLength:    defaults.Generation.AvgRunLength,
		AvgStringLength: defaults.Generation.AvgStringLength,
		OutputPath:      defaults.Output.Path,
		Format:          defaults.Output.Format,
		Compression:     defaults.Output.Compression,
	}

	cmd := &cobra.Command{
		Use:   "generate [flags]",
		Short: "Synthesize a dataset and write it to a file",
		Long: `The generate command synthesizes a columnar dataset from a type list, a
column count, and a byte budget, then writes it to Parquet, Arrow IPC, or JSON.

The same seed, worker count, and profile always reproduce the same dataset,
so a generated file can later be checked with "mimic verify" using only the
parameters printed here.

Supported column types: ` + strings.Join(schema.Supported(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, options)
		},
	}

	// Add flags
	cmd.Flags().StringVar(&options.Schema, "schema", options.Schema, "Comma-separated column type list, repeated cyclically across columns")
	cmd.Flags().IntVarP(&options.Columns, "columns", "c", options.Columns, "Total number of columns")
	cmd.Flags().StringVarP(&options.TableBytes, "size", "s", options.TableBytes, "Target in-memory table size (e.g. 512MiB, 2GiB)")
	cmd.Flags().Uint64Var(&options.Seed, "seed", options.Seed, "Root seed for deterministic generation")
	cmd.Flags().IntVarP(&options.Workers, "workers", "w", options.Workers, "Parallel workers (0 = one per CPU; affects output partitioning)")
	cmd.Flags().Float64Var(&options.NullFrequency, "null-frequency", options.NullFrequency, "Fraction of null values per column [0,1]")
	cmd.Flags().IntVar(&options.Cardinality, "cardinality", options.Cardinality, "Distinct value bound per column (0 = unbounded)")
	cmd.Flags().IntVar(&options.AvgRunLength, "run-length", options.AvgRunLength, "Average length of repeated value runs (0 = none)")
	cmd.Flags().IntVar(&options.AvgStringLength, "string-length", options.AvgStringLength, "Average string length in bytes")
	cmd.Flags().StringVarP(&options.OutputPath, "output", "o", options.OutputPath, "Output file path")
	cmd.Flags().StringVarP(&options.Format, "format", "f", options.Format, "Output format (parquet, arrow, json)")
	cmd.Flags().StringVar(&options.Compression, "compression", options.Compression, "Parquet compression (snappy, zstd, gzip, brotli, lz4, none)")
	cmd.Flags().StringVar(&options.ReportPath, "report", "", "Base path for generation reports (writes <base>.json and <base>.html)")
	cmd.Flags().BoolVarP(&options.Quiet, "quiet", "q", false, "Disable progress output")

	return cmd
}

// applyGenerateConfig fills every option the caller did not set on the
// command line from the loaded configuration.
func applyGenerateConfig(cmd *cobra.Command, options *GenerateOptions, cfg *config.Config) {
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
	if !flags.Changed("output") {
		options.OutputPath = cfg.Output.Path
	}
	if !flags.Changed("format") {
		options.Format = cfg.Output.Format
	}
	if !flags.Changed("compression") {
		options.Compression = cfg.Output.Compression
	}
}

// generationConfig converts the merged options back into the config shape so
// the shared validation runs against what will actually execute.
func (o *GenerateOptions) generationConfig() (config.GenerationConfig, config.OutputConfig) {
	return config.GenerationConfig{
			Schema:          o.Schema,
			Columns:         o.Columns,
			TableBytes:      o.TableBytes,
			Seed:            o.Seed,
			Workers:         o.Workers,
			NullFrequency:   o.NullFrequency,
			Cardinality:     o.Cardinality,
			AvgRunLength:    o.AvgRunLength,
			AvgStringLength: o.AvgStringLength,
		}, config.OutputConfig{
			Path:        o.OutputPath,
			Format:      o.Format,
			Compression: o.Compression,
		}
}

// runGenerate executes the generate command with the given options.
func runGenerate(cmd *cobra.Command, options *GenerateOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyGenerateConfig(cmd, options, cfg)

	genCfg, outCfg := options.generationConfig()
	if err := genCfg.Validate(); err != nil {
		return err
	}
	if err := outCfg.Validate(); err != nil {
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

	log := logger.GetLogger()
	log.Info("generating dataset",
		zap.String("schema", genCfg.Schema),
		zap.Int("columns", genCfg.Columns),
		zap.Int64("table_bytes", size),
		zap.Uint64("seed", genCfg.Seed),
		zap.Int("workers", genCfg.Workers))

	spin := startSpinner(fmt.Sprintf(" generating %s (%s x %d)...",
		utils.FormatBytes(size), genCfg.Schema, genCfg.Columns), options.Quiet)

	start := time.Now()
	record, err := gen.Table(tags, genCfg.Columns, size, genCfg.Options())
	if err != nil {
		stopSpinner(spin)
		metrics.Default.GenerationFailed()
		return fmt.Errorf("generation failed: %w", err)
	}
	defer record.Release()
	genElapsed := time.Since(start)
	metrics.Default.GenerationSucceeded(record.NumRows(), schema.Repeat(tags, int(record.NumCols())), genElapsed)

	writeStart := time.Now()
	writer, err := writers.DefaultFactory.Create(core.WriterConfig{
		Type:        outCfg.Format,
		Path:        outCfg.Path,
		Compression: outCfg.Compression,
	})
	if err != nil {
		stopSpinner(spin)
		return fmt.Errorf("failed to create writer: %w", err)
	}
	if err := writer.Write(ctx, record); err != nil {
		writer.Close()
		stopSpinner(spin)
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := writer.Close(); err != nil {
		stopSpinner(spin)
		return fmt.Errorf("failed to close writer: %w", err)
	}
	stopSpinner(spin)
	metrics.Default.StageCompleted(metrics.StageWrite, time.Since(writeStart))

	var outputBytes int64
	if fi, statErr := os.Stat(outCfg.Path); statErr == nil {
		outputBytes = fi.Size()
		metrics.Default.BytesWritten(outCfg.Format, outputBytes)
	}

	run := report.New(record, report.RunInfo{
		Schema:       genCfg.Schema,
		Seed:         genCfg.Seed,
		Workers:      genCfg.Workers,
		OutputPath:   outCfg.Path,
		OutputFormat: outCfg.Format,
		OutputBytes:  outputBytes,
		Elapsed:      genElapsed,
	})

	// Workers resolve to the CPU count inside the generator; the replay
	// hint must pin the resolved value or it will not reproduce elsewhere.
	replayWorkers := genCfg.Workers
	if replayWorkers == 0 {
		replayWorkers = runtime.NumCPU()
	}

	cmd.Printf("Generated %s rows x %d columns (%s in memory) in %s\n",
		utils.FormatCount(record.NumRows()), int(record.NumCols()),
		utils.FormatBytes(run.Dataset.Bytes), utils.FormatDuration(genElapsed))
	cmd.Printf("Wrote %s (%s, %s, %s)\n",
		outCfg.Path, outCfg.Format, utils.FormatBytes(outputBytes),
		utils.FormatRate(run.Dataset.Bytes, genElapsed))
	cmd.Printf("Replay: --schema %s --columns %d --size %s --seed %d --workers %d\n",
		genCfg.Schema, genCfg.Columns, genCfg.TableBytes, genCfg.Seed, replayWorkers)

	if options.ReportPath != "" {
		jsonPath := options.ReportPath + ".json"
		htmlPath := options.ReportPath + ".html"
		if err := report.SaveReports(run, jsonPath, htmlPath); err != nil {
			return fmt.Errorf("failed to save reports: %w", err)
		}
		cmd.Printf("Reports written to %s and %s\n", jsonPath, htmlPath)
	}

	log.Info("dataset generated",
		zap.Int64("rows", record.NumRows()),
		zap.Int64("output_bytes", outputBytes),
		zap.String("output_path", outCfg.Path),
		zap.Duration("elapsed", genElapsed))

	return nil
}

// startSpinner returns a started progress spinner on stderr, or nil when
// quiet. Pair with stopSpinner, which tolerates nil.
func startSpinner(suffix string, quiet bool) *spinner.Spinner {
	if quiet {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	s.Start()
	return s
}

// stopSpinner stops a spinner started by startSpinner.
func stopSpinner(s *spinner.Spinner) {
	if s != nil {
		s.Stop()
	}
}
