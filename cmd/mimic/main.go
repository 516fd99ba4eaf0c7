// Package main provides the entry point for the Mimic dataset synthesizer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TFMV/mimic/config"
	"github.com/TFMV/mimic/logger"
	"github.com/TFMV/mimic/version"
)

// Main entry point for the Mimic tool
func main() {
	defer logger.Sync()

	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newRootCommand assembles the full command tree.
func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mimic",
		Short: "Mimic synthesizes deterministic columnar benchmark datasets",
		Long: `Mimic synthesizes columnar test datasets for benchmarking analytic engines.
Given a list of column types and a byte budget, it produces an Arrow table
with controlled null density, value repetition, and cardinality, writes it
to Parquet, Arrow IPC, or JSON, and can replay the exact same dataset from
the seed alone.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (MIMIC_ env vars override it)")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of Mimic",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Mimic %s (built %s)\n", version.GetVersion(), version.GetBuildDate())
		},
	})

	// Add subcommands
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newEstimateCommand())
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newIngestCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}

// loadConfig resolves the configuration a command runs under: the file named
// by --config when given, otherwise built-in defaults plus MIMIC_ environment
// overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path = ""
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
