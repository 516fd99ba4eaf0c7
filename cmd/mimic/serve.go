package main

import (
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/mimic/api"
	"github.com/TFMV/mimic/config"
	"github.com/TFMV/mimic/logger"
)

// ServeOptions represents the options for the serve command.
type ServeOptions struct {
	Port    int
	Prefork bool
}

// newServeCommand creates a new serve command.
func newServeCommand() *cobra.Command {
	defaults := config.Default()
	options := &ServeOptions{
		Port:    defaults.Server.Port,
		Prefork: defaults.Server.Prefork,
	}

	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Run the Mimic HTTP generation service",
		Long: `The serve command starts an HTTP service exposing dataset generation:
POST /generate synthesizes and persists a dataset, GET /estimate previews
row counts, and GET /metrics exposes Prometheus counters.

The loaded configuration supplies the defaults a generate request starts
from; request bodies override individual fields.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, options)
		},
	}

	// Add flags
	cmd.Flags().IntVarP(&options.Port, "port", "p", options.Port, "Port to listen on")
	cmd.Flags().BoolVar(&options.Prefork, "prefork", options.Prefork, "Serve through multiple OS processes")

	return cmd
}

// runServe executes the serve command with the given options.
func runServe(cmd *cobra.Command, options *ServeOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("port") {
		options.Port = cfg.Server.Port
	}
	if !flags.Changed("prefork") {
		options.Prefork = cfg.Server.Prefork
	}
	cfg.Server.Port = options.Port
	cfg.Server.Prefork = options.Prefork
	if err := cfg.Server.Validate(); err != nil {
		return err
	}

	logger.GetLogger().Info("starting Mimic API",
		zap.Int("port", options.Port),
		zap.Bool("prefork", options.Prefork))

	srv := api.NewServer(api.ServerOptions{
		Port:    strconv.Itoa(options.Port),
		Prefork: options.Prefork,
		Config:  cfg,
	})
	return srv.Start()
}
