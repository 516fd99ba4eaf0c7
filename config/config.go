// Package config loads and validates generation, output, and server
// settings from a YAML file with environment overrides.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/TFMV/mimic/pkg/gen"
	"github.com/TFMV/mimic/pkg/schema"
	"github.com/TFMV/mimic/pkg/writers"
	"github.com/TFMV/mimic/utils"
)

// --- Configuration Structs ---

// GenerationConfig shapes the synthesized table. The json tags let the API
// accept the same shape over HTTP that the config file carries.
type GenerationConfig struct {
	Schema          string  `mapstructure:"schema" json:"schema"`
	Columns         int     `mapstructure:"columns" json:"columns"`
	TableBytes      string  `mapstructure:"table_bytes" json:"table_bytes"`
	Seed            uint64  `mapstructure:"seed" json:"seed"`
	Workers         int     `mapstructure:"workers" json:"workers"`
	NullFrequency   float64 `mapstructure:"null_frequency" json:"null_frequency"`
	Cardinality     int     `mapstructure:"cardinality" json:"cardinality"`
	AvgRunLength    int     `mapstructure:"avg_run_length" json:"avg_run_length"`
	AvgStringLength int     `mapstructure:"avg_string_length" json:"avg_string_length"`
}

// OutputConfig controls where and how datasets are persisted.
type OutputConfig struct {
	Path        string `mapstructure:"path" json:"path"`
	Format      string `mapstructure:"format" json:"format"`
	Compression string `mapstructure:"compression" json:"compression"`
}

// ServerConfig controls the HTTP generation service.
type ServerConfig struct {
	Port    int  `mapstructure:"port" json:"port"`
	Prefork bool `mapstructure:"prefork" json:"prefork"`
}

// Config is the root of the configuration tree.
type Config struct {
	Generation GenerationConfig `mapstructure:"generation"`
	Output     OutputConfig     `mapstructure:"output"`
	Server     ServerConfig     `mapstructure:"server"`
}

// --- Load Configuration ---

// Default returns the built-in configuration.
func Default() *Config {
	prof := gen.DefaultProfile()
	return &Config{
		Generation: GenerationConfig{
			Schema:          "int64,float64,string,ts_ms,bool",
			Columns:         8,
			TableBytes:      "256MiB",
			Seed:            gen.DefaultSeed,
			Workers:         0, // one per CPU
			NullFrequency:   prof.NullFrequency,
			Cardinality:     prof.Cardinality,
			AvgRunLength:    prof.AvgRunLength,
			AvgStringLength: prof.AvgStringLength,
		},
		Output: OutputConfig{
			Path:        "mimic.parquet",
			Format:      "parquet",
			Compression: "snappy",
		},
		Server: ServerConfig{
			Port:    8080,
			Prefork: false,
		},
	}
}

// LoadConfig reads configPath and lays environment overrides (MIMIC_ prefix,
// e.g. MIMIC_GENERATION_SEED) over it. An empty path loads defaults and
// environment only.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MIMIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers the default for every key so environment overrides
// apply even without a config file.
func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("generation.schema", def.Generation.Schema)
	v.SetDefault("generation.columns", def.Generation.Columns)
	v.SetDefault("generation.table_bytes", def.Generation.TableBytes)
	v.SetDefault("generation.seed", def.Generation.Seed)
	v.SetDefault("generation.workers", def.Generation.Workers)
	v.SetDefault("generation.null_frequency", def.Generation.NullFrequency)
	v.SetDefault("generation.cardinality", def.Generation.Cardinality)
	v.SetDefault("generation.avg_run_length", def.Generation.AvgRunLength)
	v.SetDefault("generation.avg_string_length", def.Generation.AvgStringLength)

	v.SetDefault("output.path", def.Output.Path)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("output.compression", def.Output.Compression)

	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.prefork", def.Server.Prefork)
}

// --- Accessors ---

// Profile assembles the generation profile from the configured fields.
func (g *GenerationConfig) Profile() gen.Profile {
	return gen.Profile{
		NullFrequency:   g.NullFrequency,
		Cardinality:     g.Cardinality,
		AvgRunLength:    g.AvgRunLength,
		AvgStringLength: g.AvgStringLength,
	}
}

// Options assembles generator options from the configured fields.
func (g *GenerationConfig) Options() gen.Options {
	return gen.Options{
		Seed:    g.Seed,
		Workers: g.Workers,
		Profile: g.Profile(),
	}
}

// Bytes parses the configured table size.
func (g *GenerationConfig) Bytes() (int64, error) {
	return utils.ParseBytes(g.TableBytes)
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if err := c.Generation.Validate(); err != nil {
		return fmt.Errorf("generation config invalid: %w", err)
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config invalid: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config invalid: %w", err)
	}
	return nil
}

func (g *GenerationConfig) Validate() error {
	if _, err := schema.Parse(g.Schema); err != nil {
		return fmt.Errorf("schema list invalid: %w", err)
	}
	if err := validate(g.Columns > 0, "column count must be positive, got %d", g.Columns); err != nil {
		return err
	}
	size, err := g.Bytes()
	if err != nil {
		return fmt.Errorf("table size invalid: %w", err)
	}
	if err := validate(size > 0, "table size must be positive, got %d", size); err != nil {
		return err
	}
	if err := validate(g.Workers >= 0, "worker count cannot be negative, got %d", g.Workers); err != nil {
		return err
	}
	return g.Profile().Validate()
}

func (o *OutputConfig) Validate() error {
	if err := validate(o.Path != "", "output path is required"); err != nil {
		return err
	}
	formats := writers.DefaultFactory.Types()
	if err := validate(slices.Contains(formats, o.Format),
		"unsupported output format %q (supported: %s)", o.Format, strings.Join(formats, ", ")); err != nil {
		return err
	}
	if o.Format == "parquet" {
		return validate(writers.SupportedCompression(o.Compression),
			"unsupported compression codec %q", o.Compression)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	return validate(s.Port > 0 && s.Port < 65536, "server port must be in 1..65535, got %d", s.Port)
}
