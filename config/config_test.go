package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/mimic/pkg/gen"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, gen.DefaultSeed, cfg.Generation.Seed)
	assert.Equal(t, 8, cfg.Generation.Columns)
	assert.Equal(t, "256MiB", cfg.Generation.TableBytes)
	assert.Equal(t, "parquet", cfg.Output.Format)
	assert.Equal(t, 8080, cfg.Server.Port)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	yaml := `
generation:
  schema: "int32,string"
  columns: 4
  table_bytes: 64MiB
  seed: 7
  null_frequency: 0.25
output:
  path: /tmp/out.arrow
  format: arrow
server:
  port: 9090
`
	path := filepath.Join(t.TempDir(), "mimic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "int32,string", cfg.Generation.Schema)
	assert.Equal(t, 4, cfg.Generation.Columns)
	assert.Equal(t, uint64(7), cfg.Generation.Seed)
	assert.Equal(t, 0.25, cfg.Generation.NullFrequency)
	assert.Equal(t, "arrow", cfg.Output.Format)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Unset keys keep their defaults
	assert.Equal(t, gen.DefaultProfile().AvgRunLength, cfg.Generation.AvgRunLength)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("MIMIC_GENERATION_SEED", "42")
	t.Setenv("MIMIC_OUTPUT_FORMAT", "arrow")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, uint64(42), cfg.Generation.Seed)
	assert.Equal(t, "arrow", cfg.Output.Format)
}

func TestGenerationAccessors(t *testing.T) {
	g := GenerationConfig{
		TableBytes:      "64KiB",
		Seed:            3,
		Workers:         2,
		NullFrequency:   0.1,
		Cardinality:     50,
		AvgRunLength:    6,
		AvgStringLength: 12,
	}

	size, err := g.Bytes()
	require.NoError(t, err)
	assert.Equal(t, int64(64<<10), size)

	opts := g.Options()
	assert.Equal(t, uint64(3), opts.Seed)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, gen.Profile{
		NullFrequency:   0.1,
		Cardinality:     50,
		AvgRunLength:    6,
		AvgStringLength: 12,
	}, opts.Profile)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown type tag", func(c *Config) { c.Generation.Schema = "int32,complex128" }},
		{"zero columns", func(c *Config) { c.Generation.Columns = 0 }},
		{"garbage table size", func(c *Config) { c.Generation.TableBytes = "lots" }},
		{"negative workers", func(c *Config) { c.Generation.Workers = -1 }},
		{"null frequency above one", func(c *Config) { c.Generation.NullFrequency = 1.5 }},
		{"empty output path", func(c *Config) { c.Output.Path = "" }},
		{"unsupported format", func(c *Config) { c.Output.Format = "csv" }},
		{"unsupported compression", func(c *Config) { c.Output.Compression = "deflate" }},
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig("")
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())

			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
