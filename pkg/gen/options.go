package gen

import (
	"fmt"
	"runtime"

	"github.com/TFMV/mimic/pkg/core"
)

// Profile holds the per-column generation knobs. The zero value disables
// nulls, pooling, and run replication; DefaultProfile returns the standard
// realistic profile.
type Profile struct {
	// NullFrequency is the probability that any generated row is invalid.
	// Zero forces every row valid without consuming a validity draw.
	NullFrequency float64

	// Cardinality bounds the pool of distinct sample values a column draws
	// from. Zero disables pooling: every row generates a fresh value.
	Cardinality int

	// AvgRunLength is the mean number of consecutive rows sharing one
	// sampled value. Values below 2 disable run replication.
	AvgRunLength int

	// AvgStringLength is the mean length of generated string content.
	AvgStringLength int
}

// DefaultProfile returns the standard profile: 1% nulls, a pool of 1000
// distinct values, runs of 4 rows on average, strings of 16 characters on
// average.
func DefaultProfile() Profile {
	return Profile{
		NullFrequency:   0.01,
		Cardinality:     1000,
		AvgRunLength:    4,
		AvgStringLength: 16,
	}
}

// Validate reports whether the profile can drive generation.
func (p Profile) Validate() error {
	switch {
	case p.NullFrequency < 0 || p.NullFrequency > 1:
		return fmt.Errorf("null frequency %v outside [0, 1]: %w", p.NullFrequency, core.ErrInvalidConfiguration)
	case p.Cardinality < 0:
		return fmt.Errorf("negative cardinality %d: %w", p.Cardinality, core.ErrInvalidConfiguration)
	case p.AvgRunLength < 0:
		return fmt.Errorf("negative average run length %d: %w", p.AvgRunLength, core.ErrInvalidConfiguration)
	case p.AvgStringLength < 0:
		return fmt.Errorf("negative average string length %d: %w", p.AvgStringLength, core.ErrInvalidConfiguration)
	}
	return nil
}

// Options configures a table generation run.
type Options struct {
	// Seed initializes the root engine.
	Seed uint64

	// Workers is the number of parallel workers. Zero means one per CPU.
	// Output is deterministic for a fixed (seed, worker count) pair; a
	// different worker count partitions the columns differently and
	// produces different data for the same seed.
	Workers int

	// Profile holds the per-column generation knobs.
	Profile Profile
}

// DefaultOptions returns the documented default seed, one worker per CPU,
// and the default profile.
func DefaultOptions() Options {
	return Options{
		Seed:    DefaultSeed,
		Workers: runtime.NumCPU(),
		Profile: DefaultProfile(),
	}
}
