// Package validation checks that a generated dataset carries the
// statistical shape its profile asked for: null density, run-length
// structure, bounded cardinality, and well-formed string buffers.
package validation

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"go.uber.org/zap"

	"github.com/TFMV/mimic/internal/inspect"
	"github.com/TFMV/mimic/pkg/gen"
)

// Check names as they appear in reports.
const (
	CheckRowCount    = "row_count"
	CheckColumnCount = "column_count"
	CheckNullRatio   = "null_ratio"
	CheckRunLength   = "run_length"
	CheckCardinality = "cardinality"
	CheckOffsets     = "string_offsets"
)

// Tolerances bounds the acceptable deviation between the requested profile
// and the observed statistics.
type Tolerances struct {
	// NullSigmas is the number of standard deviations of sampling noise
	// allowed on the realized null ratio.
	NullSigmas float64
	// RunLengthSlack is the relative slack on the mean run length.
	RunLengthSlack float64
	// MinStatRows is the row count below which the statistical checks are
	// skipped; small samples carry too much noise to judge.
	MinStatRows int64
}

// DefaultTolerances returns bounds loose enough for every supported
// profile yet tight enough to catch a wrong-profile dataset.
func DefaultTolerances() Tolerances {
	return Tolerances{
		NullSigmas:     5,
		RunLengthSlack: 0.5,
		MinStatRows:    1 << 10,
	}
}

// CheckResult records one check on one column, or on the table shape when
// Column is empty.
type CheckResult struct {
	Column   string  `json:"column,omitempty"`
	Check    string  `json:"check"`
	Observed float64 `json:"observed"`
	Expected float64 `json:"expected"`
	Allowed  float64 `json:"allowed,omitempty"`
	Status   bool    `json:"status"`
	Detail   string  `json:"detail,omitempty"`
}

// Report aggregates every check run against one dataset.
type Report struct {
	Rows    int64         `json:"rows"`
	Columns int           `json:"columns"`
	Checks  []CheckResult `json:"checks"`
	Failed  int           `json:"failed"`
	Status  bool          `json:"status"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Validator holds the profile a dataset claims to follow and the
// tolerances applied when judging it.
type Validator struct {
	Profile    gen.Profile
	Tolerances Tolerances

	// ExpectedRows and ExpectedCols, when positive, are checked against
	// the record shape.
	ExpectedRows int64
	ExpectedCols int

	Logger *zap.Logger
}

// NewValidator constructs a Validator with default tolerances.
func NewValidator(prof gen.Profile, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		Profile:    prof,
		Tolerances: DefaultTolerances(),
		Logger:     logger,
	}
}

// Validate runs all realism checks and returns the combined report. The
// returned error covers execution failures only; a dataset that fails a
// check yields Status false with a nil error.
//
// Buffer structure is checked before any statistic is computed: the
// statistical pass reads string values through their offsets, so it must
// not run over corrupted buffers.
func (v *Validator) Validate(ctx context.Context, record arrow.Record) (Report, error) {
	select {
	case <-ctx.Done():
		return Report{}, ctx.Err()
	default:
	}

	start := time.Now()
	v.Logger.Info("Starting dataset validation",
		zap.Int64("rows", record.NumRows()),
		zap.Int64("columns", record.NumCols()))

	offsetChecks, err := v.checkStringOffsets(ctx, record)
	if err != nil {
		v.Logger.Error("Validation error", zap.Error(err))
		return Report{}, fmt.Errorf("string offsets check failed: %w", err)
	}
	v.Logger.Info("String offsets check completed", zap.Int("failed", failedCount(offsetChecks)))

	checks := v.checkShape(record)
	checks = append(checks, offsetChecks...)

	if failedCount(offsetChecks) == 0 {
		stats := inspect.Record(record)

		var (
			wg         sync.WaitGroup
			nullChecks []CheckResult
			runChecks  []CheckResult
			cardChecks []CheckResult
		)

		wg.Add(3)

		go func() {
			defer wg.Done()
			nullChecks = v.checkNullRatios(stats)
			v.Logger.Info("Null ratio check completed", zap.Int("failed", failedCount(nullChecks)))
		}()

		go func() {
			defer wg.Done()
			runChecks = v.checkRunLengths(record, stats)
			v.Logger.Info("Run length check completed", zap.Int("failed", failedCount(runChecks)))
		}()

		go func() {
			defer wg.Done()
			cardChecks = v.checkCardinality(stats)
			v.Logger.Info("Cardinality check completed", zap.Int("failed", failedCount(cardChecks)))
		}()

		wg.Wait()

		checks = append(checks, nullChecks...)
		checks = append(checks, runChecks...)
		checks = append(checks, cardChecks...)
	} else {
		v.Logger.Warn("Skipping statistical checks over corrupted string buffers")
	}

	rep := Report{
		Rows:    record.NumRows(),
		Columns: int(record.NumCols()),
		Checks:  checks,
		Failed:  failedCount(checks),
		Elapsed: time.Since(start),
	}
	rep.Status = rep.Failed == 0

	v.Logger.Info("Dataset validation complete",
		zap.Bool("status", rep.Status),
		zap.Int("failed", rep.Failed),
		zap.Duration("duration", rep.Elapsed))

	return rep, nil
}

// checkShape verifies the table dimensions when expectations are set.
func (v *Validator) checkShape(record arrow.Record) []CheckResult {
	checks := []CheckResult{}
	if v.ExpectedRows > 0 {
		checks = append(checks, CheckResult{
			Check:    CheckRowCount,
			Observed: float64(record.NumRows()),
			Expected: float64(v.ExpectedRows),
			Status:   record.NumRows() == v.ExpectedRows,
		})
	}
	if v.ExpectedCols > 0 {
		checks = append(checks, CheckResult{
			Check:    CheckColumnCount,
			Observed: float64(record.NumCols()),
			Expected: float64(v.ExpectedCols),
			Status:   int(record.NumCols()) == v.ExpectedCols,
		})
	}
	return checks
}

// checkNullRatios verifies each column's realized null density. Validity
// is rolled once per pool entry and copied across runs, so both the pool
// size and the independent pick count contribute sampling variance.
func (v *Validator) checkNullRatios(stats []inspect.ColumnStats) []CheckResult {
	p := v.Profile.NullFrequency
	checks := make([]CheckResult, 0, len(stats))
	for _, st := range stats {
		check := CheckResult{
			Column:   st.Name,
			Check:    CheckNullRatio,
			Observed: st.NullRatio,
			Expected: p,
		}
		switch {
		case st.Rows == 0:
			check.Status = true
			check.Detail = "empty column"
		case p == 0:
			check.Status = st.Nulls == 0
		case st.Rows < v.Tolerances.MinStatRows:
			check.Status = true
			check.Detail = "skipped: too few rows"
		default:
			picks := float64(st.Rows)
			if v.Profile.AvgRunLength > 1 {
				picks /= float64(v.Profile.AvgRunLength)
			}
			variance := p * (1 - p) / picks
			if v.Profile.Cardinality > 0 {
				variance += p * (1 - p) / float64(v.Profile.Cardinality)
			}
			check.Allowed = v.Tolerances.NullSigmas * math.Sqrt(variance)
			check.Status = math.Abs(st.NullRatio-p) <= check.Allowed
		}
		checks = append(checks, check)
	}
	return checks
}

// checkRunLengths verifies the observed mean run length. Adjacent runs
// merge when consecutive picks collide on the same value, which shifts the
// expectation by 1/(1-1/k) for k equally likely values; booleans have k=2
// no matter how large their pool is.
func (v *Validator) checkRunLengths(record arrow.Record, stats []inspect.ColumnStats) []CheckResult {
	configured := float64(v.Profile.AvgRunLength)
	checks := make([]CheckResult, 0, len(stats))
	for i, st := range stats {
		check := CheckResult{
			Column:   st.Name,
			Check:    CheckRunLength,
			Observed: st.MeanRunLen,
			Expected: configured,
		}
		k := float64(v.Profile.Cardinality)
		if record.Column(i).DataType().ID() == arrow.BOOL && (k == 0 || k > 2) {
			k = 2
		}
		switch {
		case st.Rows < v.Tolerances.MinStatRows:
			check.Status = true
			check.Detail = "skipped: too few rows"
		case v.Profile.AvgRunLength <= 1:
			check.Status = true
			check.Detail = "skipped: no run replication"
		case k == 1:
			check.Status = true
			check.Detail = "skipped: single-value pool"
		default:
			if k >= 2 {
				check.Expected = configured / (1 - 1/k)
			}
			check.Allowed = v.Tolerances.RunLengthSlack * check.Expected
			check.Status = math.Abs(st.MeanRunLen-check.Expected) <= check.Allowed
		}
		checks = append(checks, check)
	}
	return checks
}

// checkCardinality verifies the distinct-value bound for pooled columns.
// Distinct counts null as its own pseudo-value, which is discounted here.
func (v *Validator) checkCardinality(stats []inspect.ColumnStats) []CheckResult {
	bound := int64(v.Profile.Cardinality)
	checks := make([]CheckResult, 0, len(stats))
	for _, st := range stats {
		check := CheckResult{
			Column:   st.Name,
			Check:    CheckCardinality,
			Observed: float64(st.Distinct),
			Expected: float64(bound),
		}
		if bound == 0 {
			check.Status = true
			check.Detail = "skipped: unpooled"
			checks = append(checks, check)
			continue
		}
		distinct := st.Distinct
		if st.Nulls > 0 {
			distinct--
		}
		check.Status = distinct <= bound
		checks = append(checks, check)
	}
	return checks
}

// checkStringOffsets verifies that every string column carries
// non-decreasing offsets that stay within the character buffer.
func (v *Validator) checkStringOffsets(ctx context.Context, record arrow.Record) ([]CheckResult, error) {
	checks := []CheckResult{}
	for i := 0; i < int(record.NumCols()); i++ {
		col, ok := record.Column(i).(*array.String)
		if !ok {
			continue
		}
		check := CheckResult{Column: record.ColumnName(i), Check: CheckOffsets, Status: true}
		for row := 0; row < col.Len(); row++ {
			if row%4096 == 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				default:
				}
			}
			if col.ValueOffset(row) > col.ValueOffset(row+1) {
				check.Status = false
				check.Detail = fmt.Sprintf("offsets decrease at row %d", row)
				break
			}
		}
		if check.Status && col.Len() > 0 {
			if col.ValueOffset(0) < 0 {
				check.Status = false
				check.Detail = "negative leading offset"
			} else if buf := col.Data().Buffers()[2]; buf != nil && col.ValueOffset(col.Len()) > buf.Len() {
				check.Status = false
				check.Detail = fmt.Sprintf("final offset %d exceeds character buffer of %d bytes",
					col.ValueOffset(col.Len()), buf.Len())
			}
		}
		checks = append(checks, check)
	}
	return checks, nil
}

func failedCount(checks []CheckResult) int {
	n := 0
	for _, c := range checks {
		if !c.Status {
			n++
		}
	}
	return n
}
