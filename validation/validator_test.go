package validation

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/mimic/pkg/gen"
	"github.com/TFMV/mimic/pkg/schema"
)

// generateRecord builds a table with the given profile for validation.
func generateRecord(t *testing.T, tagSpec string, numCols int, tableBytes int64, prof gen.Profile, seed uint64) arrow.Record {
	t.Helper()

	tags, err := schema.Parse(tagSpec)
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}

	opts := gen.DefaultOptions()
	opts.Seed = seed
	opts.Workers = 2
	opts.Profile = prof

	record, err := gen.Table(tags, numCols, tableBytes, opts)
	if err != nil {
		t.Fatalf("failed to generate table: %v", err)
	}
	return record
}

func TestValidate_Success(t *testing.T) {
	prof := gen.DefaultProfile()
	record := generateRecord(t, "int32,float64,string,bool,ts_ms", 5, 1<<20, prof, 42)
	defer record.Release()

	validator := NewValidator(prof, nil)
	validator.ExpectedCols = 5

	report, err := validator.Validate(context.Background(), record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Status {
		t.Errorf("expected validation to pass, %d checks failed: %+v", report.Failed, failedChecks(report))
	}
	if report.Rows != record.NumRows() {
		t.Errorf("expected %d rows in report, got %d", record.NumRows(), report.Rows)
	}
}

func TestValidate_WrongNullFrequency(t *testing.T) {
	generated := gen.DefaultProfile()
	generated.NullFrequency = 0.3
	record := generateRecord(t, "int64,float32", 4, 1<<19, generated, 7)
	defer record.Release()

	claimed := gen.DefaultProfile()
	validator := NewValidator(claimed, nil)

	report, err := validator.Validate(context.Background(), record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status {
		t.Error("expected validation to fail for a dataset with ~30% nulls validated against a 1% profile")
	}
	for _, c := range report.Checks {
		if c.Check == CheckNullRatio && c.Status {
			t.Errorf("expected null ratio check to fail for column %s (observed %f)", c.Column, c.Observed)
		}
	}
}

func TestValidate_CardinalityBound(t *testing.T) {
	generated := gen.Profile{NullFrequency: 0, Cardinality: 10, AvgRunLength: 4, AvgStringLength: 16}
	record := generateRecord(t, "int64,string", 2, 1<<19, generated, 5)
	defer record.Release()

	// The matching claim passes.
	validator := NewValidator(generated, nil)
	report, err := validator.Validate(context.Background(), record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Status {
		t.Errorf("expected validation to pass, %d checks failed: %+v", report.Failed, failedChecks(report))
	}

	// Claiming a smaller pool trips the distinct-value bound.
	claimed := generated
	claimed.Cardinality = 3
	validator = NewValidator(claimed, nil)
	report, err = validator.Validate(context.Background(), record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status {
		t.Error("expected validation to fail against a cardinality-3 claim")
	}
	failed := 0
	for _, c := range report.Checks {
		if !c.Status {
			failed++
			if c.Check != CheckCardinality {
				t.Errorf("expected only cardinality failures, got %s on %s", c.Check, c.Column)
			}
		}
	}
	if failed == 0 {
		t.Error("expected at least one cardinality failure")
	}
}

func TestValidate_ShapeMismatch(t *testing.T) {
	prof := gen.DefaultProfile()
	record := generateRecord(t, "int32", 2, 1<<16, prof, 3)
	defer record.Release()

	validator := NewValidator(prof, nil)
	validator.ExpectedRows = record.NumRows() + 1
	validator.ExpectedCols = 2

	report, err := validator.Validate(context.Background(), record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status {
		t.Error("expected validation to fail on the row-count expectation")
	}
	for _, c := range report.Checks {
		switch c.Check {
		case CheckRowCount:
			if c.Status {
				t.Error("expected row count check to fail")
			}
		case CheckColumnCount:
			if !c.Status {
				t.Error("expected column count check to pass")
			}
		}
	}
}

func TestValidate_SkipsSmallSamples(t *testing.T) {
	// 100 rows sit below the statistical threshold; a wildly wrong null
	// claim must not fail the skipped checks.
	generated := gen.Profile{NullFrequency: 0.5, Cardinality: 100, AvgRunLength: 4, AvgStringLength: 16}

	tags, err := schema.Parse("int32,string")
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}
	cols, err := gen.Columns(tags, 100, gen.NewEngine(11), generated)
	if err != nil {
		t.Fatalf("failed to generate columns: %v", err)
	}
	sch, err := schema.ArrowSchema(tags)
	if err != nil {
		t.Fatalf("failed to build schema: %v", err)
	}
	record := array.NewRecord(sch, cols, 100)
	for _, col := range cols {
		col.Release()
	}
	defer record.Release()

	claimed := gen.DefaultProfile()
	validator := NewValidator(claimed, nil)

	report, err := validator.Validate(context.Background(), record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Status {
		t.Errorf("expected small-sample checks to be skipped, %d checks failed: %+v",
			report.Failed, failedChecks(report))
	}
}

func TestValidate_ContextCanceled(t *testing.T) {
	prof := gen.DefaultProfile()
	record := generateRecord(t, "string", 1, 1<<16, prof, 9)
	defer record.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	validator := NewValidator(prof, nil)
	if _, err := validator.Validate(ctx, record); err == nil {
		t.Error("expected an error for a canceled context")
	}
}

func TestValidate_StringOffsetCorruption(t *testing.T) {
	// Hand-build a string column whose offsets decrease mid-array.
	offsets := []int32{0, 5, 3, 8}
	offBuf := memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(offsets))
	dataBuf := memory.NewBufferBytes([]byte("abcdefgh"))
	data := array.NewData(arrow.BinaryTypes.String, 3, []*memory.Buffer{nil, offBuf, dataBuf}, nil, 0, 0)
	defer data.Release()
	col := array.MakeFromData(data)
	defer col.Release()

	sch := arrow.NewSchema([]arrow.Field{{Name: "col0", Type: arrow.BinaryTypes.String, Nullable: true}}, nil)
	record := array.NewRecord(sch, []arrow.Array{col}, 3)
	defer record.Release()

	prof := gen.Profile{NullFrequency: 0, Cardinality: 0, AvgRunLength: 1, AvgStringLength: 16}
	validator := NewValidator(prof, nil)

	report, err := validator.Validate(context.Background(), record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status {
		t.Error("expected validation to fail on corrupted offsets")
	}
	found := false
	for _, c := range report.Checks {
		if c.Check == CheckOffsets && !c.Status {
			found = true
		}
	}
	if !found {
		t.Error("expected a failing string offsets check")
	}
}

// failedChecks filters a report down to its failures for error messages.
func failedChecks(report Report) []CheckResult {
	var failed []CheckResult
	for _, c := range report.Checks {
		if !c.Status {
			failed = append(failed, c)
		}
	}
	return failed
}
