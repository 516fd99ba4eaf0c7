package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/TFMV/mimic/logger"
)

func init() {
	// Keep CLI test logs out of the working tree
	logger.ResetLogger()
	logger.SetLogPath(filepath.Join(os.TempDir(), "mimic-cli-test.log"))
}

func TestCLI_Help(t *testing.T) {
	rootCmd := newRootCommand()
	output, err := executeCommand(rootCmd, "--help")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(output, "Usage:") {
		t.Errorf("Expected usage output in --help, got: %s", output)
	}
}

func TestCLI_Version(t *testing.T) {
	rootCmd := newRootCommand()
	output, err := executeCommand(rootCmd, "version")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(output, "Mimic") {
		t.Errorf("Expected version output to contain 'Mimic', got: %s", output)
	}
}

func TestCLI_Estimate(t *testing.T) {
	// 4 int64 columns at 8 bytes each, 4096 byte budget: 128 rows
	output, err := executeCommand(newRootCommand(), "estimate",
		"--schema", "int64", "--columns", "4", "--size", "4KiB")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(output, "128") {
		t.Errorf("Expected estimate of 128 rows, got: %s", output)
	}
}

func TestCLI_EstimateJSON(t *testing.T) {
	output, err := executeCommand(newRootCommand(), "estimate",
		"--schema", "int64", "--columns", "4", "--size", "4KiB", "--json")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var result struct {
		Rows        int64 `json:"rows"`
		BytesPerRow int64 `json:"bytes_per_row"`
	}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("Failed to parse estimate JSON: %v\noutput: %s", err, output)
	}
	if result.Rows != 128 {
		t.Errorf("Expected 128 rows, got %d", result.Rows)
	}
	if result.BytesPerRow != 32 {
		t.Errorf("Expected 32 bytes per row, got %d", result.BytesPerRow)
	}
}

func TestCLI_EstimateRejectsUnknownType(t *testing.T) {
	_, err := executeCommand(newRootCommand(), "estimate",
		"--schema", "complex128", "--columns", "2", "--size", "1MiB")
	if err == nil {
		t.Fatal("Expected an error for an unknown type tag")
	}
}

func TestCLI_GenerateVerifyValidate(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "data.arrow")
	reportBase := filepath.Join(dir, "report")

	replay := []string{
		"--schema", "int32,string,bool",
		"--columns", "3",
		"--size", "8KiB",
		"--seed", "42",
		"--workers", "2",
	}

	genArgs := append([]string{"generate",
		"--output", out,
		"--format", "arrow",
		"--report", reportBase,
		"--quiet",
	}, replay...)
	output, err := executeCommand(newRootCommand(), genArgs...)
	if err != nil {
		t.Fatalf("generate failed: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Generated") {
		t.Errorf("Expected generation summary, got: %s", output)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("Expected dataset file at %s: %v", out, err)
	}
	if _, err := os.Stat(reportBase + ".json"); err != nil {
		t.Errorf("Expected JSON report at %s.json: %v", reportBase, err)
	}
	if _, err := os.Stat(reportBase + ".html"); err != nil {
		t.Errorf("Expected HTML report at %s.html: %v", reportBase, err)
	}

	verifyArgs := append([]string{"verify", out}, replay...)
	output, err = executeCommand(newRootCommand(), verifyArgs...)
	if err != nil {
		t.Fatalf("verify failed: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "matches its replay") {
		t.Errorf("Expected a match, got: %s", output)
	}

	output, err = executeCommand(newRootCommand(), "validate", out)
	if err != nil {
		t.Fatalf("validate failed: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "matches its profile") {
		t.Errorf("Expected the profile to validate, got: %s", output)
	}
}

func TestCLI_VerifyDetectsWrongSeed(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "data.arrow")

	output, err := executeCommand(newRootCommand(), "generate",
		"--schema", "int64", "--columns", "2", "--size", "8KiB",
		"--seed", "7", "--workers", "1",
		"--output", out, "--format", "arrow", "--quiet")
	if err != nil {
		t.Fatalf("generate failed: %v\noutput: %s", err, output)
	}

	_, err = executeCommand(newRootCommand(), "verify", out,
		"--schema", "int64", "--columns", "2", "--size", "8KiB",
		"--seed", "8", "--workers", "1")
	if err == nil {
		t.Fatal("Expected verify to fail under a different seed")
	}
}

func TestCLI_GenerateParquet(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "data.parquet")

	replay := []string{
		"--schema", "int64,float64,ts_ms",
		"--columns", "3",
		"--size", "16KiB",
		"--seed", "99",
		"--workers", "1",
	}

	genArgs := append([]string{"generate",
		"--output", out,
		"--format", "parquet",
		"--compression", "snappy",
		"--quiet",
	}, replay...)
	output, err := executeCommand(newRootCommand(), genArgs...)
	if err != nil {
		t.Fatalf("generate failed: %v\noutput: %s", err, output)
	}

	verifyArgs := append([]string{"verify", out}, replay...)
	output, err = executeCommand(newRootCommand(), verifyArgs...)
	if err != nil {
		t.Fatalf("verify failed: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "matches its replay") {
		t.Errorf("Expected a match, got: %s", output)
	}
}

func TestCLI_GenerateRejectsBadProfile(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(newRootCommand(), "generate",
		"--schema", "int32", "--columns", "1", "--size", "1KiB",
		"--null-frequency", "1.5",
		"--output", filepath.Join(dir, "x.parquet"), "--quiet")
	if err == nil {
		t.Fatal("Expected an error for a null frequency above one")
	}
}

func executeCommand(rootCmd *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
