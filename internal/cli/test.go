package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fakedb/internal/config"
	"github.com/roach88/fakedb/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool     // regenerate golden files
	Filter   string   // scenario filter (glob pattern)
	Backends []string // overrides the configured backends
}

// Golden file states reported per scenario.
const (
	GoldenMatch    = "match"
	GoldenMismatch = "mismatch"
	GoldenUpdated  = "updated"
	GoldenMissing  = "missing"
)

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name     string                `json:"name"`
	File     string                `json:"file"`
	Pass     bool                  `json:"pass"`
	Golden   string                `json:"golden,omitempty"`
	Errors   []string              `json:"errors,omitempty"`
	Problems []harness.StepProblem `json:"problems,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Backends  []string         `json:"backends"`
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run YAML conformance scenarios against the configured backends.

Each scenario runs on every backend (memory, sqlite). Step expectations,
final-state assertions and cross-backend agreement must all hold. When a
golden snapshot exists it must match; --update rewrites it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, bad configuration)

Examples:
  fakedb test ./testdata/scenarios
  fakedb test ./testdata/scenarios --filter "update-*"
  fakedb test ./testdata/scenarios --backend memory --backend sqlite
  fakedb test ./testdata/scenarios --update
  fakedb test ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringSliceVar(&opts.Backends, "backend", nil, "backend to run against (repeatable; overrides config)")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	cfg, err := config.Resolve(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if len(opts.Backends) > 0 {
		cfg.Backends = opts.Backends
		if err := cfg.Validate(); err != nil {
			return WrapExitError(ExitCommandError, "invalid --backend", err)
		}
	}
	goldenDir := cfg.GoldenDir
	if goldenDir == "" {
		goldenDir = filepath.Join(scenariosDir, "golden")
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	formatter.VerboseLog("Found %d scenario file(s) in %s", len(scenarioFiles), scenariosDir)

	result := TestResult{
		Backends:  cfg.Backends,
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}
	runOpts := harness.Options{
		Backends:  cfg.Backends,
		SQLiteDir: cfg.SQLitePath,
		Logger:    newLogger(cmd.ErrOrStderr(), cfg, opts.Verbose),
	}

	for _, file := range scenarioFiles {
		sr := runScenario(cmd, file, goldenDir, runOpts, opts.Update)
		if !formatter.JSON() {
			printScenario(formatter, sr)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		if result.Failed > 0 {
			if err := formatter.Failure(ErrCodeTestFailed, fmt.Sprintf("%d scenario(s) failed", result.Failed), result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printSummary(formatter, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles finds all YAML scenario files under dir, sorted by path.
func findScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario loads, runs and golden-checks one scenario file.
func runScenario(cmd *cobra.Command, file, goldenDir string, runOpts harness.Options, update bool) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	report, err := harness.Run(cmd.Context(), scenario, runOpts)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Pass = report.Pass
	sr.Errors = report.Failures()
	for _, r := range report.Results {
		sr.Problems = append(sr.Problems, r.Problems...)
	}

	snapshot, err := harness.Snapshot(report)
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("snapshot failed: %v", err))
		return sr
	}

	goldenPath := filepath.Join(goldenDir, scenario.Name+".golden")
	sr.Golden, err = checkGolden(goldenPath, snapshot, update)
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, err.Error())
	} else if sr.Golden == GoldenMismatch {
		sr.Pass = false
		sr.Errors = append(sr.Errors, "snapshot does not match golden file (run with --update to regenerate)")
	}
	return sr
}

// checkGolden compares snapshot with the file at path, or rewrites it when
// update is set. A missing golden file is not a failure.
func checkGolden(path string, snapshot []byte, update bool) (string, error) {
	if update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, snapshot, 0o644); err != nil {
			return "", fmt.Errorf("failed to write golden file: %w", err)
		}
		return GoldenUpdated, nil
	}

	golden, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return GoldenMissing, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(golden, snapshot) {
		return GoldenMismatch, nil
	}
	return GoldenMatch, nil
}

func printScenario(f *OutputFormatter, sr ScenarioResult) {
	mark := "✓"
	if !sr.Pass {
		mark = "✗"
	}
	suffix := ""
	if sr.Golden == GoldenUpdated {
		suffix = " (golden updated)"
	}
	fmt.Fprintf(f.Writer, "%s %s%s\n", mark, sr.Name, suffix)
	for _, e := range sr.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", e)
	}
	if f.Verbose {
		for _, p := range sr.Problems {
			fmt.Fprintf(f.Writer, "  step %d (%s): %s\n", p.Step, p.Op, p.Problem)
		}
	}
}

func printSummary(f *OutputFormatter, result TestResult) {
	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "Test Summary: %d passed, %d failed, %d total (backends: %s)\n",
		result.Passed, result.Failed, result.Total, strings.Join(result.Backends, ", "))
	if result.Failed == 0 {
		if result.Total == 0 {
			fmt.Fprintln(f.Writer, "No scenarios found.")
			return
		}
		fmt.Fprintln(f.Writer, "✓ All scenarios passed")
	}
}
