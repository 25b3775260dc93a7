package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/claimledger/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // rewrite golden traces instead of comparing
	Filter string // glob matched against scenario file base names
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult summarizes a test run.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

func (r *TestResult) add(s ScenarioResult) {
	r.Scenarios = append(r.Scenarios, s)
	r.Total++
	if s.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run ledger scenarios",
		Long: `Run scenario files against a fresh in-memory ledger each.

Every scenario is checked against its own expectations and, when present,
against the golden trace in <scenarios-dir>/golden/<name>.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  claimledger test ./scenarios
  claimledger test ./scenarios --filter "withdraw_*"
  claimledger test ./scenarios --update
  claimledger test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &scenarioRunner{opts: opts, out: cmd.OutOrStdout()}
			return r.run(args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

type scenarioRunner struct {
	opts *TestOptions
	out  io.Writer
}

func (r *scenarioRunner) text() bool { return r.opts.Format != "json" }

func (r *scenarioRunner) run(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := findScenarioFiles(dir, r.opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if len(files) == 0 && r.text() {
		fmt.Fprintln(r.out, "No scenarios found.")
		return nil
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files))}
	for _, file := range files {
		res := r.check(file)
		if r.text() {
			r.printScenario(res)
		}
		result.add(res)
	}
	return r.summarize(result)
}

func (r *scenarioRunner) printScenario(res ScenarioResult) {
	switch {
	case !res.Pass:
		fmt.Fprintf(r.out, "✗ %s\n", res.Name)
		for _, e := range res.Errors {
			fmt.Fprintf(r.out, "  %s\n", e)
		}
	case r.opts.Update:
		fmt.Fprintf(r.out, "✓ %s (golden updated)\n", res.Name)
	default:
		fmt.Fprintf(r.out, "✓ %s\n", res.Name)
	}
}

// check runs one file. It passes when the scenario's expectations hold and
// its trace equals the golden file, if there is one.
func (r *scenarioRunner) check(file string) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return failed(filepath.Base(file), fmt.Sprintf("failed to load scenario: %v", err))
	}
	result, err := harness.Run(scenario)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}
	trace, err := harness.MarshalTrace(scenario.Name, result)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("failed to marshal trace: %v", err))
	}

	golden := goldenFilePath(file, scenario.Name)
	if r.opts.Update {
		if err := writeGolden(golden, trace); err != nil {
			return failed(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		return ScenarioResult{Name: scenario.Name, Pass: true}
	}

	errs := append([]string(nil), result.Errors...)
	want, err := os.ReadFile(golden)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		errs = append(errs, fmt.Sprintf("golden comparison failed: %v", err))
	case !bytes.Equal(want, trace):
		errs = append(errs, "trace does not match golden file (run with --update to regenerate)")
	}
	if len(errs) > 0 {
		return failed(scenario.Name, errs...)
	}
	return ScenarioResult{Name: scenario.Name, Pass: true}
}

func (r *scenarioRunner) summarize(result TestResult) error {
	var failure error
	if result.Failed > 0 {
		failure = &ExitError{
			Code:     ExitFailure,
			Message:  fmt.Sprintf("%d scenario(s) failed", result.Failed),
			Reported: true,
		}
	}

	if r.text() {
		fmt.Fprintf(r.out, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if failure == nil {
			fmt.Fprintln(r.out, "✓ All scenarios passed")
		}
		return failure
	}

	resp := CLIResponse{Status: "ok", Data: result}
	if failure != nil {
		resp.Status = "error"
		resp.Error = &CLIError{Code: CodeTestFailed, Message: failure.Error()}
	}
	if err := writeJSON(r.out, resp); err != nil {
		return err
	}
	return failure
}

func failed(name string, errs ...string) ScenarioResult {
	return ScenarioResult{Name: name, Errors: errs}
}

// findScenarioFiles walks dir for .yaml and .yml files, skipping golden
// directories. filter, if set, is matched against the name without its
// extension.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == harness.GoldenDir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// goldenFilePath names golden files after the scenario, not the file, so the
// harness package tests and this command share them.
func goldenFilePath(scenarioFile, name string) string {
	return filepath.Join(filepath.Dir(scenarioFile), harness.GoldenDir, name+".golden")
}

func writeGolden(path string, trace []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(path, trace, 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}
