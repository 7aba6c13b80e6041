package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/lorenzorota/zkpytoolkit/internal/manifest"
)

// ValidationIssue is one validation finding with its source line, if known.
type ValidationIssue struct {
	manifest.ValidationError
	Line int `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                    `json:"valid"`
	Functions int                     `json:"functions"`
	Errors    []ValidationIssue       `json:"errors,omitempty"`
	Warnings  []manifest.CycleWarning `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest-dir>",
		Short: "Validate a circuit manifest",
		Long: `Validate the CUE circuit manifest in a directory.

Compiles every function and symbol, then checks parameter names,
type annotations, includes and source text. All errors are reported.

Exit codes:
  0 - Manifest valid
  1 - Validation errors found
  2 - Command error (directory missing, CUE does not build)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	m, loadErrors := manifest.Load(dir, manifest.LoadModeCollectAll)

	// Directory not found, no files, CUE build failure
	if m == nil && len(loadErrors) > 0 {
		var loadErr *manifest.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", m.FileCount, dir)

	var issues []ValidationIssue
	for _, err := range loadErrors {
		var loadErr *manifest.LoadError
		if errors.As(err, &loadErr) {
			issues = append(issues, ValidationIssue{
				ValidationError: manifest.ValidationError{Field: "load", Message: loadErr.Message, Code: loadErr.Code},
				Line:            lineOf(loadErr.Pos),
			})
			continue
		}
		issues = append(issues, ValidationIssue{
			ValidationError: manifest.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric},
		})
	}

	for _, fn := range m.Functions {
		formatter.VerboseLog("Validating function: %s", fn.Name)
		for _, verr := range manifest.Validate(fn, m.Registry) {
			issues = append(issues, ValidationIssue{ValidationError: verr})
		}
	}

	result := ValidationResult{
		Valid:     len(issues) == 0,
		Functions: len(m.Functions),
		Errors:    issues,
		Warnings:  manifest.AnalyzeCycles(m),
	}
	if len(result.Warnings) == 0 {
		result.Warnings = nil
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// lineOf extracts the line number from a CUE position.
func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Manifest valid (%d functions)\n", result.Functions)
	printWarnings(formatter, result.Warnings)
	return nil
}

func printWarnings(formatter *OutputFormatter, warnings []manifest.CycleWarning) {
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "⚠ %s\n", w.Message)
	}
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	issues := result.Errors
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, issue.Field, issue.Message)
	}
	printWarnings(formatter, result.Warnings)
	return exitErr
}
