package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the block the assertion looked at to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Block    string // Encoded block the assertion inspected, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Block != "" {
		fmt.Fprintf(&buf, "\nBlock:\n%s\n", e.Block)
	}
	return buf.String()
}

// EvaluateAssertions checks each assertion against result and returns the
// failure messages. An empty slice means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertProverContains:
		return assertContains(a.Type, result.Prover, a.Text, true)
	case AssertVerifierContains:
		return assertContains(a.Type, result.Verifier, a.Text, true)
	case AssertVerifierOmits:
		return assertContains(a.Type, result.Verifier, a.Text, false)
	case AssertModulusWrapper:
		return assertWrapper(result, a.Present)
	case AssertProblems:
		if len(result.Problems) != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d problems", a.Count),
				Actual:   fmt.Sprintf("%d problems: %v", len(result.Problems), result.Problems),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertContains(typ, block, text string, want bool) error {
	if strings.Contains(block, text) == want {
		return nil
	}
	expected, actual := "block contains "+text, "not found"
	if !want {
		expected, actual = "block omits "+text, "found"
	}
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Block: block}
}

const wrapperPrefix = "(set_default_modulus "

// assertWrapper checks the prover block, and the verifier block when it
// was built.
func assertWrapper(result *Result, present bool) error {
	blocks := []string{result.Prover}
	if result.Verifier != "" {
		blocks = append(blocks, result.Verifier)
	}
	for _, b := range blocks {
		if strings.HasPrefix(b, wrapperPrefix) != present {
			return &AssertionError{
				Type:     AssertModulusWrapper,
				Expected: fmt.Sprintf("wrapper present=%t", present),
				Actual:   fmt.Sprintf("wrapper present=%t", !present),
				Block:    b,
			}
		}
	}
	return nil
}
