package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lorenzorota/zkpytoolkit/internal/encode"
	"github.com/lorenzorota/zkpytoolkit/internal/ir"
	"github.com/lorenzorota/zkpytoolkit/internal/modulus"
)

// Run encodes a scenario's arguments and checks the result.
//
// Execution flow:
//  1. Resolve the modulus and parse the function signature
//  2. Coerce the argument and return values to their declared types
//  3. Build the prover and verifier blocks
//  4. Compare against expect and evaluate assertions
//
// Run returns an error only when the scenario itself is unusable (bad
// types, values that do not convert, a field argument with no modulus).
// Mismatched output is reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	var mod *modulus.Context
	if scenario.Modulus != "" {
		m, err := modulus.Parse(scenario.Modulus)
		if err != nil {
			return nil, err
		}
		if mod, err = modulus.New(m); err != nil {
			return nil, err
		}
	}

	fn, err := scenario.function()
	if err != nil {
		return nil, err
	}
	values, err := ir.CoerceAll(fn, scenario.Args)
	if err != nil {
		return nil, err
	}
	var ret ir.Value
	if scenario.Return != nil && scenario.Return.Value != nil {
		if ret, err = ir.Coerce(scenario.Return.Value, fn.Return); err != nil {
			return nil, fmt.Errorf("return: %w", err)
		}
	}

	args := ir.Bind(fn.Params, values)
	result := NewResult()

	result.Prover, err = encode.ProverBlock(args, mod)
	if err != nil {
		return nil, fmt.Errorf("prover block: %w", err)
	}

	result.Verifier, err = encode.VerifierBlock(args, ret, fn.Return, mod)
	if err != nil {
		if !errors.Is(err, encode.ErrMissingReturnValue) {
			return nil, fmt.Errorf("verifier block: %w", err)
		}
		result.VerifierError = err.Error()
	}

	for _, p := range encode.Check(args, mod) {
		result.Problems = append(result.Problems, p.Error())
	}

	checkExpect(result, scenario.Expect)
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func checkExpect(result *Result, expect *ExpectClause) {
	if expect == nil || expect.VerifierError == "" {
		if result.VerifierError != "" {
			result.AddError("unexpected verifier error: " + result.VerifierError)
		}
	}
	if expect == nil {
		return
	}
	// YAML block scalars keep a trailing newline; blocks never end in one.
	if want := strings.TrimSuffix(expect.Prover, "\n"); want != "" && want != result.Prover {
		result.AddError(fmt.Sprintf("prover block mismatch\n--- expected\n%s\n--- actual\n%s", want, result.Prover))
	}
	if want := strings.TrimSuffix(expect.Verifier, "\n"); want != "" && want != result.Verifier {
		result.AddError(fmt.Sprintf("verifier block mismatch\n--- expected\n%s\n--- actual\n%s", want, result.Verifier))
	}
	if expect.VerifierError != "" && !strings.Contains(result.VerifierError, expect.VerifierError) {
		result.AddError(fmt.Sprintf("expected verifier error containing %q, got %q", expect.VerifierError, result.VerifierError))
	}
}
