package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := mustParse(t, `
name: mismatch
description: "wrong expected prover text"
function:
  name: f
  params: [{ name: x, type: int }]
args: [1]
return: 0
expect:
  prover: "(x #x00000002)"
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "prover block mismatch")
	assert.Contains(t, result.Errors[0], "(x #x00000001)")
}

func TestRun_UnexpectedVerifierError(t *testing.T) {
	scenario := mustParse(t, `
name: no_return
description: "return omitted without expecting it"
function:
  name: f
  params: [{ name: x, type: int }]
args: [1]
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Empty(t, result.Verifier)
	assert.Contains(t, result.VerifierError, "no return value")
}

func TestRun_FieldWithoutModulus(t *testing.T) {
	scenario := mustParse(t, `
name: no_modulus
description: "field argument with no modulus"
function:
  name: f
  params: [{ name: x, type: field }]
args: [1]
return: 1
`)

	_, err := Run(scenario)
	assert.ErrorContains(t, err, "modulus")
}

func TestRun_BadValue(t *testing.T) {
	scenario := mustParse(t, `
name: bad_value
description: "bool given for an int"
function:
  name: f
  params: [{ name: x, type: int }]
args: [true]
`)

	_, err := Run(scenario)
	assert.ErrorContains(t, err, "x:")
}

func TestRun_LargeFieldAsString(t *testing.T) {
	scenario := mustParse(t, `
name: large
description: "field element above int64"
modulus: bn254
function:
  name: f
  params: [{ name: x, type: field }]
args: ["123456789012345678901234567890"]
return: 0
assertions:
  - type: prover_contains
    text: "(x #f123456789012345678901234567890)"
  - type: problems
    count: 0
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_LargeFieldUnquoted(t *testing.T) {
	scenario := mustParse(t, `
name: large_unquoted
description: "field element above uint64, written as a plain literal"
modulus: bn254
function:
  name: f
  params: [{ name: x, type: field }]
  returns: field
args: [1180591620717411303424]
return: 1180591620717411303425
assertions:
  - type: prover_contains
    text: "(x #f1180591620717411303424)"
  - type: verifier_contains
    text: "(return #f1180591620717411303425)"
`)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nfunction: {name: f}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nfunction: {name: f}\n",
			wantErr: "description is required",
		},
		{
			name:    "missing function name",
			yaml:    "name: n\ndescription: d\n",
			wantErr: "function.name is required",
		},
		{
			name:    "unnamed param",
			yaml:    "name: n\ndescription: d\nfunction: {name: f, params: [{type: int}]}\n",
			wantErr: "function.params[0]",
		},
		{
			name:    "bad modulus",
			yaml:    "name: n\ndescription: d\nmodulus: nope\nfunction: {name: f}\n",
			wantErr: "neither a known curve",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nfunction: {name: f}\nassertions: [{type: trace_order}]\n",
			wantErr: "unknown type",
		},
		{
			name:    "contains without text",
			yaml:    "name: n\ndescription: d\nfunction: {name: f}\nassertions: [{type: prover_contains}]\n",
			wantErr: "requires text",
		},
		{
			name:    "unknown field",
			yaml:    "name: n\ndescription: d\nfunction: {name: f}\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	paths, err := FindScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, paths)

	_, err = FindScenarios(filepath.Join(dir, "missing"))
	var notFound *ScenarioNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestEvaluateAssertions(t *testing.T) {
	result := &Result{
		Prover:   "(set_default_modulus 7\n    (let (\n        (a #f1)\n    )\n        false\n    )\n)",
		Verifier: "(set_default_modulus 7\n    (let (\n        (return #f1)\n    )\n        false\n    )\n)",
		Problems: []string{"a: out of range"},
	}

	tests := []struct {
		name      string
		assertion Assertion
		pass      bool
	}{
		{"prover contains", Assertion{Type: AssertProverContains, Text: "(a #f1)"}, true},
		{"prover lacks", Assertion{Type: AssertProverContains, Text: "(b #f1)"}, false},
		{"verifier contains", Assertion{Type: AssertVerifierContains, Text: "(return #f1)"}, true},
		{"verifier omits", Assertion{Type: AssertVerifierOmits, Text: "(a "}, true},
		{"verifier does not omit", Assertion{Type: AssertVerifierOmits, Text: "return"}, false},
		{"wrapper present", Assertion{Type: AssertModulusWrapper, Present: true}, true},
		{"wrapper absent", Assertion{Type: AssertModulusWrapper, Present: false}, false},
		{"problem count", Assertion{Type: AssertProblems, Count: 1}, true},
		{"wrong problem count", Assertion{Type: AssertProblems, Count: 0}, false},
		{"unknown", Assertion{Type: "bogus"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion})
			assert.Equal(t, tt.pass, len(errs) == 0, "errors: %v", errs)
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertVerifierOmits, Expected: "block omits x", Actual: "found", Block: "(x true)"}
	msg := err.Error()

	assert.True(t, strings.HasPrefix(msg, "Assertion failed: verifier_omits\n"))
	assert.Contains(t, msg, "Expected: block omits x")
	assert.Contains(t, msg, "Block:\n(x true)")
}

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(strings.TrimLeft(src, "\n")))
	require.NoError(t, err)
	return s
}
