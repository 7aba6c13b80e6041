package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares both blocks against golden
// files stored in testdata/golden/{name}.prover.golden and
// testdata/golden/{name}.verifier.golden. A verifier encoding error is
// compared as its message.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if a block doesn't match its golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against the golden
// files for name.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name+".prover", []byte(result.Prover))

	verifier := result.Verifier
	if result.VerifierError != "" {
		verifier = "error: " + result.VerifierError
	}
	g.Assert(t, name+".verifier", []byte(verifier))
}
