package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lorenzorota/zkpytoolkit/internal/ir"
	"github.com/lorenzorota/zkpytoolkit/internal/modulus"
)

// Scenario defines one encoding scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden files.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Modulus is a decimal modulus or a known curve name.
	// Optional when no argument is field-typed.
	Modulus string `yaml:"modulus,omitempty"`

	// Function is the signature the arguments are bound to.
	Function FunctionDef `yaml:"function"`

	// Args are the argument values in parameter order.
	Args ir.Literals `yaml:"args"`

	// Return is the claimed return value for the verifier block.
	// If nil, the verifier block is expected to fail.
	Return *ir.Literal `yaml:"return,omitempty"`

	// Expect holds exact expected output.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions are partial checks on the output.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// FunctionDef is a function signature written in the type grammar.
type FunctionDef struct {
	Name    string     `yaml:"name"`
	Params  []ParamDef `yaml:"params"`
	Returns string     `yaml:"returns,omitempty"`
}

// ParamDef is one parameter. An empty Type leaves it unannotated.
type ParamDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// ExpectClause specifies exact expected output. Empty fields are not checked.
type ExpectClause struct {
	Prover   string `yaml:"prover,omitempty"`
	Verifier string `yaml:"verifier,omitempty"`

	// VerifierError is a substring of the error expected from the
	// verifier block, e.g. "no return value".
	VerifierError string `yaml:"verifier_error,omitempty"`
}

// Assertion is a partial check on the encoded blocks.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Text is the substring for the contains/omits assertions.
	Text string `yaml:"text,omitempty"`

	// Present is the expected wrapper state (modulus_wrapper).
	Present bool `yaml:"present,omitempty"`

	// Count is the expected number of problems (problems).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertProverContains   = "prover_contains"
	AssertVerifierContains = "verifier_contains"
	AssertVerifierOmits    = "verifier_omits"
	AssertModulusWrapper   = "modulus_wrapper"
	AssertProblems         = "problems"
)

var assertionTypes = map[string]bool{
	AssertProverContains:   true,
	AssertVerifierContains: true,
	AssertVerifierOmits:    true,
	AssertModulusWrapper:   true,
	AssertProblems:         true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Function.Name == "" {
		return fmt.Errorf("function.name is required")
	}
	for i, p := range s.Function.Params {
		if p.Name == "" {
			return fmt.Errorf("function.params[%d]: name is required", i)
		}
	}
	if s.Modulus != "" {
		if _, err := modulus.Parse(s.Modulus); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if !assertionTypes[a.Type] {
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
		switch a.Type {
		case AssertProverContains, AssertVerifierContains, AssertVerifierOmits:
			if a.Text == "" {
				return fmt.Errorf("assertions[%d]: %s requires text", i, a.Type)
			}
		}
	}
	return nil
}

// function builds the ir.Function the scenario describes.
func (s *Scenario) function() (*ir.Function, error) {
	fn := &ir.Function{Name: s.Function.Name, Params: make([]ir.Param, len(s.Function.Params))}
	for i, p := range s.Function.Params {
		fn.Params[i].Name = p.Name
		if p.Type == "" {
			continue
		}
		t, err := ir.ParseType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		fn.Params[i].Type = t
	}
	if s.Function.Returns != "" {
		t, err := ir.ParseType(s.Function.Returns)
		if err != nil {
			return nil, fmt.Errorf("returns: %w", err)
		}
		fn.Return = t
	}
	return fn, nil
}

// ScenarioNotFoundError is returned when a scenario directory doesn't exist.
type ScenarioNotFoundError struct {
	Dir string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario directory %q does not exist", e.Dir)
}

// FindScenarios lists the .yaml and .yml files directly under dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ScenarioNotFoundError{Dir: dir}
		}
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
