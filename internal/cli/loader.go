package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lorenzorota/zkpytoolkit/internal/ir"
	"github.com/lorenzorota/zkpytoolkit/internal/manifest"
)

// Inputs is the YAML inputs file read by encode, prove and verify:
//
//	args: [[1, 2, 3, 4], 30]
//	return: true
//
// Integer literals of any size are exact, so field elements need no quotes.
type Inputs struct {
	Args   ir.Literals `yaml:"args"`
	Return *ir.Literal `yaml:"return,omitempty"`
}

// LoadInputs reads an inputs file with strict field decoding.
func LoadInputs(path string) (*Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs file: %w", err)
	}
	var in Inputs
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to parse inputs YAML: %w", err)
	}
	return &in, nil
}

// Values coerces the argument values to fn's parameter types.
func (in *Inputs) Values(fn *ir.Function) ([]ir.Value, error) {
	return ir.CoerceAll(fn, in.Args)
}

// ReturnValue coerces the claimed return value, or returns nil if absent.
func (in *Inputs) ReturnValue(fn *ir.Function) (ir.Value, error) {
	if in.Return == nil || in.Return.Value == nil {
		return nil, nil
	}
	v, err := ir.Coerce(in.Return.Value, fn.Return)
	if err != nil {
		return nil, fmt.Errorf("return: %w", err)
	}
	return v, nil
}

// loadFunction loads the manifest in dir and looks up name.
// Load failures exit with ExitCommandError.
func loadFunction(f *OutputFormatter, dir, name string) (*manifest.Manifest, *ir.Function, error) {
	// Function names become file names in the backend work directory.
	if !manifest.IsIdentifier(name) {
		return nil, nil, f.Fail(ExitCommandError, manifest.ErrInvalidIdentifier,
			fmt.Errorf("function name %q is not an identifier", name))
	}

	m, errs := manifest.Load(dir, manifest.LoadModeFailFast)
	if len(errs) > 0 {
		code := ErrCodeGeneric
		var loadErr *manifest.LoadError
		if errors.As(errs[0], &loadErr) {
			code = loadErr.Code
		}
		return nil, nil, f.Fail(ExitCommandError, code, errs[0])
	}
	f.VerboseLog("Loaded %d function(s) from %d CUE file(s) in %s", len(m.Functions), m.FileCount, dir)

	fn, ok := m.Function(name)
	if !ok {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeUnknownFunction,
			fmt.Errorf("function %q not found in %s", name, dir))
	}
	return m, fn, nil
}
