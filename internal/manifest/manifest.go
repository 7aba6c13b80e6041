// Package manifest loads circuit manifests written in CUE.
//
// A manifest registers circuit function sources and the external symbols
// they include at build time, so nothing has to be recovered by inspecting
// the caller at run time.
//
//	module: "__main__"
//
//	symbol: hash: {kind: "external", module: "zkpytoolkit.stdlib", name: "sha256"}
//
//	function: add: {
//		params: [{name: "x", type: "Private[field]"}, {name: "y", type: "field"}]
//		returns: "field"
//		source: """
//			def add(x: Private[field], y: field) -> field:
//			    return x + y
//			"""
//		includes: ["hash"]
//	}
//
// Manifest files carry no package clause. Every function is also registered
// as a symbol under its own name, so one function can include another.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/lorenzorota/zkpytoolkit/internal/include"
	"github.com/lorenzorota/zkpytoolkit/internal/ir"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	ErrCodeFunction  = "E101" // Function declaration invalid
	ErrCodeSymbol    = "E102" // Symbol declaration invalid
	ErrCodeType      = "E103" // Type expression invalid
	ErrCodeDuplicate = "E104" // Name registered twice
)

// Manifest is a compiled circuit manifest.
type Manifest struct {
	Module    string
	Functions []*ir.Function // declaration order
	Registry  *include.Registry
	FileCount int
}

// Function returns the declared function called name.
func (m *Manifest) Function(name string) (*ir.Function, bool) {
	name = normalize(name)
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}

// LoadError is an error that occurred while loading a manifest.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads every .cue file in dir as one CUE instance and compiles it.
// In LoadModeCollectAll every function and symbol error is reported.
func Load(dir string, mode LoadMode) (*Manifest, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("manifest directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing manifest directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	// Manifests are package-less; "_" selects files without a package clause.
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir, Package: "_"})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	m, errs := FromValue(value, mode)
	if m != nil {
		m.FileCount = len(cueFiles)
	}
	return m, errs
}

// FromValue compiles an already built CUE value.
func FromValue(value cue.Value, mode LoadMode) (*Manifest, []error) {
	var errs []error
	fail := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	m := &Manifest{
		Module:   include.EntryModule,
		Registry: include.NewRegistry(),
	}

	if modVal := value.LookupPath(cue.ParsePath("module")); modVal.Exists() {
		module, err := modVal.String()
		if err != nil {
			return nil, []error{convertCompileError(formatCUEError(err), ErrCodeGeneric, "module")}
		}
		m.Module = normalize(module)
	}

	if symVal := value.LookupPath(cue.ParsePath("symbol")); symVal.Exists() {
		iter, err := symVal.Fields()
		if err != nil {
			if fail(&LoadError{Code: ErrCodeSymbol, Message: fmt.Sprintf("iterating symbols: %v", err)}) {
				return m, errs
			}
		} else {
			for iter.Next() {
				key := normalize(lastLabel(iter.Value()))
				sym, err := CompileSymbol(iter.Value())
				if err != nil {
					if fail(convertCompileError(err, ErrCodeSymbol, "symbol."+key)) {
						return m, errs
					}
					continue
				}
				if err := m.Registry.Register(key, sym); err != nil {
					if fail(&LoadError{Code: ErrCodeDuplicate, Message: err.Error(), Pos: iter.Value().Pos()}) {
						return m, errs
					}
				}
			}
		}
	}

	if fnVal := value.LookupPath(cue.ParsePath("function")); fnVal.Exists() {
		iter, err := fnVal.Fields()
		if err != nil {
			if fail(&LoadError{Code: ErrCodeFunction, Message: fmt.Sprintf("iterating functions: %v", err)}) {
				return m, errs
			}
		} else {
			for iter.Next() {
				fn, err := CompileFunction(iter.Value(), m.Module)
				if err != nil {
					if fail(convertCompileError(err, ErrCodeFunction, "function."+iter.Label())) {
						return m, errs
					}
					continue
				}
				if err := m.Registry.RegisterFunction(fn); err != nil {
					if fail(&LoadError{Code: ErrCodeDuplicate, Message: err.Error(), Pos: iter.Value().Pos()}) {
						return m, errs
					}
					continue
				}
				m.Functions = append(m.Functions, fn)
			}
		}
	}

	if len(m.Functions) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no functions found in manifest"})
	}

	return m, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compile error to a LoadError with position info.
func convertCompileError(err error, code, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		if compileErr.Field == "type" || compileErr.Field == "returns" {
			code = ErrCodeType
		}
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    code,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
