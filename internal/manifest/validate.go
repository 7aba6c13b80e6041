package manifest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lorenzorota/zkpytoolkit/internal/include"
	"github.com/lorenzorota/zkpytoolkit/internal/ir"
)

// Validation error codes (E120-E129)
const (
	ErrSourceEmpty        = "E120" // source is required
	ErrDuplicateParam     = "E121" // parameter declared twice
	ErrInvalidIdentifier  = "E122" // name is not an identifier
	ErrUnknownInclude     = "E123" // include names no registered symbol
	ErrMissingAnnotation  = "E124" // parameter has no type
	ErrSourceMissingDef   = "E125" // source does not define the function
	ErrSelfInclude        = "E126" // function includes itself
	ErrUnresolvableImport = "E127" // external symbol without owning module
)

// ValidationError represents a manifest validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks fn against res.
// Returns all errors found (does not fail-fast).
func Validate(fn *ir.Function, res include.Resolver) []ValidationError {
	var errs []ValidationError
	field := "function." + fn.Name

	if !IsIdentifier(fn.Name) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("function name %q is not an identifier", fn.Name),
			Code:    ErrInvalidIdentifier,
		})
	}

	if strings.TrimSpace(fn.Source) == "" {
		errs = append(errs, ValidationError{
			Field:   field + ".source",
			Message: "source is required and must be non-empty",
			Code:    ErrSourceEmpty,
		})
	} else if !strings.Contains(fn.Source, "def "+fn.Name+"(") {
		errs = append(errs, ValidationError{
			Field:   field + ".source",
			Message: fmt.Sprintf("source does not define %s", fn.Name),
			Code:    ErrSourceMissingDef,
		})
	}

	seen := make(map[string]bool)
	for i, p := range fn.Params {
		pf := fmt.Sprintf("%s.params[%d]", field, i)
		if !IsIdentifier(p.Name) {
			errs = append(errs, ValidationError{
				Field:   pf,
				Message: fmt.Sprintf("parameter name %q is not an identifier", p.Name),
				Code:    ErrInvalidIdentifier,
			})
		}
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   pf,
				Message: fmt.Sprintf("duplicate parameter %q", p.Name),
				Code:    ErrDuplicateParam,
			})
		}
		seen[p.Name] = true
		if p.Type == nil {
			errs = append(errs, ValidationError{
				Field:   pf,
				Message: fmt.Sprintf("parameter %q has no type; its value would be passed through as text", p.Name),
				Code:    ErrMissingAnnotation,
			})
		}
	}

	for i, inc := range fn.Includes {
		inf := fmt.Sprintf("%s.includes[%d]", field, i)
		if inc.Symbol == fn.Name {
			errs = append(errs, ValidationError{
				Field:   inf,
				Message: "function cannot include itself",
				Code:    ErrSelfInclude,
			})
			continue
		}
		sym, ok := res.Lookup(inc.Symbol)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   inf,
				Message: fmt.Sprintf("unknown symbol %q", inc.Symbol),
				Code:    ErrUnknownInclude,
			})
			continue
		}
		if sym.Kind == include.KindExternal && sym.Module == "" {
			errs = append(errs, ValidationError{
				Field:   inf,
				Message: fmt.Sprintf("symbol %q has no owning module and renders as nothing", inc.Symbol),
				Code:    ErrUnresolvableImport,
			})
		}
		if inc.Alias != "" && !IsIdentifier(inc.Alias) {
			errs = append(errs, ValidationError{
				Field:   inf,
				Message: fmt.Sprintf("alias %q is not an identifier", inc.Alias),
				Code:    ErrInvalidIdentifier,
			})
		}
	}

	return errs
}

// ValidateAll validates every function of m.
func ValidateAll(m *Manifest) []ValidationError {
	var errs []ValidationError
	for _, fn := range m.Functions {
		errs = append(errs, Validate(fn, m.Registry)...)
	}
	return errs
}

// IsIdentifier reports whether s is a letter or underscore followed by
// letters, digits or underscores.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
