package encode

import (
	"errors"
	"strings"

	"github.com/lorenzorota/zkpytoolkit/internal/ir"
	"github.com/lorenzorota/zkpytoolkit/internal/modulus"
)

var (
	// ErrMissingReturnValue is returned by VerifierBlock when no return
	// value is supplied.
	ErrMissingReturnValue = errors.New("no return value provided to verifier")

	// ErrNoModulus is returned when a field-typed argument needs the modulus
	// wrapper but no modulus context was given.
	ErrNoModulus = errors.New("field-typed arguments require a modulus")
)

// ReturnPath is the path under which the verifier binds the return value.
const ReturnPath = "return"

const indentUnit = "    "

// ProverBlock builds the prover input for args: one binding per argument,
// in order, including private ones.
func ProverBlock(args []ir.Argument, mod *modulus.Context) (string, error) {
	terms := make([]string, 0, len(args))
	for _, a := range args {
		terms = append(terms, Term(a.Value, a.Type, a.Name))
	}
	return wrapModulus(letBlock(terms), argTypes(args), mod)
}

// VerifierBlock builds the verifier input for args and the claimed return
// value. Arguments whose outermost qualifier is Private are omitted; the
// return value is bound last at ReturnPath.
//
// The modulus wrapper decision considers every argument type, including the
// omitted private ones.
func VerifierBlock(args []ir.Argument, ret ir.Value, retType ir.Type, mod *modulus.Context) (string, error) {
	if ret == nil {
		return "", ErrMissingReturnValue
	}
	terms := make([]string, 0, len(args)+1)
	for _, a := range args {
		if ir.IsPrivate(a.Type) {
			continue
		}
		terms = append(terms, Term(a.Value, a.Type, a.Name))
	}
	terms = append(terms, Term(ret, retType, ReturnPath))
	return wrapModulus(letBlock(terms), argTypes(args), mod)
}

// NeedsModulus reports whether any of types has a field leaf.
func NeedsModulus(types []ir.Type) bool {
	for _, t := range types {
		if ir.ContainsField(t) {
			return true
		}
	}
	return false
}

func letBlock(terms []string) string {
	var b strings.Builder
	b.WriteString("(let (\n")
	for _, t := range terms {
		b.WriteString(indent(t))
		b.WriteString("\n")
	}
	b.WriteString(")\n")
	b.WriteString(indentUnit + "false\n")
	b.WriteString(")")
	return b.String()
}

func wrapModulus(block string, types []ir.Type, mod *modulus.Context) (string, error) {
	if !NeedsModulus(types) {
		return block, nil
	}
	if mod == nil {
		return "", ErrNoModulus
	}
	return "(set_default_modulus " + mod.String() + "\n" + indent(block) + "\n)", nil
}

// indent prefixes every line of s that is not whitespace-only with one
// indentation unit. Line endings are preserved.
func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	b.Grow(len(s) + len(lines)*len(indentUnit))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			b.WriteString(indentUnit)
		}
		b.WriteString(line)
	}
	return b.String()
}

func argTypes(args []ir.Argument) []ir.Type {
	types := make([]ir.Type, len(args))
	for i, a := range args {
		types[i] = a.Type
	}
	return types
}
