package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"

	"github.com/lorenzorota/zkpytoolkit/internal/include"
	"github.com/lorenzorota/zkpytoolkit/internal/ir"
)

// CompileFunction parses one function declaration. The function name is the
// last path selector of v, e.g. add for function.add.
//
//	function: add: {
//		params: [{name: "x", type: "Private[field]"}, {name: "y", type: "field"}]
//		returns: "field"
//		source: """
//			def add(x: Private[field], y: field) -> field:
//			    return x + y
//			"""
//		includes: ["square", {symbol: "hash", alias: "h"}]
//	}
func CompileFunction(v cue.Value, module string) (*ir.Function, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	fn := &ir.Function{Module: module}
	fn.Name = normalize(lastLabel(v))

	source, err := lookupString(v, "source", true)
	if err != nil {
		return nil, err
	}
	fn.Source = source

	fn.Params, err = parseParams(v)
	if err != nil {
		return nil, err
	}

	retVal := v.LookupPath(cue.ParsePath("returns"))
	if retVal.Exists() {
		expr, err := retVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		fn.Return, err = ir.ParseType(expr)
		if err != nil {
			return nil, &CompileError{Field: "returns", Message: err.Error(), Pos: retVal.Pos()}
		}
	}

	fn.Includes, err = parseIncludes(v)
	if err != nil {
		return nil, err
	}

	return fn, nil
}

func parseParams(v cue.Value) ([]ir.Param, error) {
	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return nil, nil
	}

	iter, err := paramsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var params []ir.Param
	for iter.Next() {
		pv := iter.Value()
		name, err := lookupString(pv, "name", true)
		if err != nil {
			return nil, err
		}
		p := ir.Param{Name: normalize(name)}

		typeVal := pv.LookupPath(cue.ParsePath("type"))
		if typeVal.Exists() {
			expr, err := typeVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			p.Type, err = ir.ParseType(expr)
			if err != nil {
				return nil, &CompileError{
					Field:   "type",
					Message: fmt.Sprintf("parameter %s: %v", p.Name, err),
					Pos:     typeVal.Pos(),
				}
			}
		}
		params = append(params, p)
	}
	return params, nil
}

// parseIncludes accepts both a bare symbol key and a {symbol, alias} struct
// per list element.
func parseIncludes(v cue.Value) ([]ir.IncludeRef, error) {
	incVal := v.LookupPath(cue.ParsePath("includes"))
	if !incVal.Exists() {
		return nil, nil
	}

	iter, err := incVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var refs []ir.IncludeRef
	for iter.Next() {
		ev := iter.Value()
		if s, err := ev.String(); err == nil {
			refs = append(refs, ir.IncludeRef{Symbol: normalize(s)})
			continue
		}
		sym, err := lookupString(ev, "symbol", true)
		if err != nil {
			return nil, err
		}
		alias, err := lookupString(ev, "alias", false)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ir.IncludeRef{Symbol: normalize(sym), Alias: normalize(alias)})
	}
	return refs, nil
}

// CompileSymbol parses one symbol declaration:
//
//	symbol: hash: {kind: "external", module: "zkpytoolkit.stdlib", name: "sha256"}
//
// name defaults to the declaration key.
func CompileSymbol(v cue.Value) (include.Symbol, error) {
	var sym include.Symbol
	if err := v.Err(); err != nil {
		return sym, formatCUEError(err)
	}

	kindStr, err := lookupString(v, "kind", true)
	if err != nil {
		return sym, err
	}
	sym.Kind, err = include.ParseKind(kindStr)
	if err != nil {
		return sym, &CompileError{Field: "kind", Message: err.Error(), Pos: v.Pos()}
	}

	if sym.Module, err = lookupString(v, "module", false); err != nil {
		return sym, err
	}
	if sym.Name, err = lookupString(v, "name", false); err != nil {
		return sym, err
	}
	if sym.Source, err = lookupString(v, "source", false); err != nil {
		return sym, err
	}

	if sym.Name == "" {
		sym.Name = lastLabel(v)
	}
	sym.Name = normalize(sym.Name)

	if sym.Kind == include.KindEntry && sym.Source == "" {
		return sym, &CompileError{Field: "source", Message: "entry symbols require source", Pos: v.Pos()}
	}
	return sym, nil
}

// lastLabel returns the unquoted final path selector of v.
func lastLabel(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	sel := labels[len(labels)-1]
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

// lookupString reads a string field of v. A missing optional field yields "".
func lookupString(v cue.Value, field string, required bool) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		if required {
			return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
		}
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// normalize applies NFKC so that visually identical identifiers compare equal,
// matching how the circuit language resolves names.
func normalize(s string) string {
	return norm.NFKC.String(s)
}

// CompileError is a manifest error with CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
