// Package include materializes the external symbols a circuit function
// depends on into the source text handed to the backend compiler.
//
// Symbols are registered explicitly, typically from a circuit manifest,
// rather than discovered by inspecting the caller. The resolver does no
// semantic validation: it assumes every emitted import is resolvable by the
// backend compiler.
package include

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lorenzorota/zkpytoolkit/internal/ir"
)

var (
	// ErrUnknownSymbol is returned when a reference names no registered symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrDuplicateSymbol is returned when a name is registered twice.
	ErrDuplicateSymbol = errors.New("duplicate symbol")
)

// EntryModule is the module name of functions defined in the entry
// compilation unit. Their source is inlined instead of imported.
const EntryModule = "__main__"

// Kind classifies how a symbol is materialized.
type Kind string

const (
	// KindModule is a whole module, emitted as "import <module>".
	KindModule Kind = "module"
	// KindEntry is a function of the entry compilation unit, emitted as its source.
	KindEntry Kind = "entry"
	// KindExternal is a function, class or constant owned by another module.
	KindExternal Kind = "external"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindModule, KindEntry, KindExternal:
		return k, nil
	default:
		return "", fmt.Errorf("invalid symbol kind %q (want module, entry or external)", s)
	}
}

// Symbol is a registered external reference.
type Symbol struct {
	Name   string // symbol name as written in circuit source
	Module string // owning module; the module itself for KindModule
	Kind   Kind
	Source string // full source text, KindEntry only
}

// Ref is one requested include: a symbol, optionally imported under an alias.
type Ref struct {
	Symbol string
	Alias  string
}

// RefsOf converts a function's declared includes to refs.
func RefsOf(fn *ir.Function) []Ref {
	refs := make([]Ref, len(fn.Includes))
	for i, inc := range fn.Includes {
		refs[i] = Ref{Symbol: inc.Symbol, Alias: inc.Alias}
	}
	return refs
}

// Resolver looks symbols up by registered name.
type Resolver interface {
	Lookup(name string) (Symbol, bool)
}

// Registry is an in-memory symbol table. The zero value is not usable;
// create one with NewRegistry.
type Registry struct {
	symbols map[string]Symbol
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{symbols: make(map[string]Symbol)}
}

// Register adds sym under key. Keys are unique.
func (r *Registry) Register(key string, sym Symbol) error {
	if key == "" {
		return errors.New("symbol key must not be empty")
	}
	if _, err := ParseKind(string(sym.Kind)); err != nil {
		return fmt.Errorf("symbol %q: %w", key, err)
	}
	if _, exists := r.symbols[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSymbol, key)
	}
	r.symbols[key] = sym
	return nil
}

// RegisterFunction registers fn under its own name. A function of the entry
// module is inlined by source; one owned by another module is imported
// from it.
func (r *Registry) RegisterFunction(fn *ir.Function) error {
	if fn.Module != "" && fn.Module != EntryModule {
		return r.Register(fn.Name, Symbol{
			Name:   fn.Name,
			Module: fn.Module,
			Kind:   KindExternal,
		})
	}
	return r.Register(fn.Name, Symbol{
		Name:   fn.Name,
		Module: EntryModule,
		Kind:   KindEntry,
		Source: fn.Source,
	})
}

// Lookup returns the symbol registered under key.
func (r *Registry) Lookup(key string) (Symbol, bool) {
	sym, ok := r.symbols[key]
	return sym, ok
}

// Names returns all registered keys in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.symbols))
	for name := range r.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Represent renders one symbol as source text.
//
//	module    import <module>
//	entry     "\n" + source
//	external  from <module> import <name>[ as <alias>]
//
// The alias clause is added only when alias is set and differs from the
// symbol's own name. An external symbol without an owning module renders as
// the empty string.
func Represent(sym Symbol, alias string) string {
	switch sym.Kind {
	case KindModule:
		module := sym.Module
		if module == "" {
			module = sym.Name
		}
		return "import " + module
	case KindEntry:
		return "\n" + sym.Source
	default:
		if sym.Module == "" {
			return ""
		}
		stmt := "from " + sym.Module + " import " + sym.Name
		if alias != "" && alias != sym.Name {
			stmt += " as " + alias
		}
		return stmt
	}
}

// Resolve renders refs in order, joined by newlines.
// It fails on the first reference that names no registered symbol.
func Resolve(res Resolver, refs []Ref) (string, error) {
	parts := make([]string, len(refs))
	for i, ref := range refs {
		sym, ok := res.Lookup(ref.Symbol)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, ref.Symbol)
		}
		parts[i] = Represent(sym, ref.Alias)
	}
	return strings.Join(parts, "\n"), nil
}

// Assemble builds the compile source for fn: the resolved includes followed
// directly by fn's own definition.
func Assemble(res Resolver, fn *ir.Function, refs []Ref) (string, error) {
	includes, err := Resolve(res, refs)
	if err != nil {
		return "", fmt.Errorf("resolve includes of %s: %w", fn.Name, err)
	}
	entry := Represent(Symbol{
		Name:   fn.Name,
		Module: EntryModule,
		Kind:   KindEntry,
		Source: fn.Source,
	}, "")
	return includes + entry, nil
}
