package ir

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// TypeError reports a malformed type expression.
type TypeError struct {
	Expr    string
	Offset  int
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type %q at offset %d: %s", e.Expr, e.Offset, e.Message)
}

// ParseType parses a type expression as written in circuit declarations.
//
// Grammar:
//
//	type  = "int" | "bool" | "field"
//	      | ("Public" | "Private") "[" type "]"
//	      | "Array" "[" type "," length "]"
//
// Leaf names are case-insensitive. Array length must be a positive decimal
// constant. ParseType(t.String()) round-trips for every valid t.
func ParseType(expr string) (Type, error) {
	p := &typeParser{src: expr}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input %q", p.src[p.pos:])
	}
	return t, nil
}

// MustParseType is like ParseType but panics on error.
// Use only in tests or with constant expressions.
func MustParseType(expr string) Type {
	t, err := ParseType(expr)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &TypeError{Expr: p.src, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *typeParser) parseType() (Type, error) {
	start := p.pos
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected type name")
	}

	switch strings.ToLower(name) {
	case "int":
		return IntType{}, nil
	case "bool":
		return BoolType{}, nil
	case "field":
		return FieldType{}, nil
	case "public", "private":
		mode := Public
		if strings.EqualFold(name, "private") {
			mode = Private
		}
		if err := p.expect('['); err != nil {
			return nil, err
		}
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		return Visibility{Mode: mode, Inner: inner}, nil
	case "array":
		if err := p.expect('['); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		p.skipSpace()
		lenStart := p.pos
		lit := p.ident()
		n, err := strconv.Atoi(lit)
		if err != nil {
			p.pos = lenStart
			return nil, p.errorf("array length %q is not a decimal constant", lit)
		}
		if n <= 0 {
			p.pos = lenStart
			return nil, p.errorf("array length must be positive, got %d", n)
		}
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		return Array{Elem: elem, Len: n}, nil
	default:
		p.pos = start
		return nil, p.errorf("unknown type %q", name)
	}
}
