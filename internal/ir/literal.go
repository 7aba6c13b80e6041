package ir

import (
	"fmt"
	"math/big"
	"regexp"

	"gopkg.in/yaml.v3"
)

// decimalLiteral matches a plain decimal integer literal.
var decimalLiteral = regexp.MustCompile(`^[-+]?[0-9]+$`)

// Literal is a YAML value decoded for Coerce.
//
// yaml.v3 resolves integer literals beyond 64 bits to floats, which lose
// precision and are rejected by Coerce. Literal decodes them to *big.Int
// instead, so field elements can be written unquoted.
type Literal struct {
	Value any
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Literal) UnmarshalYAML(n *yaml.Node) error {
	v, err := decodeLiteral(n)
	if err != nil {
		return err
	}
	l.Value = v
	return nil
}

// Literals is a YAML sequence decoded element-wise like Literal.
type Literals []any

// UnmarshalYAML implements yaml.Unmarshaler.
func (ls *Literals) UnmarshalYAML(n *yaml.Node) error {
	v, err := decodeLiteral(n)
	if err != nil {
		return err
	}
	items, ok := v.([]any)
	if !ok && v != nil {
		return fmt.Errorf("line %d: expected a sequence", n.Line)
	}
	*ls = items
	return nil
}

func decodeLiteral(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeLiteral(n.Content[0])
	case yaml.AliasNode:
		return decodeLiteral(n.Alias)
	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := decodeLiteral(c)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case yaml.ScalarNode:
		if n.Style == 0 && n.ShortTag() != "!!int" && decimalLiteral.MatchString(n.Value) {
			if b, ok := new(big.Int).SetString(n.Value, 10); ok {
				return b, nil
			}
		}
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
