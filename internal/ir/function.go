package ir

// Param is a declared function parameter.
type Param struct {
	Name string `json:"name"`
	Type Type   `json:"-"`
}

// IncludeRef names a registered symbol the function needs at compile time,
// optionally under an alias.
type IncludeRef struct {
	Symbol string `json:"symbol"`
	Alias  string `json:"alias,omitempty"`
}

// Function is a circuit function declaration: its signature, its source
// text and the external symbols it depends on.
type Function struct {
	Name     string       `json:"name"`
	Module   string       `json:"module"`
	Params   []Param      `json:"params"`
	Return   Type         `json:"-"` // nil if unannotated
	Source   string       `json:"source"`
	Includes []IncludeRef `json:"includes,omitempty"`
}

// Argument is one bound argument: a parameter paired with its value.
type Argument struct {
	Name  string
	Value Value
	Type  Type
}

// Types returns the declared types of fn's parameters in declaration order.
func (fn *Function) Types() []Type {
	types := make([]Type, len(fn.Params))
	for i, p := range fn.Params {
		types[i] = p.Type
	}
	return types
}

// Bind pairs params with values in declaration order.
// The result has min(len(params), len(values)) entries; surplus values or
// parameters are dropped without error.
func Bind(params []Param, values []Value) []Argument {
	n := len(params)
	if len(values) < n {
		n = len(values)
	}
	args := make([]Argument, n)
	for i := 0; i < n; i++ {
		args[i] = Argument{
			Name:  params[i].Name,
			Value: values[i],
			Type:  params[i].Type,
		}
	}
	return args
}
