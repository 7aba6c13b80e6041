package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation and assertion held.
	Pass bool `json:"pass"`

	// Prover is the encoded prover block.
	Prover string `json:"prover"`

	// Verifier is the encoded verifier block, empty if encoding failed.
	Verifier string `json:"verifier,omitempty"`

	// VerifierError is the verifier encoding error, if any.
	VerifierError string `json:"verifier_error,omitempty"`

	// Problems are the strict-mode findings for the arguments.
	Problems []string `json:"problems,omitempty"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
