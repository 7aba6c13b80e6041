// Package harness runs encoding scenarios: a function signature, a modulus
// and argument values go in, and the prover and verifier input blocks come
// out and are checked against expectations.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: affine_mixed
//	description: "Private and public field arguments under a small modulus"
//	modulus: "97"                 # decimal, or bn254 / bls12_381 / curve25519
//	function:
//	  name: affine
//	  params:
//	    - { name: a, type: "Private[field]" }
//	    - { name: b, type: "Public[field]" }
//	  returns: field
//	args: [7, 3]                  # in parameter order
//	return: 10
//	expect:
//	  prover: |-
//	    (set_default_modulus 97
//	    ...
//	assertions:
//	  - type: verifier_omits
//	    text: "(a #f7)"
//
// Field values larger than a YAML integer are written as decimal strings.
//
// # Assertion Types
//
//   - prover_contains, verifier_contains: the block contains text
//   - verifier_omits: the verifier block does not contain text
//   - modulus_wrapper: present is true iff both blocks are wrapped
//   - problems: encode.Check reports exactly count problems
//
// # Golden Files
//
// RunWithGolden stores testdata/golden/<name>.prover.golden and
// <name>.verifier.golden. Regenerate with:
//
//	go test ./internal/harness -update
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/affine.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
