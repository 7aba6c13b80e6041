// Package encode converts typed circuit arguments into the textual term
// format consumed by the proof backend.
//
// # Term Format
//
//	int            (<path> #x%08x)        8 lowercase hex digits, 32-bit
//	field          (<path> #f<decimal>)
//	bool           (<path> true) / (<path> false)
//	array element  <path>.<index>          zero-based, recursive
//
// Bindings are collected into a let block closed by the fixed placeholder
// term false:
//
//	(let (
//	    <binding_1>
//	    <binding_2>
//	)
//	    false
//	)
//
// When any argument type has a field leaf, the block is indented one level
// and wrapped in (set_default_modulus <modulus> ...).
//
// # Determinism
//
// Every function here is pure: identical inputs produce byte-identical
// output. Values that do not match their declared type are not rejected;
// they are rendered in their default textual form and the backend rejects
// the resulting term. Use Check to catch such mismatches beforehand.
package encode
