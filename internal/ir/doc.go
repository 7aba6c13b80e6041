// Package ir provides the typed intermediate representation shared by the
// encoder, the manifest loader and the session orchestrator.
//
// This package contains type descriptors, values and declarations only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Type is a closed set: IntType, BoolType, FieldType, Visibility, Array
//   - Value is a closed set: IntValue, BoolValue, FieldValue, ListValue
//   - Argument order is declaration order everywhere, never map order
//   - Field elements are arbitrary precision (*big.Int), never float
package ir
