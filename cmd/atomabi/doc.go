// Package main provides atomabi, a diagnostic tool for the Atom interop layer.
//
// # Usage
//
// Print the Go layout of every mirrored native struct and check it against
// the native headers:
//
//	atomabi layout
//	atomabi layout --format json
//
// Show how a string is marshaled for a native call:
//
//	atomabi encode --encoding shift_jis --field name "BGM_Title"
//
// Replace a callback handler while the simulated server invokes it and
// report whether any invocation observed a mismatched handler and context:
//
//	atomabi soak --invokes 1000 --cycles 10
//
// # Exit Codes
//
//   - 0: success
//   - 1: layout mismatch, invalid input or a failed soak run
package main
