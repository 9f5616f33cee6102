// Package limits centralizes the maximum encoded lengths the native engine
// accepts for text fields, so every call site validates against the same
// numbers before anything crosses the native boundary.
//
// # Field Limits
//
// Lengths are counted in encoded bytes and exclude the NUL terminator:
//
//   - MaxNameLength (128 bytes): cue, category, bus, AISAC control and
//     selector names.
//   - MaxOutputPortNameLength (32 bytes): output port names registered or
//     looked up through the ACF.
//   - MaxPathLength (256 bytes): file system paths for ACF, ACB and AWB files.
//
// # Validation
//
//	if err := limits.Validate(limits.FieldName, encoded); err != nil {
//	    // errors.Is(err, limits.ErrTooLong)
//	}
//
// The native engine truncates or rejects over-length text in ways that are
// reported only through its error callback, so over-length input is refused
// here instead.
package limits
