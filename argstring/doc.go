// Package argstring converts Go text into the NUL-terminated byte strings the
// native engine takes for names and paths.
//
// An ArgString lives for exactly one native call. Callers size a scratch
// buffer with BufferSize (or use a ScratchSize array on the stack) and Encode
// writes into it, so the per-frame call sites (SetBusVolumeByName, AISAC
// control updates) do not allocate:
//
//	var scratch [argstring.ScratchSize]byte
//	name, err := argstring.Encode(scratch[:0], busName, limits.FieldName)
//	if err != nil {
//	    return err // nothing was sent to the engine
//	}
//	engine.SetBusVolumeByName(name.Ptr(), volume)
//
// Encoding fails before any native call for invalid UTF-8 input, runes the
// target encoding cannot represent, embedded NUL bytes, and text longer than
// the field limit from package limits. A partially encoded buffer is never
// returned.
//
// UTF-8 is the default encoding. Shift_JIS is available for platforms whose
// engine build expects it, and NFC normalization can be enabled so that names
// typed on different input methods match the names authored in the tool.
package argstring
