package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxNameLength is the longest name (cue, bus, category, AISAC control)
	// accepted by the engine, in encoded bytes.
	MaxNameLength = 128

	// MaxOutputPortNameLength is the longest output port name, in encoded bytes.
	MaxOutputPortNameLength = 32

	// MaxPathLength is the longest file path, in encoded bytes.
	MaxPathLength = 256

	// TerminatorSize is the size of the NUL terminator appended to every
	// native string.
	TerminatorSize = 1
)

var (
	// ErrTooLong indicates the encoded text exceeds its field limit.
	ErrTooLong = errors.New("text exceeds native field limit")

	// ErrEmpty indicates a field that requires text received none.
	ErrEmpty = errors.New("empty text for required field")

	// ErrUnknownField indicates a Field value with no registered limit.
	ErrUnknownField = errors.New("unknown field")
)

// Field identifies a class of native text parameter.
type Field uint8

const (
	// FieldFree has no length limit beyond what fits in memory.
	FieldFree Field = iota
	// FieldName covers cue, bus, category and AISAC control names.
	FieldName
	// FieldOutputPortName covers output port names.
	FieldOutputPortName
	// FieldPath covers file system paths.
	FieldPath
)

// String returns the field name used in error messages.
func (f Field) String() string {
	switch f {
	case FieldFree:
		return "free"
	case FieldName:
		return "name"
	case FieldOutputPortName:
		return "output_port_name"
	case FieldPath:
		return "path"
	default:
		return fmt.Sprintf("field(%d)", uint8(f))
	}
}

// Limit returns the maximum encoded length for the field, or -1 when the
// field is unbounded.
func (f Field) Limit() (int, error) {
	switch f {
	case FieldFree:
		return -1, nil
	case FieldName:
		return MaxNameLength, nil
	case FieldOutputPortName:
		return MaxOutputPortNameLength, nil
	case FieldPath:
		return MaxPathLength, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
}

// Validate checks an encoded length (without terminator) against the field.
func Validate(f Field, encodedLen int) error {
	limit, err := f.Limit()
	if err != nil {
		return err
	}
	if limit >= 0 && encodedLen > limit {
		return fmt.Errorf("%w: %s length %d exceeds limit %d", ErrTooLong, f, encodedLen, limit)
	}
	return nil
}

// ValidateRequired is Validate for fields that must not be empty.
func ValidateRequired(f Field, encodedLen int) error {
	if encodedLen == 0 {
		return fmt.Errorf("%w: %s", ErrEmpty, f)
	}
	return Validate(f, encodedLen)
}
