package argstring

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/opd-ai/atomgo/limits"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/unicode/norm"
)

// ScratchSize fits any bounded field (the longest is a path) plus terminator.
const ScratchSize = limits.MaxPathLength + limits.TerminatorSize

// nfcMaxExpansion bounds how much NFC normalization can grow UTF-8 text.
const nfcMaxExpansion = 3

var (
	// ErrInvalidUTF8 indicates the Go string is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

	// ErrEmbeddedNUL indicates the text contains a NUL byte, which the engine
	// would read as the end of the string.
	ErrEmbeddedNUL = errors.New("text contains NUL byte")

	// ErrUnrepresentable indicates a rune the target encoding cannot encode.
	ErrUnrepresentable = errors.New("text not representable in target encoding")

	// ErrUnterminated indicates a native buffer without a NUL terminator
	// within its bound.
	ErrUnterminated = errors.New("native string not terminated")
)

// Encoding selects the byte encoding the engine build expects.
type Encoding uint8

const (
	// UTF8 passes Go text through unchanged.
	UTF8 Encoding = iota
	// ShiftJIS encodes through golang.org/x/text/encoding/japanese.
	ShiftJIS
)

// String returns the encoding name used in configuration.
func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case ShiftJIS:
		return "shift_jis"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// ParseEncoding maps a configuration name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "shift_jis", "shift-jis", "sjis":
		return ShiftJIS, nil
	default:
		return UTF8, fmt.Errorf("unknown text encoding %q", name)
	}
}

// ArgString is an encoded, NUL-terminated string valid for one native call.
type ArgString struct {
	buf []byte // includes terminator
}

// Ptr returns the address of the first byte, for passing as const char*.
// The pointer is only valid while the scratch buffer is alive and unchanged.
func (s ArgString) Ptr() *byte {
	if len(s.buf) == 0 {
		return nil
	}
	return &s.buf[0]
}

// Bytes returns the encoded text without the terminator.
func (s ArgString) Bytes() []byte {
	if len(s.buf) == 0 {
		return nil
	}
	return s.buf[:len(s.buf)-1]
}

// Len returns the encoded length without the terminator.
func (s ArgString) Len() int {
	if len(s.buf) == 0 {
		return 0
	}
	return len(s.buf) - 1
}

// BufferSize returns the buffer size (terminator included) that always fits
// the text. It depends only on the input length.
func (s ArgString) BufferSize() int { return len(s.buf) }

// Encoder encodes text for one engine configuration.
type Encoder struct {
	encoding  Encoding
	normalize bool
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithEncoding selects the target encoding.
func WithEncoding(e Encoding) Option {
	return func(enc *Encoder) { enc.encoding = e }
}

// WithNFC enables NFC normalization before encoding.
func WithNFC(enabled bool) Option {
	return func(enc *Encoder) { enc.normalize = enabled }
}

// NewEncoder builds an Encoder; the zero configuration is plain UTF-8.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{encoding: UTF8}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encoding returns the configured target encoding.
func (e *Encoder) Encoding() Encoding { return e.encoding }

// BufferSize returns the scratch size, terminator included, that Encode needs
// for text. Shift_JIS never needs more bytes than UTF-8 for the same text.
func (e *Encoder) BufferSize(text string) int {
	n := len(text)
	if e.normalize {
		n *= nfcMaxExpansion
	}
	return n + limits.TerminatorSize
}

// Encode writes text into scratch (reusing its capacity when large enough)
// and validates the encoded length against field.
func (e *Encoder) Encode(scratch []byte, text string, field limits.Field) (ArgString, error) {
	if !utf8.ValidString(text) {
		return ArgString{}, ErrInvalidUTF8
	}
	if strings.IndexByte(text, 0) >= 0 {
		return ArgString{}, ErrEmbeddedNUL
	}

	size := e.BufferSize(text)
	buf := scratch[:0]
	if cap(buf) < size {
		buf = make([]byte, 0, size)
	}

	if e.encoding == UTF8 && !e.normalize {
		buf = append(buf, text...)
	} else {
		// Transcoding goes through x/text transformers; the result is copied
		// so scratch itself never flows into them.
		encoded, err := e.transcode(text)
		if err != nil {
			return ArgString{}, err
		}
		buf = append(buf, encoded...)
	}

	if err := limits.Validate(field, len(buf)); err != nil {
		return ArgString{}, err
	}
	return ArgString{buf: append(buf, 0)}, nil
}

func (e *Encoder) transcode(text string) ([]byte, error) {
	src := text
	if e.normalize {
		src = norm.NFC.String(text)
	}
	switch e.encoding {
	case UTF8:
		return []byte(src), nil
	case ShiftJIS:
		out, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(src))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrepresentable, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %s", e.encoding)
	}
}

// Decode converts an encoded buffer back to Go text. A trailing terminator,
// if present, is dropped.
func (e *Encoder) Decode(b []byte) (string, error) {
	if n := len(b); n > 0 && b[n-1] == 0 {
		b = b[:n-1]
	}
	switch e.encoding {
	case UTF8:
		if !utf8.Valid(b) {
			return "", ErrInvalidUTF8
		}
		return string(b), nil
	case ShiftJIS:
		var dec *encoding.Decoder = japanese.ShiftJIS.NewDecoder()
		out, err := dec.Bytes(b)
		if err != nil {
			return "", fmt.Errorf("decode shift_jis: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unsupported encoding %s", e.encoding)
	}
}

// ReadNative copies a NUL-terminated native string of at most max bytes (not
// counting the terminator) and decodes it. A nil pointer yields "".
func (e *Encoder) ReadNative(p *byte, max int) (string, error) {
	if p == nil {
		return "", nil
	}
	// Scan byte by byte so no slice ever extends past the terminator.
	for n := 0; n <= max; n++ {
		if *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) == 0 {
			return e.Decode(unsafe.Slice(p, n))
		}
	}
	return "", fmt.Errorf("%w within %d bytes", ErrUnterminated, max)
}

// Default is the UTF-8 encoder without normalization.
var Default = NewEncoder()

// BufferSize is Default.BufferSize.
func BufferSize(text string) int { return Default.BufferSize(text) }

// Encode is Default.Encode.
func Encode(scratch []byte, text string, field limits.Field) (ArgString, error) {
	return Default.Encode(scratch, text, field)
}

// Decode is Default.Decode.
func Decode(b []byte) (string, error) { return Default.Decode(b) }
