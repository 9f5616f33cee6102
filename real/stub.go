//go:build !(atomnative && cgo)

package real

import (
	"errors"

	"github.com/opd-ai/atomgo/interfaces"
	"github.com/opd-ai/atomgo/logging"
)

// ErrUnavailable is returned by NewEngine in builds without the native
// library.
var ErrUnavailable = errors.New("native Atom library not linked")

// ErrInitializeFailed indicates the library refused its configuration.
var ErrInitializeFailed = errors.New("native engine initialization failed")

// Available reports whether this build links the native library.
func Available() bool { return false }

// NewEngine returns ErrUnavailable; build with -tags atomnative and cgo to
// link the library.
func NewEngine() (interfaces.NativeEngine, error) {
	logging.New("real", "NewEngine").Warn("Native Atom library not linked in this build")
	return nil, ErrUnavailable
}
