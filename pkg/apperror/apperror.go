// Package apperror classifies failures into the fixed set of kinds
// spec.md §7 defines, so the daemon dispatcher can decide in one
// place whether a failure becomes an `Err` reply, a fatal shutdown,
// or neither (spec.md §7 "Propagation policy").
package apperror

import (
	"errors"
	"fmt"

	"github.com/driftwall/driftwall/pkg/bufferpool"
	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/waylandclient"
)

// Kind is one of spec.md §7's error kinds.
type Kind int

const (
	KindIOError Kind = iota // default: socket or file errors, surfaced to client
	KindDecode
	KindUnsupportedGeometry
	KindProtocolMismatch
	KindNoOutput
	KindBusy
	KindCompositorLost
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindUnsupportedGeometry:
		return "unsupported_geometry"
	case KindProtocolMismatch:
		return "protocol_mismatch"
	case KindNoOutput:
		return "no_output"
	case KindBusy:
		return "busy"
	case KindCompositorLost:
		return "compositor_lost"
	case KindIOError:
		return "io_error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Fatal reports whether this kind terminates the daemon. Only
// CompositorLost does (spec.md §7 "Only CompositorLost and
// unrecoverable OS errors terminate the daemon").
func (k Kind) Fatal() bool { return k == KindCompositorLost }

// ExitCode is the process exit status for a fatal kind.
func (k Kind) ExitCode() int {
	if k == KindCompositorLost {
		return 1
	}
	return 0
}

// Surfaced reports whether this kind should ever reach a client as an
// `Err` reply. Busy is purely internal (spec.md §7 "internal, never
// surfaced; resolved by waiting").
func (k Kind) Surfaced() bool { return k != KindBusy }

var (
	// ErrNoOutput is returned when a request names an output the
	// daemon has no surface for.
	ErrNoOutput = errors.New("apperror: no such output")
	// ErrProtocolMismatch is returned when a client's wire-format
	// version doesn't match the daemon's.
	ErrProtocolMismatch = errors.New("apperror: client/daemon protocol version mismatch")
)

// Error pairs a Kind with the underlying cause and, for per-output
// request failures, the output name the failure concerns (spec.md
// §4.G "partial failures are reported with per-output detail").
type Error struct {
	Kind   Kind
	Output string
	Err    error
}

func New(kind Kind, output string, err error) *Error {
	return &Error{Kind: kind, Output: output, Err: err}
}

func (e *Error) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s (output %s): %v", e.Kind, e.Output, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps an arbitrary error from the decode/resize/transport
// stack to the spec.md §7 kind that governs how the daemon reacts to
// it. Unrecognized errors default to IOError, matching the policy
// that only a known-fatal kind (CompositorLost) may terminate the
// daemon.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindIOError
	case errors.Is(err, waylandclient.ErrCompositorLost):
		return KindCompositorLost
	case errors.Is(err, imaging.ErrDecode):
		return KindDecode
	case errors.Is(err, imaging.ErrUnsupportedGeometry):
		return KindUnsupportedGeometry
	case errors.Is(err, bufferpool.ErrBusy):
		return KindBusy
	case errors.Is(err, ErrNoOutput):
		return KindNoOutput
	case errors.Is(err, ErrProtocolMismatch):
		return KindProtocolMismatch
	default:
		return KindIOError
	}
}
