// Package capture orchestrates screen-assist captures: a countdown, a short
// burst of frames, release of the capture source and a single submission of
// the encoded frames to the backend.
//
// Capture devices are abstracted behind ScreenCapture and FrameSource so the
// orchestration runs identically against a watched screenshot directory, a
// fixed list of image files or a test fake.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
)

// ErrFrameNotReady is returned by FrameSource.NextFrame when no frame is
// available yet.
var ErrFrameNotReady = errors.New("frame not ready")

// ScreenCapture acquires a capture session.
type ScreenCapture interface {
	Start(ctx context.Context) (FrameSource, error)
}

// FrameSource yields frames from an acquired capture session.
type FrameSource interface {
	// NextFrame returns the current frame, or ErrFrameNotReady.
	NextFrame(ctx context.Context) (image.Image, error)
	// Stop releases every track of the session. It is idempotent.
	Stop() error
	// ActiveTracks reports how many tracks are live; zero after Stop.
	ActiveTracks() int
}

// Category classifies device acquisition failures.
type Category int

const (
	CategoryOther Category = iota
	CategoryDenied
	CategoryNotFound
	CategoryInvalidState
)

func (c Category) String() string {
	switch c {
	case CategoryDenied:
		return "denied"
	case CategoryNotFound:
		return "not found"
	case CategoryInvalidState:
		return "invalid state"
	default:
		return "other"
	}
}

// DeviceError is a capture acquisition failure.
type DeviceError struct {
	Category Category
	Err      error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return "screen capture " + e.Category.String()
	}
	return fmt.Sprintf("screen capture %s: %v", e.Category, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Denied wraps err as a permission failure.
func Denied(err error) error { return &DeviceError{Category: CategoryDenied, Err: err} }

// NotFound wraps err as a missing-source failure.
func NotFound(err error) error { return &DeviceError{Category: CategoryNotFound, Err: err} }

// InvalidState wraps err as an unavailable-in-this-state failure.
func InvalidState(err error) error { return &DeviceError{Category: CategoryInvalidState, Err: err} }

// classifyDevice turns an arbitrary Start error into a DeviceError.
func classifyDevice(err error) *DeviceError {
	var de *DeviceError
	if errors.As(err, &de) {
		return de
	}
	switch {
	case errors.Is(err, os.ErrPermission):
		return &DeviceError{Category: CategoryDenied, Err: err}
	case errors.Is(err, os.ErrNotExist):
		return &DeviceError{Category: CategoryNotFound, Err: err}
	default:
		return &DeviceError{Category: CategoryOther, Err: err}
	}
}
