package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/buker/devdash/internal/backend"
)

// Messages shown to the user.
const (
	MsgEmptyQuery   = "Please describe your issue before starting screen sharing."
	MsgDenied       = "Screen sharing was denied. Please allow screen sharing and try again."
	MsgNotFound     = "No screen or window was found to share. Please try again."
	MsgInvalidState = "Screen sharing is not available in this mode. Please use a normal session."
	MsgFailed       = "Screen capture failed."
	MsgNoFrames     = "No frames could be captured. Please try again."
	MsgBackend      = "Screen Assist backend error: %d"
	MsgAnalyze      = "Failed to analyze screen. Please try again."
	MsgSlow         = "Taking longer than expected. Claude may be busy..."
	MsgCancelled    = "Screen capture cancelled."
	MsgBusy         = "A screen capture is already in progress."
)

var (
	// ErrEmptyQuery is returned when Run is called without a description.
	ErrEmptyQuery = errors.New(MsgEmptyQuery)
	// ErrNoFrames is returned when every capture attempt found no frame.
	ErrNoFrames = errors.New("no frames captured")
	// ErrBusy is returned when Run is called while another run is active.
	ErrBusy = errors.New("capture already running")
)

// SubmitError wraps a failure of the screen-assist request.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return "submitting frames: " + e.Err.Error() }

func (e *SubmitError) Unwrap() error { return e.Err }

// UserMessage converts a Session.Run error into display text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrEmptyQuery) {
		return MsgEmptyQuery
	}
	if errors.Is(err, ErrBusy) {
		return MsgBusy
	}
	if errors.Is(err, ErrNoFrames) {
		return MsgNoFrames
	}

	var de *DeviceError
	if errors.As(err, &de) {
		switch de.Category {
		case CategoryDenied:
			return MsgDenied
		case CategoryNotFound:
			return MsgNotFound
		case CategoryInvalidState:
			return MsgInvalidState
		}
		if de.Err != nil && de.Err.Error() != "" {
			return de.Err.Error()
		}
		return MsgFailed
	}

	var se *SubmitError
	if errors.As(err, &se) {
		return submitMessage(se.Err)
	}
	if errors.Is(err, context.Canceled) {
		return MsgCancelled
	}
	return err.Error()
}

func submitMessage(err error) string {
	var backendErr *backend.BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Message
	}
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf(MsgBackend, statusErr.Code)
	}
	var malformed *backend.MalformedResponseError
	if errors.As(err, &malformed) {
		return fmt.Sprintf(MsgBackend, malformed.Code)
	}
	if errors.Is(err, context.Canceled) {
		return MsgCancelled
	}
	return MsgAnalyze
}
