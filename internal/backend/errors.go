package backend

import (
	"context"
	"errors"
	"fmt"
	"net"

	claudecode "github.com/rokrokss/claude-code-sdk-go"

	"github.com/buker/devdash/internal/stream"
)

// User-facing messages for each error category.
const (
	errMsgNetwork      = "Could not reach the backend at %s. Is it running?"
	errMsgTimeout      = "The request timed out. Please try again."
	errMsgCanceled     = "Request cancelled."
	errMsgStatus       = "Backend returned status %d."
	errMsgMalformed    = "The backend sent a response that could not be read."
	errMsgStream       = "The answer stream was interrupted by a backend error."
	errMsgCLINotFound  = "Claude Code CLI not found. Install with: npm install -g @anthropic-ai/claude-code"
	errMsgLocalProcess = "Claude Code CLI subprocess failed: %s"
	errMsgLocalConnect = "connection to Claude Code CLI failed: %s"
	errMsgUnknown      = "An error occurred while processing your request."
)

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response. Detail holds the backend's error or
// detail field when the body carried one.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// MalformedResponseError is a 2xx response that is not JSON or cannot be
// decoded.
type MalformedResponseError struct {
	Code        int
	ContentType string
	Err         error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response (%s): %v", e.ContentType, e.Err)
	}
	return fmt.Sprintf("malformed response: unexpected content type %q", e.ContentType)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// BackendError is a decoded response that reports a failure through its
// error or detail field.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

// errorType represents the category of an error for user display.
type errorType int

const (
	errTypeUnknown errorType = iota
	errTypeCanceled
	errTypeTimeout
	errTypeNetwork
	errTypeStatus
	errTypeMalformed
	errTypeBackend
	errTypeStream
	errTypeCLINotFound
	errTypeProcess
	errTypeConnection
)

// classifyError determines the category of err.
func classifyError(err error) errorType {
	if err == nil {
		return errTypeUnknown
	}
	if errors.Is(err, context.Canceled) {
		return errTypeCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errTypeTimeout
	}

	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return errTypeBackend
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return errTypeStatus
	}
	var malformedErr *MalformedResponseError
	if errors.As(err, &malformedErr) {
		return errTypeMalformed
	}
	if stream.IsSentinel(err) {
		return errTypeStream
	}

	var cliNotFoundErr *claudecode.CLINotFoundError
	if errors.As(err, &cliNotFoundErr) {
		return errTypeCLINotFound
	}
	var processErr *claudecode.ProcessError
	if errors.As(err, &processErr) {
		return errTypeProcess
	}
	var connectionErr *claudecode.ConnectionError
	if errors.As(err, &connectionErr) {
		return errTypeConnection
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		var timeout net.Error
		if errors.As(err, &timeout) && timeout.Timeout() {
			return errTypeTimeout
		}
		return errTypeNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errTypeNetwork
	}
	return errTypeUnknown
}

// UserMessage converts any error from this package, the stream package or the
// local provider into one line suitable for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch classifyError(err) {
	case errTypeCanceled:
		return errMsgCanceled
	case errTypeTimeout:
		return errMsgTimeout
	case errTypeBackend:
		var backendErr *BackendError
		errors.As(err, &backendErr)
		return backendErr.Message
	case errTypeStatus:
		var statusErr *StatusError
		errors.As(err, &statusErr)
		if statusErr.Detail != "" {
			return statusErr.Detail
		}
		return fmt.Sprintf(errMsgStatus, statusErr.Code)
	case errTypeMalformed:
		return errMsgMalformed
	case errTypeStream:
		var se *stream.SentinelError
		errors.As(err, &se)
		if se.Message != "" {
			return errMsgStream + " " + se.Message
		}
		return errMsgStream
	case errTypeCLINotFound:
		return errMsgCLINotFound
	case errTypeProcess:
		return fmt.Sprintf(errMsgLocalProcess, extractProcessErrorMsg(err))
	case errTypeConnection:
		return fmt.Sprintf(errMsgLocalConnect, err.Error())
	case errTypeNetwork:
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			return fmt.Sprintf(errMsgNetwork, netErr.URL)
		}
		return fmt.Sprintf(errMsgNetwork, "the configured URL")
	default:
		if err.Error() != "" {
			return err.Error()
		}
		return errMsgUnknown
	}
}

// extractProcessErrorMsg extracts details from a ProcessError.
func extractProcessErrorMsg(err error) string {
	var processErr *claudecode.ProcessError
	if errors.As(err, &processErr) {
		if processErr.Stderr != "" {
			return processErr.Stderr
		}
		if processErr.ExitCode != 0 {
			return fmt.Sprintf("exit code %d", processErr.ExitCode)
		}
	}
	return err.Error()
}

// IsNetwork reports whether err means the backend could not be reached.
func IsNetwork(err error) bool {
	t := classifyError(err)
	return t == errTypeNetwork || t == errTypeTimeout
}
