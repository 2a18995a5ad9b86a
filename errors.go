// Package esp32ctl is the command/control plane for a simulated
// embedded device: it multiplexes BLE, TCP, console, and script
// transports into one canonical command stream, dispatches typed
// commands, and hosts the OTA, filesystem, and logging subsystems
// those commands operate on.
package esp32ctl

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Error is a structured, wire-mappable error: every dispatcher-visible
// failure carries an ErrorCode plus the exact message that gets sent
// back over the transport as `ERROR: <Msg>` (spec §7).
type Error struct {
	Op    string
	Code  ErrorCode
	Errno unix.Errno
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("esp32ctl: %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("esp32ctl: %s", e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// Reply renders the wire-visible form of the error: spec §7 commands
// always reply with the bare message, no "esp32ctl:" prefix.
func (e *Error) Reply() string {
	return "ERROR: " + e.Msg
}

// ErrorCode enumerates the wire-visible error kinds from spec §7.
type ErrorCode string

const (
	ErrCodeEmptyLine         ErrorCode = "empty line"
	ErrCodeUnknownCommand    ErrorCode = "unknown command"
	ErrCodeMissingParameter  ErrorCode = "missing required parameter"
	ErrCodeInvalidValue      ErrorCode = "invalid value"
	ErrCodeValueOutOfBounds  ErrorCode = "value out of bounds"
	ErrCodeStringOutOfBounds ErrorCode = "string length out of bounds"
	ErrCodeTooManyParameters ErrorCode = "too many parameters"
	ErrCodeIOFailed          ErrorCode = "io failed"
	ErrCodeOTAFailed         ErrorCode = "ota failed"
	ErrCodeChecksumMismatch  ErrorCode = "checksum mismatch"
)

// NewError builds a structured error with a ready-made wire message.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// EmptyLine is the fixed reply for a frame with no command token.
func EmptyLine() *Error {
	return NewError("dispatch", ErrCodeEmptyLine, "empty line")
}

// UnknownCommand reports a command name with no table entry.
func UnknownCommand(name string) *Error {
	return NewError("dispatch", ErrCodeUnknownCommand, fmt.Sprintf("unknown command %q", name))
}

// MissingParameter reports a required positional parameter absent at index n.
func MissingParameter(n int) *Error {
	return NewError("dispatch", ErrCodeMissingParameter, fmt.Sprintf("missing required parameter %d", n))
}

// InvalidValue reports a parse failure for a typed parameter.
func InvalidValue(kind, value string) *Error {
	return NewError("dispatch", ErrCodeInvalidValue, fmt.Sprintf("invalid %s value: %s", kind, value))
}

// ValueOutOfBounds reports a bound violation for a numeric parameter.
func ValueOutOfBounds(kind, value, bound string, larger bool) *Error {
	dir := "smaller"
	if larger {
		dir = "larger"
	}
	return NewError("dispatch", ErrCodeValueOutOfBounds,
		fmt.Sprintf("invalid %s value: %s, %s than bound: %s", kind, value, dir, bound))
}

// StringOutOfBounds reports a string-length bound violation.
func StringOutOfBounds(length, bound int, larger bool) *Error {
	dir := "smaller"
	if larger {
		dir = "larger"
	}
	return NewError("dispatch", ErrCodeStringOutOfBounds,
		fmt.Sprintf("invalid string length: %d, %s than bound: %d", length, dir, bound))
}

// TooManyParameters reports more tokens than the command's spec allows.
func TooManyParameters() *Error {
	return NewError("dispatch", ErrCodeTooManyParameters, "too many parameters")
}

// IOFailed wraps a filesystem/errno failure in the §7 wire format.
func IOFailed(op string, errno unix.Errno) *Error {
	return &Error{
		Op:    op,
		Code:  ErrCodeIOFailed,
		Errno: errno,
		Msg:   fmt.Sprintf("%s failed: %s", op, errno.Error()),
	}
}

// OTAFailed reports an OTA-phase failure; the session is aborted by
// the caller before this error is returned.
func OTAFailed(phase, reason string) *Error {
	return NewError("ota", ErrCodeOTAFailed, fmt.Sprintf("ota %s failed: %s", phase, reason))
}

// ChecksumMismatch reports a checksum comparison failure for either
// OTA commit or frame verification.
func ChecksumMismatch(got, expected string) *Error {
	return NewError("checksum", ErrCodeChecksumMismatch, fmt.Sprintf("checksum mismatch: %s vs %s", got, expected))
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// mapErrno maps a POSIX errno to the Ramfs error codes the dispatcher
// understands (spec §4.8's open/read/write/seek/stat operations).
func mapErrno(err error) unix.Errno {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return unix.EIO
}
