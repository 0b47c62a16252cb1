package kv

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// ErrCode classifies client failures.
type ErrCode uint8

const (
	// ErrCodeConnect means one or more shard connections failed at startup.
	// Fatal for client construction, no partial client is returned.
	ErrCodeConnect ErrCode = iota
	// ErrCodeTransport means a write to or read from an established
	// connection failed. Local to the operation that triggered it.
	ErrCodeTransport
	// ErrCodeTimeout means no response arrived within the fixed read bound.
	ErrCodeTimeout
)

// Error is the error type returned by all client operations. It wraps an
// ErrCode and a message.
type Error struct {
	Code ErrCode // The error classification
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case ErrCodeConnect:
		errorCode = "ConnectError"
	case ErrCodeTransport:
		errorCode = "TransportError"
	case ErrCodeTimeout:
		errorCode = "TimeoutError"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("portkv (%s): %s", errorCode, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// IsTimeout reports whether err is a client timeout error.
func IsTimeout(err error) bool {
	return hasCode(err, ErrCodeTimeout)
}

// IsTransport reports whether err is a transport error.
func IsTransport(err error) bool {
	return hasCode(err, ErrCodeTransport)
}

// IsConnect reports whether err is a connection-establishment error.
func IsConnect(err error) bool {
	return hasCode(err, ErrCodeConnect)
}

func hasCode(err error, code ErrCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
