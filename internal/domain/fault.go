package domain

import (
	"errors"
	"fmt"
)

// FaultKind is the closed taxonomy surfaced in the response envelope.
type FaultKind string

const (
	FaultToolNotFound          FaultKind = "ToolNotFound"
	FaultMissingParameter      FaultKind = "MissingRequiredParameter"
	FaultUnknownParameter      FaultKind = "UnknownParameter"
	FaultInvalidArguments      FaultKind = "InvalidArguments"
	FaultUpstreamFailure       FaultKind = "UpstreamFailure"
	FaultInternalConfiguration FaultKind = "InternalConfigurationError"
)

// Fault is a classified failure. Messages are human-readable and must never
// contain stack traces or credentials.
type Fault struct {
	Kind    FaultKind
	Message string
	Tool    string
}

// Error implements error.
func (f *Fault) Error() string {
	return string(f.Kind) + ": " + f.Message
}

// Faultf builds a Fault with a formatted message.
func Faultf(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// FaultOf classifies err. An error that already is (or wraps) a Fault keeps
// its kind; anything else a handler reports is an UpstreamFailure.
func FaultOf(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return &Fault{Kind: FaultUpstreamFailure, Message: err.Error()}
}
