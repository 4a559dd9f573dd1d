package domain

import "time"

// Status is the top-level outcome of an invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// InvocationRequest is one inbound tool call, decoded from either transport.
// Scoped to a single dispatch; never persisted.
type InvocationRequest struct {
	Tool      string
	Arguments Args

	// ProjectID attributes the call for diagnostics. Set from the tenant
	// header on the HTTP transport, empty on stdio. Never used for
	// authorization decisions.
	ProjectID string
}

// ErrorDescriptor is the wire-visible error half of the envelope.
type ErrorDescriptor struct {
	Kind    FaultKind `json:"kind"`
	Message string    `json:"message"`
	Tool    string    `json:"tool,omitempty"`
}

// InvocationResult is the uniform envelope returned for every invocation on
// every transport. Exactly one of Data/Error is populated.
type InvocationResult struct {
	Status    Status           `json:"status"`
	Data      any              `json:"data,omitempty"`
	Error     *ErrorDescriptor `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Success wraps a handler payload into a success envelope.
func Success(payload any) InvocationResult {
	return InvocationResult{
		Status:    StatusSuccess,
		Data:      payload,
		Timestamp: time.Now().UTC(),
	}
}

// Failure wraps a fault into an error envelope.
func Failure(f *Fault) InvocationResult {
	return InvocationResult{
		Status:    StatusError,
		Error:     &ErrorDescriptor{Kind: f.Kind, Message: f.Message, Tool: f.Tool},
		Timestamp: time.Now().UTC(),
	}
}
