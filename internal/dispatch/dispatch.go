// Package dispatch routes invocation requests through lookup, validation and
// handler execution, and funnels every outcome into the response envelope.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"toolgate/internal/domain"
	"toolgate/internal/registry"
	"toolgate/internal/validate"
)

// maxLoggedError bounds the error text attached to diagnostic records.
const maxLoggedError = 200

// Dispatcher is the orchestration unit shared by both transports. It holds
// only read-only state and is safe for concurrent use.
type Dispatcher struct {
	reg      *registry.Registry
	handlers *registry.HandlerMap
	log      zerolog.Logger
}

// New builds a dispatcher over a verified registry/handler-map pair.
func New(reg *registry.Registry, handlers *registry.HandlerMap, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, handlers: handlers, log: log}
}

// Dispatch executes one invocation. Every exit path, including handler
// panics, produces a well-formed InvocationResult; no caller ever receives
// anything else. Validation and lookup failures never reach a handler, and
// the dispatcher never retries.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.InvocationRequest) domain.InvocationResult {
	started := time.Now()
	result := d.run(ctx, req)
	d.record(req, result, time.Since(started))
	return result
}

// run wraps the whole lookup/validate/execute path in a recover, so even a
// panic outside handler execution still yields an envelope instead of tearing
// down the transport.
func (d *Dispatcher) run(ctx context.Context, req domain.InvocationRequest) (res domain.InvocationResult) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.Failure(&domain.Fault{
				Kind:    domain.FaultInternalConfiguration,
				Message: fmt.Sprintf("dispatch panic: %v", r),
				Tool:    req.Tool,
			})
		}
	}()
	def, err := d.reg.Lookup(req.Tool)
	if err != nil {
		return domain.Failure(&domain.Fault{
			Kind:    domain.FaultToolNotFound,
			Message: "unknown tool: " + req.Tool,
			Tool:    req.Tool,
		})
	}

	args := req.Arguments
	if args == nil {
		args = domain.Args{}
	}
	normalized, err := validate.Normalize(def, args)
	if err != nil {
		f := domain.FaultOf(err)
		f.Tool = req.Tool
		return domain.Failure(f)
	}

	handler, err := d.handlers.Resolve(req.Tool)
	if err != nil {
		// Unreachable when startup verification held; surfaced defensively.
		return domain.Failure(&domain.Fault{
			Kind:    domain.FaultInternalConfiguration,
			Message: "no handler wired for tool " + req.Tool,
			Tool:    req.Tool,
		})
	}

	payload, err := execute(ctx, handler, normalized)
	if err != nil {
		f := domain.FaultOf(err)
		f.Tool = req.Tool
		return domain.Failure(f)
	}
	return domain.Success(payload)
}

// execute invokes the handler with panic containment, so a misbehaving leaf
// adapter can never terminate the transport session or crash a worker.
func execute(ctx context.Context, h domain.Handler, args domain.Args) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.Faultf(domain.FaultUpstreamFailure, "tool execution panic: %v", r)
		}
	}()
	return h.Execute(ctx, args)
}

// record emits the one structured diagnostic line per invocation.
func (d *Dispatcher) record(req domain.InvocationRequest, res domain.InvocationResult, took time.Duration) {
	evt := d.log.Info()
	if res.Status == domain.StatusError {
		evt = d.log.Warn()
	}
	evt = evt.
		Str("invocation", uuid.NewString()).
		Str("tool", req.Tool).
		Str("status", string(res.Status)).
		Dur("duration", took)
	if req.ProjectID != "" {
		evt = evt.Str("project", req.ProjectID)
	}
	if res.Error != nil {
		msg := res.Error.Message
		if len(msg) > maxLoggedError {
			msg = msg[:maxLoggedError]
		}
		evt = evt.Str("errorKind", string(res.Error.Kind)).Str("error", msg)
	}
	evt.Msg("tool invocation")
}
