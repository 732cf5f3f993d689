package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/toolhub/observe"
)

// State names the dispatch stages recorded on the call span.
type State string

const (
	StateReceived   State = "received"
	StateDecoded    State = "decoded"
	StateDispatched State = "dispatched"
	StateSucceeded  State = "succeeded"
	StateNotFound   State = "not_found"
	StateError      State = "error"
)

// Call is one named invocation with its raw argument payload.
type Call struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// capabilityFailure marks an error raised by the capability itself, as
// opposed to a dispatch error. It is reported to telemetry and then
// swallowed.
type capabilityFailure struct {
	err error
}

func (f capabilityFailure) Error() string { return f.err.Error() }
func (f capabilityFailure) Unwrap() error { return f.err }

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l observe.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMiddleware instruments each call with mw.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(d *Dispatcher) {
		if mw != nil {
			d.mw = mw
		}
	}
}

// Dispatcher decodes and routes calls against a Registry.
//
// Contract:
//   - Concurrency: safe for concurrent use; the registry is read-only.
//   - Errors: Dispatch returns an error only for malformed arguments and
//     unsupported conventions. Unknown names produce ActionNotFound.
//     Capability failures and panics are logged and produce (nil, nil).
//   - Context: ctx is passed to the capability unchanged. No deadline is
//     imposed.
type Dispatcher struct {
	registry *Registry
	logger   observe.Logger
	mw       *observe.Middleware
	exec     observe.ExecuteFunc
}

// NewDispatcher creates a Dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.mw == nil {
		d.mw = observe.NewMiddleware(nil, nil, d.logger)
	}
	d.exec = d.mw.Wrap(d.execute)
	return d
}

// Registry returns the registry calls are routed against.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

type dispatchInput struct {
	call    Call
	desc    Descriptor
	found   bool
	session Session
}

// Dispatch runs call for session s.
func (d *Dispatcher) Dispatch(ctx context.Context, s Session, call Call) (*Response, error) {
	desc, found := d.registry.Lookup(call.Name)
	meta := observe.CallMeta{Name: call.Name}
	if found {
		meta.Convention = desc.Convention.String()
	}
	if s != nil {
		meta.SessionID = s.ID()
	}

	out, err := d.exec(ctx, meta, dispatchInput{call: call, desc: desc, found: found, session: s})

	var failure capabilityFailure
	if errors.As(err, &failure) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	resp, _ := out.(*Response)
	return resp, nil
}

func (d *Dispatcher) execute(ctx context.Context, meta observe.CallMeta, input any) (any, error) {
	in := input.(dispatchInput)
	logger := d.logger.WithCall(meta)
	mark(ctx, StateReceived)
	logger.Debug(ctx, "call received", observe.F("raw_arguments", in.call.Arguments))

	decoded, err := DecodeArguments(in.call.Arguments)
	if err != nil {
		mark(ctx, StateError)
		return nil, err
	}
	if decoded.Repaired {
		logger.Warn(ctx, "repaired concatenated argument objects",
			observe.F("dropped_fragments", decoded.Dropped),
			observe.F("arguments", map[string]any(decoded.Args)),
		)
	}
	mark(ctx, StateDecoded)

	if !in.found {
		mark(ctx, StateNotFound)
		logger.Info(ctx, "capability not found")
		return NotFound(), nil
	}

	mark(ctx, StateDispatched)
	logger.Debug(ctx, "invoking capability", observe.F("arguments", map[string]any(decoded.Args)))

	resp, err := d.invoke(ctx, in.desc, in.session, decoded.Args)
	if err != nil {
		// The middleware logs err once.
		mark(ctx, StateError)
		return nil, err
	}
	mark(ctx, StateSucceeded)
	return resp, nil
}

func (d *Dispatcher) invoke(ctx context.Context, desc Descriptor, s Session, args Arguments) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = capabilityFailure{err: fmt.Errorf("capability %q panicked: %v", desc.Name, r)}
		}
	}()

	switch desc.Convention {
	case ContextBound:
		if desc.Bound == nil {
			break
		}
		return wrapFailure(desc.Bound(ctx, s, args))

	case ArgumentOnly:
		if desc.Plain == nil {
			break
		}
		return wrapFailure(desc.Plain(ctx, args))

	case ContextAndPromptMutating:
		if desc.Bound == nil {
			break
		}
		ps, ok := s.(PromptSession)
		if !ok {
			return nil, fmt.Errorf("%w: capability %q", ErrPromptUnsupported, desc.Name)
		}
		return wrapFailure(desc.Bound(ctx, ps, args))
	}

	return nil, fmt.Errorf("%w: capability %q has convention %s", ErrUnsupportedConvention, desc.Name, desc.Convention)
}

func wrapFailure(resp *Response, err error) (*Response, error) {
	if err != nil {
		return nil, capabilityFailure{err: err}
	}
	return resp, nil
}

func mark(ctx context.Context, s State) {
	observe.MarkState(ctx, string(s))
}
