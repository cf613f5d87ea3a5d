package dispatch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Dispatcher is the event-routing engine. It owns two routers: the update
// chain for incoming events and the error chain for failures raised while
// handling them.
//
// The flow per event: trigger the update chain; if the matched handler
// fails, wrap the event and the error into an *ErrorEvent and trigger the
// error chain once. A matching error handler's result replaces the failure.
// If no error handler claims the event, the original handler error
// propagates to the caller.
//
// Dispatcher is safe for concurrent use: many events may be fed at once,
// each dispatch attempt evaluating its chains independently.
type Dispatcher struct {
	updates *Router
	errors  *Router
	hooks   hooks
	log     *zap.Logger
}

// New creates a Dispatcher with the given options.
//
// Example:
//
//	d := dispatch.New(
//	    dispatch.WithLogger(logger),
//	    dispatch.WithOnFailure(func(ctx context.Context, event any, err error, d time.Duration) {
//	        metrics.Incr("dispatch.failure")
//	    }),
//	)
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		updates: NewRouter(),
		errors:  NewRouter(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Updates returns the router for the normal event chain.
func (d *Dispatcher) Updates() *Router { return d.updates }

// Errors returns the router for the error chain. Its filters and handlers
// receive *ErrorEvent values.
func (d *Dispatcher) Errors() *Router { return d.errors }

// OnUpdate registers a handler on the update chain.
func (d *Dispatcher) OnUpdate(h Handler, filters ...any) error {
	return d.updates.Register(h, filters...)
}

// OnError registers a handler on the error chain.
func (d *Dispatcher) OnError(h Handler, filters ...any) error {
	return d.errors.Register(h, filters...)
}

// FeedUpdate dispatches one event through the update chain.
//
// The result is the matched handler's return value, or the matched error
// handler's return value when the handler failed and the error chain
// claimed the failure. The error is ErrUnhandled when no update entry
// matches, a filter's own error when chain evaluation fails on either
// chain, or the handler's error when the error chain does not recover it.
// Errors raised inside an error handler propagate directly; they are not
// routed again.
func (d *Dispatcher) FeedUpdate(ctx context.Context, event any) (any, error) {
	for _, fn := range d.hooks.onDispatch {
		fn(ctx, event)
	}

	start := time.Now()
	res, err := d.updates.trigger(ctx, event, nil)
	if err == nil {
		duration := time.Since(start)
		d.log.Debug("event handled", zap.Duration("duration", duration))
		for _, fn := range d.hooks.onSuccess {
			fn(ctx, event, duration)
		}
		return res, nil
	}

	// Discriminate the handler-failure wrapper before anything else: a
	// handler may itself fail with an error wrapping ErrUnhandled, and that
	// is still a handler failure, not a missed match.
	var herr *handlerError
	if !errors.As(err, &herr) {
		if errors.Is(err, ErrUnhandled) {
			d.log.Debug("event not handled")
			for _, fn := range d.hooks.onUnhandled {
				fn(ctx, event)
			}
			return nil, ErrUnhandled
		}
		// Filter evaluation failed. The chain is not a failure boundary;
		// the error aborts the dispatch attempt as-is.
		d.log.Error("filter evaluation failed", zap.Error(err))
		d.callOnFailure(ctx, event, err, time.Since(start))
		return nil, err
	}

	cause := herr.err
	d.log.Error("handler failed, routing to error chain", zap.Error(cause))
	res, err = d.routeError(ctx, event, cause)
	if err != nil {
		d.callOnFailure(ctx, event, err, time.Since(start))
	}
	return res, err
}

// routeError runs the error chain once for a failed handler invocation.
func (d *Dispatcher) routeError(ctx context.Context, event any, cause error) (any, error) {
	ev := &ErrorEvent{Event: event, Err: cause}
	res, err := d.errors.trigger(ctx, ev, nil)
	if err == nil {
		d.log.Debug("error handled", zap.Error(cause))
		for _, fn := range d.hooks.onErrorHandled {
			fn(ctx, ev, res)
		}
		return res, nil
	}

	var herr *handlerError
	if errors.As(err, &herr) {
		// A double fault. Error routing is single-level; an error handler's
		// own failure propagates directly.
		d.log.Error("error handler failed", zap.Error(herr.err))
		return nil, herr.err
	}

	if errors.Is(err, ErrUnhandled) {
		// Nobody claimed the failure: the original error propagates.
		return nil, cause
	}

	// A filter on the error chain failed to evaluate.
	d.log.Error("error chain filter evaluation failed", zap.Error(err))
	return nil, err
}

// FeedRaw classifies a raw JSON update and dispatches it as an *Update.
func (d *Dispatcher) FeedRaw(ctx context.Context, raw []byte) (any, error) {
	u, err := ParseUpdate(raw)
	if err != nil {
		d.log.Warn("failed to parse raw update", zap.Error(err))
		return nil, err
	}
	return d.FeedUpdate(ctx, u)
}

func (d *Dispatcher) callOnFailure(ctx context.Context, event any, err error, duration time.Duration) {
	for _, fn := range d.hooks.onFailure {
		fn(ctx, event, err, duration)
	}
}
