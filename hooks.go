package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OnDispatchFunc is called just before an event enters the update chain.
type OnDispatchFunc func(ctx context.Context, event any)

// OnSuccessFunc is called after a matched handler completes successfully.
type OnSuccessFunc func(ctx context.Context, event any, duration time.Duration)

// OnFailureFunc is called when a dispatch attempt ends in an error: a filter
// evaluation error, an unrecovered handler error, or an error-handler error.
type OnFailureFunc func(ctx context.Context, event any, err error, duration time.Duration)

// OnUnhandledFunc is called when no update-chain entry claims the event.
type OnUnhandledFunc func(ctx context.Context, event any)

// OnErrorHandledFunc is called when an error-chain handler recovers a
// handler failure. result is the error handler's return value, which becomes
// the dispatch result.
type OnErrorHandledFunc func(ctx context.Context, event *ErrorEvent, result any)

// hooks holds all configured hook functions.
type hooks struct {
	onDispatch     []OnDispatchFunc
	onSuccess      []OnSuccessFunc
	onFailure      []OnFailureFunc
	onUnhandled    []OnUnhandledFunc
	onErrorHandled []OnErrorHandledFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for the dispatcher's own diagnostics.
// The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithOnDispatch adds a hook called before routing each event.
// Multiple hooks are called in order.
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onDispatch = append(d.hooks.onDispatch, fn)
	}
}

// WithOnSuccess adds a hook called after a handler completes successfully.
// Multiple hooks are called in order.
//
// Example:
//
//	dispatch.WithOnSuccess(func(ctx context.Context, event any, d time.Duration) {
//	    metrics.Timing("dispatch.success", d)
//	})
func WithOnSuccess(fn OnSuccessFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onSuccess = append(d.hooks.onSuccess, fn)
	}
}

// WithOnFailure adds a hook called when a dispatch attempt ends in an error.
// Multiple hooks are called in order.
func WithOnFailure(fn OnFailureFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onFailure = append(d.hooks.onFailure, fn)
	}
}

// WithOnUnhandled adds a hook called when no entry claims an event.
// Multiple hooks are called in order.
func WithOnUnhandled(fn OnUnhandledFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onUnhandled = append(d.hooks.onUnhandled, fn)
	}
}

// WithOnErrorHandled adds a hook called when an error handler recovers a
// handler failure. Multiple hooks are called in order.
func WithOnErrorHandled(fn OnErrorHandledFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onErrorHandled = append(d.hooks.onErrorHandled, fn)
	}
}
