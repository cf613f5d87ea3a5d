package dispatch

import (
	"context"
	"errors"
	"sync"
)

// Handler is the callback invoked for a matched entry. It receives the event
// and the context mapping accumulated by the entry's filter chain. The
// returned value, if any, becomes the dispatch result.
type Handler func(ctx context.Context, event any, data Data) (any, error)

// entry pairs a handler callback with its normalized filter chain.
type entry struct {
	callback Handler
	chain    []FilterObject
}

// Router is an ordered collection of handler entries. Registration order is
// match priority: the first entry whose whole chain passes wins, and entries
// registered later never affect the relative order of earlier ones.
//
// Router is safe for concurrent triggering. Registration during live
// dispatch is allowed; an in-flight trigger works on the snapshot it took
// and will not see entries added after it started.
type Router struct {
	mu      sync.RWMutex
	entries []*entry
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{}
}

// Register appends a handler entry with the given filter chain. Filters are
// normalized through NewFilterObject immediately, so a non-filter value
// fails here, at registration time, never during dispatch. An entry with an
// empty chain matches every event.
func (r *Router) Register(h Handler, filters ...any) error {
	if h == nil {
		return errors.New("dispatch: handler is required")
	}
	chain, err := newChain(filters)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.entries = append(r.entries, &entry{callback: h, chain: chain})
	r.mu.Unlock()
	return nil
}

// Len returns the number of registered entries.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Trigger evaluates entries in registration order against the event and
// invokes the first entry whose filter chain passes. data seeds the chain's
// accumulated context and may be nil.
//
// The error is ErrUnhandled when no entry matches, the filter's own error
// when chain evaluation fails, or the callback's error when the matched
// handler fails. Callers that need to tell filter failures from handler
// failures should dispatch through a Dispatcher, which routes handler
// failures to the error chain.
func (r *Router) Trigger(ctx context.Context, event any, data Data) (any, error) {
	res, err := r.trigger(ctx, event, data)
	var herr *handlerError
	if errors.As(err, &herr) {
		return res, herr.err
	}
	return res, err
}

// trigger is Trigger with handler failures left wrapped in *handlerError so
// the dispatcher can discriminate them from filter evaluation errors.
func (r *Router) trigger(ctx context.Context, event any, data Data) (any, error) {
	r.mu.RLock()
	entries := r.entries
	r.mu.RUnlock()

	for _, e := range entries {
		acc, matched, err := evaluateChain(ctx, e.chain, event, data)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		if err := ctx.Err(); err != nil {
			// Cancelled mid-dispatch: no handler invocation, no error routing.
			return nil, err
		}
		result, err := e.callback(ctx, event, acc)
		if err != nil {
			return nil, &handlerError{err: err}
		}
		return result, nil
	}
	return nil, ErrUnhandled
}

// evaluateChain runs the chain in order against the event, accumulating
// context. Evaluation short-circuits on the first rejection; remaining
// filters are never checked. Filters run strictly one at a time, because a
// later filter may depend on context produced by an earlier one.
func evaluateChain(ctx context.Context, chain []FilterObject, event any, data Data) (Data, bool, error) {
	acc := data.clone()
	for _, fo := range chain {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		res, err := fo.call(ctx, event, acc)
		if err != nil {
			return nil, false, err
		}
		if !res.Passed() {
			return nil, false, nil
		}
		acc.merge(res.Data())
	}
	return acc, true, nil
}
