// Package dispatch routes asynchronous chat/bot events to the first matching
// handler out of an ordered registry, using composable filters that can both
// gate dispatch and contribute extra context to the handler call.
//
// # Quick Start
//
// Create a dispatcher, register handlers with filter chains, and feed events:
//
//	d := dispatch.New()
//
//	d.OnUpdate(func(ctx context.Context, event any, data dispatch.Data) (any, error) {
//	    u := event.(*dispatch.Update)
//	    return processMessage(ctx, u.Payload)
//	}, dispatch.KindOf(dispatch.KindMessage))
//
//	result, err := d.FeedUpdate(ctx, update)
//
// # Filters
//
// A Filter inspects an event and returns a Result: reject, accept, or accept
// with extra context. Filters attached to one handler form a chain combined
// with logical AND and short-circuit evaluation; context contributed by
// earlier filters is visible to later ones and, on a full match, to the
// handler. When two filters contribute the same key, the later filter wins.
//
// Registration accepts Filter implementations or plain functions:
//
//	d.OnUpdate(handler,
//	    dispatch.KindOf(dispatch.KindMessage),
//	    func(event any) bool { return event != nil },
//	)
//
// Passing anything else fails at registration time with ErrNotFilter.
//
// Filters compose with Invert, And, and Or:
//
//	notPoll, err := dispatch.Invert(dispatch.KindOf(dispatch.KindPoll))
//
// Inversion negates the target's outcome on every check and discards any
// context the target produced.
//
// # Routing
//
// Handler entries are evaluated strictly in registration order; the first
// entry whose whole chain passes is invoked and its return value becomes the
// dispatch result. When no entry matches, FeedUpdate returns ErrUnhandled —
// "nobody claimed this event" is not a failure, and callers distinguish it
// with errors.Is.
//
// # Error Routing
//
// When a matched handler returns an error, the dispatcher wraps the original
// event and the error into an *ErrorEvent and routes it through a separately
// registered error chain:
//
//	kaboom, err := dispatch.NewExceptionMessageFilter("KABOOM")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d.OnError(func(ctx context.Context, event any, data dispatch.Data) (any, error) {
//	    return "recovered", nil
//	}, kaboom)
//
// A matching error handler's result replaces the failure. If no error
// handler matches, the original error propagates. Error routing is
// single-level: a failure inside an error handler propagates directly.
//
// Two filters are provided for the error chain. ExceptionTypeFilter matches
// against the wrapped-error chain, so errors wrapping a target behave like
// subclasses of it. ExceptionMessageFilter matches a pattern anywhere in the
// rendered message and publishes the submatch slice under MatchKey for
// handlers that need capture groups.
//
// Filter evaluation errors are never routed: the handler invocation is the
// only failure boundary. A filter that fails to evaluate aborts the dispatch
// attempt and its error goes straight to the caller.
//
// # Raw Updates
//
// FeedRaw classifies a raw JSON envelope by field presence — without
// deserializing the payload — and dispatches the resulting *Update:
//
//	result, err := d.FeedRaw(ctx, body)
//
// # Observability
//
// Functional options attach lifecycle hooks and a logger:
//
//	d := dispatch.New(
//	    dispatch.WithLogger(logger),
//	    dispatch.WithOnSuccess(func(ctx context.Context, event any, d time.Duration) {
//	        metrics.Timing("dispatch.success", d)
//	    }),
//	    dispatch.WithOnFailure(func(ctx context.Context, event any, err error, d time.Duration) {
//	        metrics.Incr("dispatch.failure")
//	    }),
//	)
//
// # Thread Safety
//
// Dispatch is safe for concurrent use: many events may be fed at once, and
// filters hold no mutable shared state once registered. Registration during
// live dispatch is allowed; in-flight evaluations work on the snapshot taken
// when they started, and new entries never reorder existing ones.
package dispatch
