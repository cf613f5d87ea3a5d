package dispatch

import "errors"

// ErrUnhandled is returned by FeedUpdate and Trigger when no registered
// entry claims the event. It signals "nobody wanted this", which is
// distinct from a handler claiming the event and failing.
var ErrUnhandled = errors.New("dispatch: event not handled")

// ErrNotFilter is returned when a value passed at registration time cannot
// be used as a filter.
var ErrNotFilter = errors.New("dispatch: value is not a filter")

// ErrInvalidJSON is returned by ParseUpdate when the input is not valid JSON.
var ErrInvalidJSON = errors.New("dispatch: invalid JSON")

// ErrUnknownKind is returned by ParseUpdate when the update carries none of
// the recognized event fields.
var ErrUnknownKind = errors.New("dispatch: unknown update kind")

// handlerError marks an error as raised by a matched handler's callback,
// so the dispatcher can tell it apart from a filter evaluation error.
type handlerError struct {
	err error
}

func (e *handlerError) Error() string { return e.err.Error() }
func (e *handlerError) Unwrap() error { return e.err }
