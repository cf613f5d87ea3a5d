package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// MatchKey is the context key under which ExceptionMessageFilter publishes
// its match. The value is the []string returned by FindStringSubmatch, so
// error handlers can read capture groups. The key is part of the public
// contract: handlers bind to it by name.
const MatchKey = "match_exception"

// ErrorEvent wraps the original event together with the error a handler
// returned for it. The dispatcher builds one per failed handler invocation
// and routes it through the error chain; user code never constructs one
// during normal routing.
type ErrorEvent struct {
	// Event is the original event whose handler failed.
	Event any

	// Err is the error the handler returned.
	Err error
}

// ExceptionTypeFilter matches error events whose error chain reaches one of
// the configured targets. Sentinel targets match via errors.Is, so wrapped
// errors behave like subclasses: an error wrapping a target matches the
// target. Non-sentinel targets additionally match any error in the chain
// with the same concrete type.
type ExceptionTypeFilter struct {
	targets []error
}

// NewExceptionTypeFilter builds a type filter for the given target errors.
// At least one non-nil target is required.
func NewExceptionTypeFilter(targets ...error) (*ExceptionTypeFilter, error) {
	if len(targets) == 0 {
		return nil, errors.New("dispatch: exception type filter needs at least one target")
	}
	for _, t := range targets {
		if t == nil {
			return nil, errors.New("dispatch: exception type filter target is nil")
		}
	}
	return &ExceptionTypeFilter{targets: targets}, nil
}

// Check implements Filter. Events that are not *ErrorEvent are rejected:
// the filter is only meaningful on the error chain.
func (f *ExceptionTypeFilter) Check(_ context.Context, event any, _ Data) (Result, error) {
	ee, ok := event.(*ErrorEvent)
	if !ok || ee.Err == nil {
		return Reject(), nil
	}
	for _, t := range f.targets {
		if errors.Is(ee.Err, t) {
			return Accept(), nil
		}
		if tt := reflect.TypeOf(t); !opaqueErrType(tt) && chainHasType(ee.Err, tt) {
			return Accept(), nil
		}
	}
	return Reject(), nil
}

func (f *ExceptionTypeFilter) String() string {
	names := make([]string, len(f.targets))
	for i, t := range f.targets {
		names[i] = fmt.Sprintf("%T", t)
	}
	return fmt.Sprintf("ExceptionTypeFilter(%s)", strings.Join(names, ", "))
}

// opaqueErrTypes are the concrete types behind the stdlib error
// constructors. Every errors.New sentinel shares one of these, so they carry
// no identity of their own: a target of such a type matches via errors.Is
// only, never via the concrete-type walk.
var opaqueErrTypes = []reflect.Type{
	reflect.TypeOf(errors.New("")),
	reflect.TypeOf(fmt.Errorf("%w", errors.New(""))),
	reflect.TypeOf(fmt.Errorf("%w %w", errors.New(""), errors.New(""))),
	reflect.TypeOf(errors.Join(errors.New(""), errors.New(""))),
}

func opaqueErrType(tt reflect.Type) bool {
	for _, ot := range opaqueErrTypes {
		if tt == ot {
			return true
		}
	}
	return false
}

// chainHasType walks the wrapped-error chain looking for the concrete type.
func chainHasType(err error, tt reflect.Type) bool {
	if err == nil {
		return false
	}
	if reflect.TypeOf(err) == tt {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() error }:
		return chainHasType(x.Unwrap(), tt)
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if chainHasType(e, tt) {
				return true
			}
		}
	}
	return false
}

// ExceptionMessageFilter matches error events whose rendered error message
// contains the configured pattern. The pattern uses search semantics: it may
// match anywhere in the message, not only at the start.
type ExceptionMessageFilter struct {
	pattern *regexp.Regexp
}

// NewExceptionMessageFilter builds a message filter from either a pattern
// string or a precompiled *regexp.Regexp. A string is compiled with the
// default flags; a precompiled pattern is stored unchanged, so the stored
// form is uniform regardless of what the caller passed.
func NewExceptionMessageFilter(pattern any) (*ExceptionMessageFilter, error) {
	switch p := pattern.(type) {
	case string:
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("dispatch: compile exception pattern: %w", err)
		}
		return &ExceptionMessageFilter{pattern: re}, nil
	case *regexp.Regexp:
		if p == nil {
			return nil, errors.New("dispatch: exception pattern is nil")
		}
		return &ExceptionMessageFilter{pattern: p}, nil
	default:
		return nil, fmt.Errorf("dispatch: exception pattern must be string or *regexp.Regexp, got %T", pattern)
	}
}

// Pattern returns the stored compiled pattern.
func (f *ExceptionMessageFilter) Pattern() *regexp.Regexp { return f.pattern }

// Check implements Filter. On a match it accepts with the submatch slice
// published under MatchKey; otherwise it rejects. Events that are not
// *ErrorEvent are rejected.
func (f *ExceptionMessageFilter) Check(_ context.Context, event any, _ Data) (Result, error) {
	ee, ok := event.(*ErrorEvent)
	if !ok || ee.Err == nil {
		return Reject(), nil
	}
	m := f.pattern.FindStringSubmatch(ee.Err.Error())
	if m == nil {
		return Reject(), nil
	}
	return AcceptWith(Data{MatchKey: m}), nil
}

func (f *ExceptionMessageFilter) String() string {
	return fmt.Sprintf("ExceptionMessageFilter(pattern=%q)", f.pattern.String())
}
