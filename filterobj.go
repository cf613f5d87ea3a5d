package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
)

// FilterObject wraps one filter value behind a uniform calling convention.
// Registration normalizes every accepted form into a FilterObject once, so
// the router's hot path never branches on what the user originally passed.
//
// Accepted forms:
//   - Filter (including FilterFunc and the exception filters)
//   - func(ctx context.Context, event any, data Data) (Result, error)
//   - func(ctx context.Context, event any) (bool, error)
//   - func(event any) bool
//
// Anything else fails at construction with ErrNotFilter. Failing here, not
// at dispatch time, is the point: a non-filter value in a chain is a
// programming error caught during setup.
type FilterObject struct {
	filter Filter
	name   string
}

// NewFilterObject normalizes v into a FilterObject.
func NewFilterObject(v any) (FilterObject, error) {
	switch f := v.(type) {
	case nil:
		return FilterObject{}, fmt.Errorf("%w: nil", ErrNotFilter)
	case FilterObject:
		if f.filter == nil {
			return FilterObject{}, fmt.Errorf("%w: empty FilterObject", ErrNotFilter)
		}
		return f, nil
	case Filter:
		return FilterObject{filter: f, name: filterName(f)}, nil
	case func(ctx context.Context, event any, data Data) (Result, error):
		return FilterObject{filter: FilterFunc(f), name: funcName(f)}, nil
	case func(ctx context.Context, event any) (bool, error):
		adapted := FilterFunc(func(ctx context.Context, event any, _ Data) (Result, error) {
			ok, err := f(ctx, event)
			if err != nil {
				return Result{}, err
			}
			if !ok {
				return Reject(), nil
			}
			return Accept(), nil
		})
		return FilterObject{filter: adapted, name: funcName(f)}, nil
	case func(event any) bool:
		adapted := FilterFunc(func(_ context.Context, event any, _ Data) (Result, error) {
			if !f(event) {
				return Reject(), nil
			}
			return Accept(), nil
		})
		return FilterObject{filter: adapted, name: funcName(f)}, nil
	default:
		return FilterObject{}, fmt.Errorf("%w: %T", ErrNotFilter, v)
	}
}

// call checks the wrapped filter against the event.
func (o FilterObject) call(ctx context.Context, event any, data Data) (Result, error) {
	return o.filter.Check(ctx, event, data)
}

// String identifies the wrapped filter for diagnostics. It plays no part in
// matching.
func (o FilterObject) String() string {
	if o.name == "" {
		return "<empty filter>"
	}
	return o.name
}

func filterName(f Filter) string {
	if s, ok := f.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", f)
}

func funcName(f any) string {
	pc := reflect.ValueOf(f).Pointer()
	if fn := runtime.FuncForPC(pc); fn != nil {
		return fn.Name()
	}
	return fmt.Sprintf("%T", f)
}

// Typed wraps a filter function declared against a concrete event type.
// Events of any other dynamic type are rejected without calling fn, so a
// typed filter doubles as a type gate for the rest of its chain.
func Typed[E any](fn func(ctx context.Context, event E, data Data) (Result, error)) Filter {
	return FilterFunc(func(ctx context.Context, event any, data Data) (Result, error) {
		e, ok := event.(E)
		if !ok {
			return Reject(), nil
		}
		return fn(ctx, e, data)
	})
}

// TypedHandler wraps a handler declared against a concrete event type.
// Reaching a typed handler with an event of the wrong dynamic type means the
// chain was registered without a matching type gate; that is reported as a
// handler error rather than silently skipped.
func TypedHandler[E any](fn func(ctx context.Context, event E, data Data) (any, error)) Handler {
	return func(ctx context.Context, event any, data Data) (any, error) {
		e, ok := event.(E)
		if !ok {
			return nil, fmt.Errorf("dispatch: handler expects %T, got %T", *new(E), event)
		}
		return fn(ctx, e, data)
	}
}
