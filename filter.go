package dispatch

import "context"

// Data is the context mapping accumulated while a filter chain is evaluated.
// Filters that accept an event may contribute entries; the merged mapping is
// handed to the matched handler alongside the event itself.
type Data map[string]any

// merge copies entries from other into d. Keys from other win on collision:
// later filters in a chain are typically more specific than earlier ones.
func (d Data) merge(other Data) {
	for k, v := range other {
		d[k] = v
	}
}

// clone returns a shallow copy of d. A nil receiver yields an empty Data.
func (d Data) clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Result is the outcome of a single filter check: the entry is rejected,
// accepted as-is, or accepted with extra context to merge into the chain's
// accumulated Data.
type Result struct {
	pass bool
	data Data
}

// Reject returns a Result that fails the chain.
func Reject() Result { return Result{} }

// Accept returns a Result that passes the chain without contributing context.
func Accept() Result { return Result{pass: true} }

// AcceptWith returns a Result that passes the chain and contributes the given
// context entries. An empty or nil mapping is equivalent to Reject: a filter
// that produced nothing has nothing to say for the event.
func AcceptWith(data Data) Result {
	if len(data) == 0 {
		return Result{}
	}
	return Result{pass: true, data: data}
}

// Passed reports whether the filter accepted the event.
func (r Result) Passed() bool { return r.pass }

// Data returns the context contributed by the filter, if any.
func (r Result) Data() Data { return r.data }

// Filter decides whether an event matches a handler entry, optionally
// contributing extra context for the handler. Implementations must not
// mutate shared state: a filter is constructed once at registration time
// and re-checked for every event for the life of the process, possibly
// from concurrent dispatch attempts.
//
// data is the context accumulated by earlier filters in the same chain and
// must be treated as read-only; contributions go through the Result.
//
// A non-nil error aborts the whole dispatch attempt. The router does not
// recover filter errors; only handler callbacks get error routing.
type Filter interface {
	Check(ctx context.Context, event any, data Data) (Result, error)
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(ctx context.Context, event any, data Data) (Result, error)

// Check implements Filter.
func (f FilterFunc) Check(ctx context.Context, event any, data Data) (Result, error) {
	return f(ctx, event, data)
}

// Invert returns a filter whose outcome is the boolean negation of the
// target's. The target may be anything NewFilterObject accepts. The negation
// is evaluated on every check, never simplified away: Invert(Invert(f)) runs
// f and negates twice. An inverted filter never contributes context; only
// the target's truthiness survives the negation.
func Invert(v any) (Filter, error) {
	fo, err := NewFilterObject(v)
	if err != nil {
		return nil, err
	}
	return invertFilter{target: fo}, nil
}

type invertFilter struct {
	target FilterObject
}

func (f invertFilter) Check(ctx context.Context, event any, data Data) (Result, error) {
	res, err := f.target.call(ctx, event, data)
	if err != nil {
		return Result{}, err
	}
	if res.Passed() {
		return Reject(), nil
	}
	return Accept(), nil
}

func (f invertFilter) String() string {
	return "~" + f.target.String()
}

// And returns a filter that passes when every target passes, evaluated in
// order with short-circuit on the first rejection. Context contributed by
// earlier targets is visible to later ones, and the merged contributions
// (later keys win) form the combined result.
func And(vs ...any) (Filter, error) {
	targets, err := newChain(vs)
	if err != nil {
		return nil, err
	}
	return andFilter{targets: targets}, nil
}

type andFilter struct {
	targets []FilterObject
}

func (f andFilter) Check(ctx context.Context, event any, data Data) (Result, error) {
	acc := Data{}
	for _, t := range f.targets {
		view := data.clone()
		view.merge(acc)
		res, err := t.call(ctx, event, view)
		if err != nil {
			return Result{}, err
		}
		if !res.Passed() {
			return Reject(), nil
		}
		acc.merge(res.Data())
	}
	if len(acc) == 0 {
		return Accept(), nil
	}
	return AcceptWith(acc), nil
}

// Or returns a filter that passes when any target passes, evaluated in order
// with short-circuit on the first acceptance. The first passing target's
// result is used verbatim, context contribution included.
func Or(vs ...any) (Filter, error) {
	targets, err := newChain(vs)
	if err != nil {
		return nil, err
	}
	return orFilter{targets: targets}, nil
}

type orFilter struct {
	targets []FilterObject
}

func (f orFilter) Check(ctx context.Context, event any, data Data) (Result, error) {
	for _, t := range f.targets {
		res, err := t.call(ctx, event, data)
		if err != nil {
			return Result{}, err
		}
		if res.Passed() {
			return res, nil
		}
	}
	return Reject(), nil
}

// newChain normalizes a slice of filter values into FilterObjects.
func newChain(vs []any) ([]FilterObject, error) {
	chain := make([]FilterObject, 0, len(vs))
	for _, v := range vs {
		fo, err := NewFilterObject(v)
		if err != nil {
			return nil, err
		}
		chain = append(chain, fo)
	}
	return chain, nil
}
