package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFilterObject(t *testing.T) {
	ctx := context.Background()

	t.Run("wraps a Filter", func(t *testing.T) {
		f, err := NewExceptionMessageFilter("x")
		require.NoError(t, err)

		fo, err := NewFilterObject(f)
		require.NoError(t, err)

		res, err := fo.call(ctx, &ErrorEvent{Err: errors.New("x marks the spot")}, nil)
		require.NoError(t, err)
		assert.True(t, res.Passed())
	})

	t.Run("wraps a full filter func", func(t *testing.T) {
		fo, err := NewFilterObject(func(_ context.Context, event any, _ Data) (Result, error) {
			return AcceptWith(Data{"event": event}), nil
		})
		require.NoError(t, err)

		res, err := fo.call(ctx, "hello", nil)
		require.NoError(t, err)
		assert.True(t, res.Passed())
		assert.Equal(t, "hello", res.Data()["event"])
	})

	t.Run("wraps a contextual bool func", func(t *testing.T) {
		fo, err := NewFilterObject(func(_ context.Context, event any) (bool, error) {
			return event == "yes", nil
		})
		require.NoError(t, err)

		res, err := fo.call(ctx, "yes", nil)
		require.NoError(t, err)
		assert.True(t, res.Passed())

		res, err = fo.call(ctx, "no", nil)
		require.NoError(t, err)
		assert.False(t, res.Passed())
	})

	t.Run("wraps a plain predicate", func(t *testing.T) {
		fo, err := NewFilterObject(func(event any) bool {
			return event != nil
		})
		require.NoError(t, err)

		res, err := fo.call(ctx, "something", nil)
		require.NoError(t, err)
		assert.True(t, res.Passed())
	})

	t.Run("is idempotent over FilterObject", func(t *testing.T) {
		fo, err := NewFilterObject(fixed(true))
		require.NoError(t, err)

		again, err := NewFilterObject(fo)
		require.NoError(t, err)
		assert.Equal(t, fo.String(), again.String())

		res, err := again.call(ctx, "event", nil)
		require.NoError(t, err)
		assert.True(t, res.Passed())
	})

	t.Run("rejects an empty FilterObject at construction", func(t *testing.T) {
		_, err := NewFilterObject(FilterObject{})
		assert.ErrorIs(t, err, ErrNotFilter)

		r := NewRouter()
		called := false
		err = r.Register(record(&called, nil), FilterObject{})
		assert.ErrorIs(t, err, ErrNotFilter)
	})

	t.Run("rejects non-filter values at construction", func(t *testing.T) {
		for _, v := range []any{nil, 42, "filter", struct{}{}, []string{"a"}} {
			_, err := NewFilterObject(v)
			assert.ErrorIs(t, err, ErrNotFilter, "value %#v", v)
		}
	})

	t.Run("rejects bool funcs with the wrong shape", func(t *testing.T) {
		_, err := NewFilterObject(func(a, b any) bool { return true })
		assert.ErrorIs(t, err, ErrNotFilter)
	})
}

func TestFilterObjectString(t *testing.T) {
	t.Run("uses the filter's Stringer", func(t *testing.T) {
		f, err := NewExceptionMessageFilter("KABOOM")
		require.NoError(t, err)

		fo, err := NewFilterObject(f)
		require.NoError(t, err)
		assert.Equal(t, `ExceptionMessageFilter(pattern="KABOOM")`, fo.String())
	})

	t.Run("names plain functions", func(t *testing.T) {
		fo, err := NewFilterObject(namedPredicate)
		require.NoError(t, err)
		assert.True(t, strings.Contains(fo.String(), "namedPredicate"), "got %q", fo.String())
	})

	t.Run("inverted filters are marked", func(t *testing.T) {
		f, err := NewExceptionMessageFilter("KABOOM")
		require.NoError(t, err)

		inv, err := Invert(f)
		require.NoError(t, err)

		fo, err := NewFilterObject(inv)
		require.NoError(t, err)
		assert.Equal(t, `~ExceptionMessageFilter(pattern="KABOOM")`, fo.String())
	})
}

func namedPredicate(event any) bool { return true }

func TestTyped(t *testing.T) {
	ctx := context.Background()

	f := Typed(func(_ context.Context, event *Update, _ Data) (Result, error) {
		return AcceptWith(Data{"kind": event.Kind}), nil
	})

	t.Run("passes matching events through", func(t *testing.T) {
		res, err := f.Check(ctx, &Update{Kind: KindMessage}, nil)
		require.NoError(t, err)
		assert.True(t, res.Passed())
		assert.Equal(t, KindMessage, res.Data()["kind"])
	})

	t.Run("rejects other event types without calling fn", func(t *testing.T) {
		res, err := f.Check(ctx, "not an update", nil)
		require.NoError(t, err)
		assert.False(t, res.Passed())
	})
}

func TestTypedHandler(t *testing.T) {
	ctx := context.Background()

	h := TypedHandler(func(_ context.Context, event *Update, _ Data) (any, error) {
		return event.Kind, nil
	})

	t.Run("invokes with the concrete type", func(t *testing.T) {
		res, err := h(ctx, &Update{Kind: KindPoll}, nil)
		require.NoError(t, err)
		assert.Equal(t, KindPoll, res)
	})

	t.Run("errors on a type mismatch", func(t *testing.T) {
		_, err := h(ctx, 123, nil)
		assert.Error(t, err)
	})
}
