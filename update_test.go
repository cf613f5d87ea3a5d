package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUpdate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind string
		wantID   int64
	}{
		{"message", `{"update_id": 10, "message": {"text": "hi"}}`, KindMessage, 10},
		{"edited message", `{"update_id": 11, "edited_message": {"text": "hi!"}}`, KindEditedMessage, 11},
		{"channel post", `{"update_id": 12, "channel_post": {"text": "news"}}`, KindChannelPost, 12},
		{"edited channel post", `{"update_id": 13, "edited_channel_post": {}}`, KindEditedChannelPost, 13},
		{"inline query", `{"update_id": 14, "inline_query": {"query": "q"}}`, KindInlineQuery, 14},
		{"callback query", `{"update_id": 15, "callback_query": {"data": "d"}}`, KindCallbackQuery, 15},
		{"poll", `{"update_id": 16, "poll": {"id": "p"}}`, KindPoll, 16},
		{"my chat member", `{"update_id": 17, "my_chat_member": {}}`, KindMyChatMember, 17},
		{"chat member", `{"update_id": 18, "chat_member": {}}`, KindChatMember, 18},
		{"missing update_id", `{"message": {"text": "hi"}}`, KindMessage, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseUpdate([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, u.Kind)
			assert.Equal(t, tt.wantID, u.ID)
			assert.NotEmpty(t, u.Payload)
			assert.JSONEq(t, tt.raw, string(u.Raw))
		})
	}

	t.Run("message takes priority over later fields", func(t *testing.T) {
		u, err := ParseUpdate([]byte(`{"update_id": 1, "poll": {}, "message": {"text": "hi"}}`))
		require.NoError(t, err)
		assert.Equal(t, KindMessage, u.Kind)
	})

	t.Run("inline_query resolves before callback_query", func(t *testing.T) {
		u, err := ParseUpdate([]byte(`{"update_id": 1, "callback_query": {}, "inline_query": {}}`))
		require.NoError(t, err)
		assert.Equal(t, KindInlineQuery, u.Kind)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseUpdate([]byte(`{"update_id":`))
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := ParseUpdate([]byte(`{"update_id": 99, "shipping_query": {}}`))
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("payload is the raw kind field", func(t *testing.T) {
		u, err := ParseUpdate([]byte(`{"update_id": 2, "message": {"text": "hello", "chat": {"id": 5}}}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"text": "hello", "chat": {"id": 5}}`, string(u.Payload))
	})
}

func TestKindOf(t *testing.T) {
	ctx := context.Background()
	f := KindOf(KindMessage, KindEditedMessage)

	t.Run("passes listed kinds", func(t *testing.T) {
		for _, kind := range []string{KindMessage, KindEditedMessage} {
			res, err := f.Check(ctx, &Update{Kind: kind}, nil)
			require.NoError(t, err)
			assert.True(t, res.Passed(), "kind %s", kind)
		}
	})

	t.Run("rejects other kinds", func(t *testing.T) {
		res, err := f.Check(ctx, &Update{Kind: KindPoll}, nil)
		require.NoError(t, err)
		assert.False(t, res.Passed())
	})

	t.Run("rejects non-update events", func(t *testing.T) {
		res, err := f.Check(ctx, "plain string", nil)
		require.NoError(t, err)
		assert.False(t, res.Passed())
	})
}

func TestFeedRaw(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies and dispatches", func(t *testing.T) {
		d := New()
		require.NoError(t, d.OnUpdate(func(_ context.Context, event any, _ Data) (any, error) {
			return event.(*Update).Kind, nil
		}, KindOf(KindCallbackQuery)))

		res, err := d.FeedRaw(ctx, []byte(`{"update_id": 3, "callback_query": {"data": "x"}}`))
		require.NoError(t, err)
		assert.Equal(t, KindCallbackQuery, res)
	})

	t.Run("surfaces parse errors before routing", func(t *testing.T) {
		called := false
		d := New()
		require.NoError(t, d.OnUpdate(record(&called, nil)))

		_, err := d.FeedRaw(ctx, []byte(`not json`))
		assert.ErrorIs(t, err, ErrInvalidJSON)
		assert.False(t, called)
	})
}
