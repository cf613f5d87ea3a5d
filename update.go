package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"
)

// Update kinds recognized by ParseUpdate, in resolution order.
const (
	KindMessage           = "message"
	KindEditedMessage     = "edited_message"
	KindChannelPost       = "channel_post"
	KindEditedChannelPost = "edited_channel_post"
	KindInlineQuery       = "inline_query"
	KindCallbackQuery     = "callback_query"
	KindPoll              = "poll"
	KindMyChatMember      = "my_chat_member"
	KindChatMember        = "chat_member"
)

// updateKinds maps envelope field presence to a kind. First present field
// wins, checked in this order.
var updateKinds = []struct {
	kind  string
	field string
}{
	{KindMessage, "message"},
	{KindEditedMessage, "edited_message"},
	{KindChannelPost, "channel_post"},
	{KindEditedChannelPost, "edited_channel_post"},
	{KindInlineQuery, "inline_query"},
	{KindCallbackQuery, "callback_query"},
	{KindPoll, "poll"},
	{KindMyChatMember, "my_chat_member"},
	{KindChatMember, "chat_member"},
}

// Update is the envelope fed to the dispatcher for raw protocol payloads.
// Payload holds the raw JSON of the kind-specific field, untouched, so
// handlers decide how much of it to deserialize.
type Update struct {
	// ID is the update_id field of the envelope, if present.
	ID int64

	// Kind identifies which event field the envelope carried.
	Kind string

	// Payload is the raw JSON value of the kind field.
	Payload json.RawMessage

	// Raw is the complete envelope.
	Raw json.RawMessage
}

// ParseUpdate classifies a raw JSON update envelope without deserializing
// it. Field presence decides the kind; the payload stays raw. Returns
// ErrInvalidJSON for malformed input and ErrUnknownKind when none of the
// recognized fields is present.
func ParseUpdate(raw []byte) (*Update, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}

	u := &Update{Raw: append(json.RawMessage(nil), raw...)}
	if id := gjson.GetBytes(raw, "update_id"); id.Exists() {
		u.ID = id.Int()
	}

	for _, k := range updateKinds {
		if r := gjson.GetBytes(raw, k.field); r.Exists() {
			u.Kind = k.kind
			u.Payload = json.RawMessage(r.Raw)
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: update %d", ErrUnknownKind, u.ID)
}

// KindOf returns a filter that passes *Update events whose Kind is one of
// the given kinds. Non-Update events are rejected.
func KindOf(kinds ...string) Filter {
	ks := slices.Clone(kinds)
	return FilterFunc(func(_ context.Context, event any, _ Data) (Result, error) {
		u, ok := event.(*Update)
		if !ok {
			return Reject(), nil
		}
		if slices.Contains(ks, u.Kind) {
			return Accept(), nil
		}
		return Reject(), nil
	})
}
