// ABOUTME: Tests for the local space and the Matrix conversion helpers
// ABOUTME: Matrix network calls are not exercised; records and rendering are

package spaces

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/2389/shellbot/internal/events"
)

func TestLocal_NotReadyUntilBound(t *testing.T) {
	var out bytes.Buffer
	l := NewLocal(&out)
	ctx := context.Background()

	assert.ErrorIs(t, l.Post(ctx, events.NewPayload("hi")), ErrNotReady)
	assert.False(t, l.Ready())

	l.Bind("console")
	require.NoError(t, l.Post(ctx, events.NewPayload("hi", events.WithContent("**bold**"), events.WithFile("report.pdf"))))

	assert.True(t, l.Ready())
	assert.Len(t, l.Posts(), 1)
	assert.Equal(t, "hi\n**bold**\n[file] report.pdf\n", out.String())
}

func messageEvent(content *event.MessageEventContent) *event.Event {
	return &event.Event{
		ID:        id.EventID("$evt"),
		Sender:    id.UserID("@alice:example.org"),
		RoomID:    id.RoomID("!room:example.org"),
		Type:      event.EventMessage,
		Timestamp: 1700000000000,
		Content:   event.Content{Parsed: content},
	}
}

func TestRecordFrom_TextMessage(t *testing.T) {
	evt := messageEvent(&event.MessageEventContent{
		MsgType:  event.MsgText,
		Body:     "shelly help",
		Mentions: &event.Mentions{UserIDs: []id.UserID{"@shelly:example.org"}},
	})

	record, ok := recordFrom(evt)
	require.True(t, ok)

	parsed, err := events.Parse(record)
	require.NoError(t, err)
	assert.Equal(t, events.KindMessage, parsed.Kind)
	assert.Equal(t, "$evt", parsed.ID)
	assert.Equal(t, "@alice:example.org", parsed.ActorID)
	assert.Equal(t, "!room:example.org", parsed.SpaceID)
	assert.Equal(t, "shelly help", parsed.Text)
	assert.Equal(t, []string{"@shelly:example.org"}, parsed.MentionedIDs)
}

func TestRecordFrom_Attachment(t *testing.T) {
	evt := messageEvent(&event.MessageEventContent{
		MsgType: event.MsgFile,
		Body:    "report.pdf",
		URL:     id.ContentURIString("mxc://example.org/abc"),
	})

	record, ok := recordFrom(evt)
	require.True(t, ok)
	assert.Equal(t, "attachment", record["type"])
	assert.Equal(t, "mxc://example.org/abc", record["url"])
}

func TestRecordFrom_Membership(t *testing.T) {
	who := "@bob:example.org"
	evt := &event.Event{
		ID:       id.EventID("$m"),
		Sender:   id.UserID("@admin:example.org"),
		RoomID:   id.RoomID("!room:example.org"),
		Type:     event.StateMember,
		StateKey: &who,
		Content:  event.Content{Parsed: &event.MemberEventContent{Membership: event.MembershipJoin, Displayname: "Bob"}},
	}

	record, ok := recordFrom(evt)
	require.True(t, ok)
	assert.Equal(t, "join", record["type"])
	assert.Equal(t, who, record["actor_id"])
	assert.Equal(t, "Bob", record["actor_label"])

	evt.Content = event.Content{Parsed: &event.MemberEventContent{Membership: event.MembershipInvite}}
	_, ok = recordFrom(evt)
	assert.False(t, ok)
}

func TestMatrixRender(t *testing.T) {
	m := &Matrix{markdown: goldmark.New()}

	plain, err := m.render(events.NewPayload("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", plain.Body)
	assert.Empty(t, plain.FormattedBody)

	rich, err := m.render(events.NewPayload("", events.WithContent("**done**"), events.WithFile("https://x/y.pdf")))
	require.NoError(t, err)
	assert.Equal(t, event.FormatHTML, rich.Format)
	assert.Equal(t, "**done**\nhttps://x/y.pdf", rich.Body)
	assert.Contains(t, rich.FormattedBody, "<strong>done</strong>")
	assert.Contains(t, rich.FormattedBody, `<a href="https://x/y.pdf">`)
}

func TestMatrixPost_NotReadyWithoutRoom(t *testing.T) {
	m := &Matrix{markdown: goldmark.New()}
	assert.ErrorIs(t, m.Post(context.Background(), events.NewPayload("hi")), ErrNotReady)
	assert.False(t, m.Ready())
}
