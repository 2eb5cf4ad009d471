// ABOUTME: Matrix space backed by mautrix with markdown rendering through goldmark
// ABOUTME: Syncs inbound room events onto the ears queue and posts outbound payloads

package spaces

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/2389/shellbot/internal/botctx"
	"github.com/2389/shellbot/internal/events"
	"github.com/2389/shellbot/internal/queue"
)

// networkTimeout bounds Matrix API calls issued outside a caller context.
const networkTimeout = 10 * time.Second

// MatrixConfig holds the account used by the bot.
type MatrixConfig struct {
	Homeserver  string
	UserID      string
	AccessToken string
}

// Matrix is a space on a Matrix homeserver.
type Matrix struct {
	client   *mautrix.Client
	userID   id.UserID
	ears     *queue.Queue[any]
	botCtx   *botctx.Context
	markdown goldmark.Markdown
	logger   *slog.Logger

	mu        sync.RWMutex
	roomID    id.RoomID
	startedAt time.Time
}

// NewMatrix creates a Matrix space feeding ears.
func NewMatrix(cfg MatrixConfig, botCtx *botctx.Context, ears *queue.Queue[any], logger *slog.Logger) (*Matrix, error) {
	client, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	botCtx.Set(botctx.KeyBotID, cfg.UserID)

	return &Matrix{
		client:   client,
		userID:   id.UserID(cfg.UserID),
		ears:     ears,
		botCtx:   botCtx,
		markdown: goldmark.New(),
		logger:   logger.With("component", "matrix"),
	}, nil
}

// Run syncs until ctx is cancelled. Events older than the start of the
// sync are skipped so that history is not replayed as commands.
func (m *Matrix) Run(ctx context.Context) error {
	m.mu.Lock()
	m.startedAt = time.Now()
	m.mu.Unlock()

	syncer, ok := m.client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", m.client.Syncer)
	}
	syncer.OnEventType(event.EventMessage, m.handleEvent)
	syncer.OnEventType(event.StateMember, m.handleEvent)

	m.logger.Info("connecting to matrix homeserver", "user_id", m.userID)

	err := m.client.SyncWithContext(ctx)
	if ctx.Err() != nil {
		m.logger.Info("matrix sync stopped")
		return nil
	}
	if err != nil {
		return fmt.Errorf("matrix sync failed: %w", err)
	}
	return nil
}

func (m *Matrix) handleEvent(ctx context.Context, evt *event.Event) {
	m.mu.RLock()
	startedAt := m.startedAt
	m.mu.RUnlock()

	if time.UnixMilli(evt.Timestamp).Before(startedAt) {
		return
	}

	record, ok := recordFrom(evt)
	if !ok {
		return
	}
	if err := m.ears.Put(ctx, record); err != nil {
		m.logger.Warn("inbound event dropped", "event_id", evt.ID, "error", err)
	}
}

// recordFrom converts a Matrix event into an inbound wire record.
func recordFrom(evt *event.Event) (map[string]any, bool) {
	record := map[string]any{
		"id":       evt.ID.String(),
		"actor_id": evt.Sender.String(),
		"space_id": evt.RoomID.String(),
		"stamp":    time.UnixMilli(evt.Timestamp).UTC(),
	}

	switch evt.Type {
	case event.StateMember:
		member := evt.Content.AsMember()
		switch member.Membership {
		case event.MembershipJoin:
			record["type"] = string(events.KindJoin)
		case event.MembershipLeave, event.MembershipBan:
			record["type"] = string(events.KindLeave)
		default:
			return nil, false
		}
		if who := evt.GetStateKey(); who != "" {
			record["actor_id"] = who
		}
		record["actor_label"] = member.Displayname
		return record, true

	case event.EventMessage:
		content := evt.Content.AsMessage()
		switch content.MsgType {
		case event.MsgText, event.MsgNotice, event.MsgEmote:
			record["type"] = string(events.KindMessage)
			record["text"] = content.Body
		case event.MsgFile, event.MsgImage, event.MsgVideo, event.MsgAudio:
			record["type"] = string(events.KindAttachment)
			record["text"] = content.Body
			record["url"] = string(content.URL)
		default:
			return nil, false
		}
		if content.Mentions != nil && len(content.Mentions.UserIDs) > 0 {
			ids := make([]string, 0, len(content.Mentions.UserIDs))
			for _, uid := range content.Mentions.UserIDs {
				ids = append(ids, uid.String())
			}
			record["mentioned_ids"] = ids
		}
		return record, true
	}
	return nil, false
}

// Bind joins roomID and makes it the default target of posts.
func (m *Matrix) Bind(ctx context.Context, roomID string) error {
	if _, err := m.client.JoinRoomByID(ctx, id.RoomID(roomID)); err != nil {
		return fmt.Errorf("joining room %s: %w", roomID, err)
	}

	m.mu.Lock()
	m.roomID = id.RoomID(roomID)
	m.mu.Unlock()

	m.botCtx.Set(botctx.KeySpaceID, roomID)
	m.logger.Info("bound to room", "room", roomID)
	return nil
}

// Ready reports whether a room is bound.
func (m *Matrix) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roomID != ""
}

// Post sends payload to its target room, or the bound room.
func (m *Matrix) Post(ctx context.Context, payload events.Payload) error {
	m.mu.RLock()
	roomID := m.roomID
	m.mu.RUnlock()

	if payload.SpaceID != "" {
		roomID = id.RoomID(payload.SpaceID)
	}
	if roomID == "" {
		return ErrNotReady
	}

	content, err := m.render(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	if _, err := m.client.SendMessageEvent(ctx, roomID, event.EventMessage, content); err != nil {
		return fmt.Errorf("sending to %s: %w", roomID, err)
	}
	return nil
}

// Invite adds participants to the bound room.
func (m *Matrix) Invite(ctx context.Context, participants []string) error {
	m.mu.RLock()
	roomID := m.roomID
	m.mu.RUnlock()
	if roomID == "" {
		return ErrNotReady
	}

	for _, p := range participants {
		if _, err := m.client.InviteUser(ctx, roomID, &mautrix.ReqInviteUser{UserID: id.UserID(p)}); err != nil {
			return fmt.Errorf("inviting %s: %w", p, err)
		}
	}
	return nil
}

// render builds the message content, converting markdown to HTML.
func (m *Matrix) render(payload events.Payload) (*event.MessageEventContent, error) {
	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    payload.Text,
	}

	if payload.Content != "" {
		var buf bytes.Buffer
		if err := m.markdown.Convert([]byte(payload.Content), &buf); err != nil {
			return nil, fmt.Errorf("rendering markdown: %w", err)
		}
		if content.Body == "" {
			content.Body = payload.Content
		}
		content.Format = event.FormatHTML
		content.FormattedBody = buf.String()
	}

	if payload.File != "" {
		content.Body = joinLines(content.Body, payload.File)
		if content.Format == event.FormatHTML {
			link := html.EscapeString(payload.File)
			content.FormattedBody += fmt.Sprintf(`<p><a href="%s">%s</a></p>`, link, link)
		}
	}
	return content, nil
}

func joinLines(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n" + b
}
