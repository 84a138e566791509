package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"gittogether/api/internal/apperr"
	"gittogether/api/internal/metrics"
	"gittogether/api/internal/models"
	"gittogether/api/internal/validation"
)

const (
	CodeUnknownEvent = "UNKNOWN_EVENT"

	defaultOpTimeout = 5 * time.Second
)

var (
	errUnknownEvent   = apperr.New(apperr.KindValidation, CodeUnknownEvent, "Unknown event")
	errMalformedFrame = apperr.Validation(apperr.CodeValidation, "Validation Error",
		apperr.FieldError{Field: "frame", Message: "must be a JSON object with event and data"})
)

// ChatAuthority decides room membership and stores messages.
type ChatAuthority interface {
	Join(ctx context.Context, chatID, userID string) (models.Chat, error)
	AppendMessage(ctx context.Context, chatID string, sender models.Identity, text string) (models.MessageView, error)
}

// Gateway dispatches inbound frames for authenticated sessions. It holds no
// per-connection state besides hub membership.
type Gateway struct {
	chats     ChatAuthority
	hub       *Hub
	chatLocks *keyedMutex
	opTimeout time.Duration
	log       zerolog.Logger
}

func NewGateway(chats ChatAuthority, hub *Hub, log zerolog.Logger) *Gateway {
	return &Gateway{
		chats:     chats,
		hub:       hub,
		chatLocks: newKeyedMutex(),
		opTimeout: defaultOpTimeout,
		log:       log,
	}
}

func (g *Gateway) Hub() *Hub { return g.hub }

// Dispatch handles one raw inbound frame. Failures are reported to the
// session as app_error frames and never end the connection.
func (g *Gateway) Dispatch(ctx context.Context, s Session, raw []byte) {
	var in inboundFrame
	if err := json.Unmarshal(raw, &in); err != nil || in.Event == "" {
		g.emitError(s, "", errMalformedFrame)
		return
	}

	var err error
	switch in.Event {
	case EventJoinChat:
		err = g.handleJoin(ctx, s, in.Data)
	case EventSendMessage:
		err = g.handleSend(ctx, s, in.Data)
	default:
		g.emitError(s, in.Event, errUnknownEvent)
		return
	}

	if err != nil {
		g.emitError(s, in.Event, err)
		return
	}
	metrics.RealtimeEvents.WithLabelValues(in.Event, metrics.ResultOK).Inc()
}

// RejectRateLimited reports a frame dropped by the connection's limiter.
func (g *Gateway) RejectRateLimited(s Session) {
	g.emitError(s, "", apperr.ErrRateLimited)
}

func (g *Gateway) handleJoin(ctx context.Context, s Session, data json.RawMessage) error {
	var p JoinChatPayload
	if err := decodePayload(data, &p); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, g.opTimeout)
	defer cancel()

	if _, err := g.chats.Join(ctx, p.ChatID, s.Identity().ID); err != nil {
		return err
	}
	g.hub.Join(p.ChatID, s)
	g.log.Debug().
		Str("conn_id", s.ID()).
		Str("user_id", s.Identity().ID).
		Str("chat_id", p.ChatID).
		Msg("joined chat")
	return nil
}

// handleSend re-checks authorization on every message through the store's
// conditional append. The append and the broadcast run under the chat's lock
// and are detached from ctx, so an accepted message still reaches the room
// after its sender disconnects.
func (g *Gateway) handleSend(ctx context.Context, s Session, data json.RawMessage) error {
	var p SendMessagePayload
	if err := decodePayload(data, &p); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.opTimeout)
	defer cancel()

	unlock := g.chatLocks.Lock(p.ChatID)
	defer unlock()

	msg, err := g.chats.AppendMessage(ctx, p.ChatID, s.Identity(), p.Text)
	if err != nil {
		return err
	}
	g.hub.Broadcast(p.ChatID, Frame{Event: EventMessageReceived, Data: newMessageReceived(msg)})
	return nil
}

func (g *Gateway) emitError(s Session, event string, err error) {
	ae := apperr.From(err)
	if ae.Kind == apperr.KindInternal {
		g.log.Error().
			Err(err).
			Str("conn_id", s.ID()).
			Str("user_id", s.Identity().ID).
			Str("event", event).
			Msg("realtime event failed")
	}

	label := event
	if label != EventJoinChat && label != EventSendMessage {
		// Bounded label cardinality.
		label = "invalid"
	}
	metrics.RealtimeEvents.WithLabelValues(label, ae.Code).Inc()

	payload := AppError{
		Code:      ae.Code,
		Message:   ae.Message,
		Context:   event,
		Retryable: apperr.Retryable(ae),
	}
	if len(ae.Fields) > 0 {
		payload.Data = map[string]any{"errors": ae.Fields}
	}
	s.Send(Frame{Event: EventAppError, Data: payload})
}

func decodePayload(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return errMalformedFrame
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errMalformedFrame
	}
	return validation.Struct(dst)
}
