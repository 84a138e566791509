// Package realtime is the chat session gateway: one authenticated websocket
// per client, rooms keyed by chat id, and JSON frames of the form
// {"event": name, "data": payload}.
package realtime

import (
	"encoding/json"
	"time"

	"gittogether/api/internal/models"
)

const (
	EventJoinChat        = "joinChat"
	EventSendMessage     = "sendMessage"
	EventMessageReceived = "messageReceived"
	EventAppError        = "app_error"
)

// Frame is an outbound message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinChatPayload struct {
	ChatID string `json:"chatId" binding:"required,ksuid"`
}

type SendMessagePayload struct {
	ChatID string `json:"chatId" binding:"required,ksuid"`
	Text   string `json:"text" binding:"required,notblank,max=2000"`
}

type MessageReceived struct {
	ChatID       string    `json:"chatId"`
	MessageID    string    `json:"messageId"`
	SenderUserID string    `json:"senderUserId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
}

func newMessageReceived(m models.MessageView) MessageReceived {
	return MessageReceived{
		ChatID:       m.ChatID,
		MessageID:    m.ID,
		SenderUserID: m.SenderID,
		FirstName:    m.SenderFirstName,
		LastName:     m.SenderLastName,
		Text:         m.Text,
		CreatedAt:    m.CreatedAt,
	}
}

// AppError reports a failed event. Context names the event that failed.
type AppError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Context   string `json:"context"`
	Data      any    `json:"data,omitempty"`
	Retryable bool   `json:"retryable"`
}
