package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"gittogether/api/internal/apperr"
	"gittogether/api/internal/ids"
	"gittogether/api/internal/models"
	"gittogether/api/internal/repository"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type ChatService struct {
	requests RequestStore
	chats    ChatStore
	log      zerolog.Logger
}

func NewChatService(requests RequestStore, chats ChatStore, log zerolog.Logger) *ChatService {
	return &ChatService{requests: requests, chats: chats, log: log}
}

type ChatHistory struct {
	Chat     models.Chat
	Messages []models.MessageView
}

// OpenDirectChat returns the chat between userID and targetUserID with its
// latest messages, creating the chat on first use. The two users must be
// connected.
func (s *ChatService) OpenDirectChat(ctx context.Context, userID, targetUserID string, limit int) (ChatHistory, error) {
	if !ids.Valid(targetUserID) {
		return ChatHistory{}, apperr.Validation(apperr.CodeValidation, "Validation Error",
			apperr.FieldError{Field: "targetUserId", Message: "must be a valid id"})
	}
	if targetUserID == userID {
		return ChatHistory{}, ErrNotConnected
	}

	connected, err := s.requests.AreConnected(ctx, userID, targetUserID)
	if err != nil {
		return ChatHistory{}, apperr.Internal(err)
	}
	if !connected {
		return ChatHistory{}, ErrNotConnected
	}

	chat, err := s.chats.GetOrCreateDirect(ctx, ids.New(), userID, targetUserID)
	if err != nil {
		return ChatHistory{}, apperr.Internal(err)
	}

	messages, err := s.chats.ListMessages(ctx, chat.ID, normalizeHistoryLimit(limit))
	if err != nil {
		return ChatHistory{}, apperr.Internal(err)
	}
	return ChatHistory{Chat: chat, Messages: messages}, nil
}

// Join checks existence and membership in one lookup.
func (s *ChatService) Join(ctx context.Context, chatID, userID string) (models.Chat, error) {
	chat, err := s.chats.FindForParticipant(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return models.Chat{}, ErrInvalidChat
		}
		return models.Chat{}, apperr.Internal(err)
	}
	return chat, nil
}

// AppendMessage stores text in the chat if sender is a participant. The
// participant check and the write are one store operation.
func (s *ChatService) AppendMessage(ctx context.Context, chatID string, sender models.Identity, text string) (models.MessageView, error) {
	if strings.TrimSpace(text) == "" || utf8.RuneCountInString(text) > models.MaxMessageLength {
		return models.MessageView{}, ErrInvalidMessage.WithFields(apperr.FieldError{Field: "text", Message: ErrInvalidMessage.Message})
	}

	msg, err := s.chats.AppendMessage(ctx, models.Message{
		ID:       ids.New(),
		ChatID:   chatID,
		SenderID: sender.ID,
		Text:     text,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotParticipant) {
			return models.MessageView{}, ErrChatWriteForbidden
		}
		return models.MessageView{}, apperr.Internal(err)
	}
	return models.MessageView{Message: msg, SenderFirstName: sender.FirstName, SenderLastName: sender.LastName}, nil
}

func normalizeHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
