package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gittogether/api/internal/models"
)

type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// GetOrCreateDirect returns the chat for the unordered pair (a, b), creating
// it with id when none exists. Concurrent callers converge on one row.
func (r *ChatRepository) GetOrCreateDirect(ctx context.Context, id, a, b string) (models.Chat, error) {
	const query = `
		INSERT INTO chats (id, pair_low, pair_high, participants, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (pair_low, pair_high) DO UPDATE SET pair_low = EXCLUDED.pair_low
		RETURNING id, participants, created_at
	`
	low, high := models.OrderedPair(a, b)

	var chat models.Chat
	err := r.pool.QueryRow(ctx, query, id, low, high, []string{low, high}).
		Scan(&chat.ID, &chat.Participants, &chat.CreatedAt)
	if err != nil {
		return models.Chat{}, fmt.Errorf("upsert chat: %w", err)
	}
	return chat, nil
}

// FindForParticipant returns the chat only when userID is one of its participants.
func (r *ChatRepository) FindForParticipant(ctx context.Context, chatID, userID string) (models.Chat, error) {
	const query = `
		SELECT id, participants, created_at
		FROM chats
		WHERE id = $1 AND $2 = ANY(participants)
	`
	var chat models.Chat
	err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(&chat.ID, &chat.Participants, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Chat{}, ErrChatNotFound
		}
		return models.Chat{}, fmt.Errorf("find chat: %w", err)
	}
	return chat, nil
}

// AppendMessage stores msg in a single statement that also checks the sender
// still belongs to the chat, so the check and the write cannot be split.
func (r *ChatRepository) AppendMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	const query = `
		INSERT INTO chat_messages (id, chat_id, sender_id, text, created_at)
		SELECT $1, c.id, $3, $4, NOW()
		FROM chats c
		WHERE c.id = $2 AND $3 = ANY(c.participants)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query, msg.ID, msg.ChatID, msg.SenderID, msg.Text).Scan(&msg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Message{}, ErrNotParticipant
		}
		return models.Message{}, fmt.Errorf("insert chat message: %w", err)
	}
	return msg, nil
}

// ListMessages returns the latest limit messages of the chat, oldest first.
func (r *ChatRepository) ListMessages(ctx context.Context, chatID string, limit int) ([]models.MessageView, error) {
	const query = `
		SELECT m.id, m.chat_id, m.sender_id, m.text, m.created_at, u.first_name, u.last_name
		FROM (
			SELECT id, chat_id, sender_id, text, created_at, seq
			FROM chat_messages
			WHERE chat_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) m
		JOIN users u ON u.id = m.sender_id
		ORDER BY m.seq ASC
	`
	rows, err := r.pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []models.MessageView
	for rows.Next() {
		var m models.MessageView
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Text, &m.CreatedAt, &m.SenderFirstName, &m.SenderLastName); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
