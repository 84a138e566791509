package service

import (
	"context"
	"time"

	"gittogether/api/internal/models"
)

// UserStore is satisfied by repository.UserRepository and memory.Users.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	ListExcluding(ctx context.Context, exclude []string, limit, offset int) ([]models.User, error)
}

// RequestStore is satisfied by repository.RequestRepository and memory.Requests.
type RequestStore interface {
	Create(ctx context.Context, req models.ConnectionRequest) (models.ConnectionRequest, error)
	FindBetween(ctx context.Context, a, b string) (models.ConnectionRequest, error)
	Review(ctx context.Context, requestID, reviewerID string, status models.RequestStatus) (models.ConnectionRequest, error)
	AreConnected(ctx context.Context, a, b string) (bool, error)
	ListConnections(ctx context.Context, userID string) ([]models.User, error)
	ListPendingReceived(ctx context.Context, userID string) ([]models.PendingRequest, error)
	CounterpartIDs(ctx context.Context, userID string) ([]string, error)
	ListPendingRecipients(ctx context.Context, from, to time.Time) ([]models.Recipient, error)
}

// ChatStore is satisfied by repository.ChatRepository and memory.Chats.
type ChatStore interface {
	GetOrCreateDirect(ctx context.Context, id, a, b string) (models.Chat, error)
	FindForParticipant(ctx context.Context, chatID, userID string) (models.Chat, error)
	AppendMessage(ctx context.Context, msg models.Message) (models.Message, error)
	ListMessages(ctx context.Context, chatID string, limit int) ([]models.MessageView, error)
}

// ImageChecker inspects an uploaded profile image in object storage. exists
// is false for a missing key; mime is empty for an unsupported format.
type ImageChecker interface {
	ImageContentType(ctx context.Context, key string) (mime string, exists bool, err error)
}
