package service

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog"

	"gittogether/api/internal/apperr"
	"gittogether/api/internal/ids"
	"gittogether/api/internal/metrics"
	"gittogether/api/internal/models"
	"gittogether/api/internal/repository"
)

const (
	DefaultFeedLimit = 10
	MaxFeedLimit     = 50
)

// RequestService owns the connection-request lifecycle. Every mutation is a
// single conditional write in the store; nothing here reads, decides, then
// writes without the store re-checking.
type RequestService struct {
	users    UserStore
	requests RequestStore
	log      zerolog.Logger
}

func NewRequestService(users UserStore, requests RequestStore, log zerolog.Logger) *RequestService {
	return &RequestService{users: users, requests: requests, log: log}
}

// Send creates an edge from the caller to toUserID with status interested or
// ignored.
func (s *RequestService) Send(ctx context.Context, from models.User, toUserID string, status models.RequestStatus) (models.ConnectionRequest, error) {
	req, err := s.send(ctx, from, toUserID, status)
	observe("send", err)
	return req, err
}

func (s *RequestService) send(ctx context.Context, from models.User, toUserID string, status models.RequestStatus) (models.ConnectionRequest, error) {
	if !status.Sendable() {
		return models.ConnectionRequest{}, ErrInvalidStatus.WithMessage("Invalid status type: " + string(status))
	}
	if from.ID == toUserID {
		return models.ConnectionRequest{}, ErrSelfRequest
	}

	if _, err := s.users.GetByID(ctx, toUserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.ConnectionRequest{}, ErrUserNotFound
		}
		return models.ConnectionRequest{}, apperr.Internal(err)
	}

	if missing := from.MissingProfileFields(); len(missing) > 0 {
		fields := make([]apperr.FieldError, 0, len(missing))
		for _, f := range missing {
			fields = append(fields, apperr.FieldError{Field: f, Message: "is required to send connection requests"})
		}
		return models.ConnectionRequest{}, ErrProfileIncomplete.WithFields(fields...)
	}

	existing, err := s.requests.FindBetween(ctx, from.ID, toUserID)
	switch {
	case err == nil:
		return models.ConnectionRequest{}, classifyExisting(existing, from.ID, status)
	case !errors.Is(err, repository.ErrRequestNotFound):
		return models.ConnectionRequest{}, apperr.Internal(err)
	}

	created, err := s.requests.Create(ctx, models.ConnectionRequest{
		ID:         ids.New(),
		FromUserID: from.ID,
		ToUserID:   toUserID,
		Status:     status,
	})
	if err == nil {
		s.log.Debug().Str("request_id", created.ID).Str("from", from.ID).Str("to", toUserID).Str("status", string(status)).Msg("connection request created")
		return created, nil
	}
	if !errors.Is(err, repository.ErrDuplicatePair) {
		return models.ConnectionRequest{}, apperr.Internal(err)
	}

	// Lost a race against a concurrent insert for the same pair.
	winner, err := s.requests.FindBetween(ctx, from.ID, toUserID)
	if err != nil {
		return models.ConnectionRequest{}, apperr.Internal(err)
	}
	return models.ConnectionRequest{}, classifyExisting(winner, from.ID, status)
}

func classifyExisting(existing models.ConnectionRequest, fromID string, status models.RequestStatus) error {
	switch {
	case existing.Status == status && existing.FromUserID == fromID:
		return ErrDuplicateRequest
	case existing.Status == status:
		return ErrDuplicateRequest.WithMessage(msgDuplicateReceived)
	case existing.Status == models.RequestStatusAccepted:
		return ErrAlreadyConnected
	default:
		return ErrRequestRejected
	}
}

// Review lets the recipient of a pending interested edge accept or reject it.
// A replayed review finds no pending row and returns ErrRequestNotFound.
func (s *RequestService) Review(ctx context.Context, requestID, reviewerID string, status models.RequestStatus) (models.ConnectionRequest, error) {
	req, err := s.review(ctx, requestID, reviewerID, status)
	observe("review", err)
	return req, err
}

func (s *RequestService) review(ctx context.Context, requestID, reviewerID string, status models.RequestStatus) (models.ConnectionRequest, error) {
	if !status.Reviewable() {
		return models.ConnectionRequest{}, ErrInvalidStatus.WithMessage("Invalid status type: " + string(status))
	}
	if !ids.Valid(requestID) {
		return models.ConnectionRequest{}, ErrRequestNotFound
	}

	req, err := s.requests.Review(ctx, requestID, reviewerID, status)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return models.ConnectionRequest{}, ErrRequestNotFound
		}
		return models.ConnectionRequest{}, apperr.Internal(err)
	}
	return req, nil
}

// ListConnections returns the other party of every accepted edge of userID.
func (s *RequestService) ListConnections(ctx context.Context, userID string) ([]models.User, error) {
	users, err := s.requests.ListConnections(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *RequestService) ListPendingReceived(ctx context.Context, userID string) ([]models.PendingRequest, error) {
	pending, err := s.requests.ListPendingReceived(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return pending, nil
}

// FeedExclusions returns userID plus everyone on the other side of any edge
// involving userID, whatever its status.
func (s *RequestService) FeedExclusions(ctx context.Context, userID string) (map[string]struct{}, error) {
	others, err := s.requests.CounterpartIDs(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	excluded := make(map[string]struct{}, len(others)+1)
	excluded[userID] = struct{}{}
	for _, id := range others {
		excluded[id] = struct{}{}
	}
	return excluded, nil
}

// Feed returns one page of users the caller has no edge with. page and limit
// are normalized with NormalizePage.
func (s *RequestService) Feed(ctx context.Context, userID string, page, limit int) ([]models.User, error) {
	excluded, err := s.FeedExclusions(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude := make([]string, 0, len(excluded))
	for id := range excluded {
		exclude = append(exclude, id)
	}

	page, limit = NormalizePage(page, limit)
	users, err := s.users.ListExcluding(ctx, exclude, limit, (page-1)*limit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// maxFeedPage keeps (page-1)*limit within int for every allowed limit.
const maxFeedPage = math.MaxInt / MaxFeedLimit

// NormalizePage applies the feed defaults: page clamped to [1, maxFeedPage],
// limit 10 when unset and clamped to [1, 50].
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > maxFeedPage {
		page = maxFeedPage
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	return page, limit
}

func observe(action string, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = apperr.From(err).Code
	}
	metrics.ConnectionRequests.WithLabelValues(action, result).Inc()
}
