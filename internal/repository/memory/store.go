// Package memory is an in-process implementation of the repositories. It
// enforces the same uniqueness and conditional-update rules as the Postgres
// schema and backs the test suites and the "memory" storage driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gittogether/api/internal/models"
	"gittogether/api/internal/repository"
)

type pairKey struct{ low, high string }

func keyFor(a, b string) pairKey {
	low, high := models.OrderedPair(a, b)
	return pairKey{low: low, high: high}
}

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users     map[string]models.User
	userOrder []string
	emails    map[string]string

	requests     map[string]models.ConnectionRequest
	requestPairs map[pairKey]string

	chats     map[string]models.Chat
	chatPairs map[pairKey]string
	messages  map[string][]models.Message
}

type Option func(*Store)

// WithClock overrides the time source used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:          time.Now,
		users:        make(map[string]models.User),
		emails:       make(map[string]string),
		requests:     make(map[string]models.ConnectionRequest),
		requestPairs: make(map[pairKey]string),
		chats:        make(map[string]models.Chat),
		chatPairs:    make(map[pairKey]string),
		messages:     make(map[string][]models.Message),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Users() *Users       { return &Users{s: s} }
func (s *Store) Requests() *Requests { return &Requests{s: s} }
func (s *Store) Chats() *Chats       { return &Chats{s: s} }

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user models.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	user.Skills = append([]string(nil), user.Skills...)
	s.users[user.ID] = user
	s.emails[user.Email] = user.ID
	s.userOrder = append(s.userOrder, user.ID)
	return nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (models.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return s.users[id], nil
}

func (u *Users) GetByID(_ context.Context, id string) (models.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (u *Users) ListExcluding(_ context.Context, exclude []string, limit, offset int) ([]models.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	var out []models.User
	for _, id := range s.userOrder {
		if _, ok := skip[id]; ok {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, s.users[id])
	}
	return out, nil
}

type Requests struct{ s *Store }

func (r *Requests) Create(_ context.Context, req models.ConnectionRequest) (models.ConnectionRequest, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(req.FromUserID, req.ToUserID)
	if _, ok := s.requestPairs[key]; ok {
		return models.ConnectionRequest{}, repository.ErrDuplicatePair
	}
	now := s.now()
	req.CreatedAt, req.UpdatedAt = now, now
	s.requests[req.ID] = req
	s.requestPairs[key] = req.ID
	return req, nil
}

func (r *Requests) FindBetween(_ context.Context, a, b string) (models.ConnectionRequest, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.requestPairs[keyFor(a, b)]
	if !ok {
		return models.ConnectionRequest{}, repository.ErrRequestNotFound
	}
	return s.requests[id], nil
}

func (r *Requests) Review(_ context.Context, requestID, reviewerID string, status models.RequestStatus) (models.ConnectionRequest, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[requestID]
	if !ok || req.ToUserID != reviewerID || req.Status != models.RequestStatusInterested {
		return models.ConnectionRequest{}, repository.ErrRequestNotFound
	}
	req.Status = status
	req.UpdatedAt = s.now()
	s.requests[requestID] = req
	return req, nil
}

func (r *Requests) AreConnected(_ context.Context, a, b string) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.requestPairs[keyFor(a, b)]
	return ok && s.requests[id].Status == models.RequestStatusAccepted, nil
}

func (r *Requests) ListConnections(_ context.Context, userID string) ([]models.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := s.edgesOf(userID, func(req models.ConnectionRequest) bool {
		return req.Status == models.RequestStatusAccepted
	})
	sortEdges(edges, func(req models.ConnectionRequest) time.Time { return req.UpdatedAt })

	users := make([]models.User, 0, len(edges))
	for _, req := range edges {
		if other, ok := s.users[req.Other(userID)]; ok {
			users = append(users, other)
		}
	}
	return users, nil
}

func (r *Requests) ListPendingReceived(_ context.Context, userID string) ([]models.PendingRequest, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := s.edgesOf(userID, func(req models.ConnectionRequest) bool {
		return req.ToUserID == userID && req.Status == models.RequestStatusInterested
	})
	sortEdges(edges, func(req models.ConnectionRequest) time.Time { return req.CreatedAt })

	pending := make([]models.PendingRequest, 0, len(edges))
	for _, req := range edges {
		from, ok := s.users[req.FromUserID]
		if !ok {
			continue
		}
		pending = append(pending, models.PendingRequest{RequestID: req.ID, From: from, CreatedAt: req.CreatedAt})
	}
	return pending, nil
}

func (r *Requests) CounterpartIDs(_ context.Context, userID string) ([]string, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := s.edgesOf(userID, func(models.ConnectionRequest) bool { return true })
	ids := make([]string, 0, len(edges))
	for _, req := range edges {
		ids = append(ids, req.Other(userID))
	}
	return ids, nil
}

func (r *Requests) ListPendingRecipients(_ context.Context, from, to time.Time) ([]models.Recipient, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var recipients []models.Recipient
	for _, req := range s.requests {
		if req.Status != models.RequestStatusInterested || req.CreatedAt.Before(from) || !req.CreatedAt.Before(to) {
			continue
		}
		if _, ok := seen[req.ToUserID]; ok {
			continue
		}
		user, ok := s.users[req.ToUserID]
		if !ok {
			continue
		}
		seen[req.ToUserID] = struct{}{}
		recipients = append(recipients, models.Recipient{UserID: user.ID, Email: user.Email, FirstName: user.FirstName})
	}
	sort.Slice(recipients, func(i, j int) bool { return recipients[i].UserID < recipients[j].UserID })
	return recipients, nil
}

// edgesOf must be called with s.mu held.
func (s *Store) edgesOf(userID string, keep func(models.ConnectionRequest) bool) []models.ConnectionRequest {
	var out []models.ConnectionRequest
	for _, req := range s.requests {
		if (req.FromUserID == userID || req.ToUserID == userID) && keep(req) {
			out = append(out, req)
		}
	}
	return out
}

type Chats struct{ s *Store }

func (c *Chats) GetOrCreateDirect(_ context.Context, id, a, b string) (models.Chat, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(a, b)
	if existing, ok := s.chatPairs[key]; ok {
		return copyChat(s.chats[existing]), nil
	}
	chat := models.Chat{ID: id, Participants: []string{key.low, key.high}, CreatedAt: s.now()}
	s.chats[id] = chat
	s.chatPairs[key] = id
	return copyChat(chat), nil
}

func (c *Chats) FindForParticipant(_ context.Context, chatID, userID string) (models.Chat, error) {
	s := c.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok || !chat.HasParticipant(userID) {
		return models.Chat{}, repository.ErrChatNotFound
	}
	return copyChat(chat), nil
}

func (c *Chats) AppendMessage(_ context.Context, msg models.Message) (models.Message, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[msg.ChatID]
	if !ok || !chat.HasParticipant(msg.SenderID) {
		return models.Message{}, repository.ErrNotParticipant
	}
	msg.CreatedAt = s.now()
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)
	return msg, nil
}

func (c *Chats) ListMessages(_ context.Context, chatID string, limit int) ([]models.MessageView, error) {
	s := c.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[chatID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		sender := s.users[m.SenderID]
		views = append(views, models.MessageView{Message: m, SenderFirstName: sender.FirstName, SenderLastName: sender.LastName})
	}
	return views, nil
}

func copyChat(chat models.Chat) models.Chat {
	chat.Participants = append([]string(nil), chat.Participants...)
	return chat
}

// sortEdges orders by the given timestamp, then id, matching the SQL ORDER BY.
func sortEdges(edges []models.ConnectionRequest, at func(models.ConnectionRequest) time.Time) {
	sort.Slice(edges, func(i, j int) bool {
		ti, tj := at(edges[i]), at(edges[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return edges[i].ID < edges[j].ID
	})
}
