package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"gittogether/api/internal/models"
	"gittogether/api/internal/repository"
)

func seedUsers(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.Users().Create(context.Background(), models.User{ID: id, FirstName: id, Email: id + "@example.com"}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
}

func TestUsersDuplicateEmail(t *testing.T) {
	s := NewStore()
	seedUsers(t, s, "a")
	err := s.Users().Create(context.Background(), models.User{ID: "b", Email: "a@example.com"})
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if _, err := s.Users().GetByID(context.Background(), "missing"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListExcludingPaginatesInInsertionOrder(t *testing.T) {
	s := NewStore()
	seedUsers(t, s, "a", "b", "c", "d", "e")

	got, _ := s.Users().ListExcluding(context.Background(), []string{"a", "c"}, 2, 1)
	if len(got) != 2 || got[0].ID != "d" || got[1].ID != "e" {
		t.Fatalf("unexpected page: %+v", got)
	}
}

func TestRequestPairIsUnordered(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedUsers(t, s, "a", "b")

	if _, err := s.Requests().Create(ctx, models.ConnectionRequest{ID: "r1", FromUserID: "a", ToUserID: "b", Status: models.RequestStatusInterested}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := s.Requests().Create(ctx, models.ConnectionRequest{ID: "r2", FromUserID: "b", ToUserID: "a", Status: models.RequestStatusInterested})
	if !errors.Is(err, repository.ErrDuplicatePair) {
		t.Fatalf("expected ErrDuplicatePair, got %v", err)
	}
	if req, err := s.Requests().FindBetween(ctx, "b", "a"); err != nil || req.ID != "r1" {
		t.Fatalf("FindBetween = %+v, %v", req, err)
	}
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedUsers(t, s, "a", "b")

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "a", "b"
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := s.Requests().Create(ctx, models.ConnectionRequest{ID: string(rune('A' + i)), FromUserID: from, ToUserID: to, Status: models.RequestStatusInterested})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one edge, got %d", wins)
	}
}

func TestReviewIsConditional(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedUsers(t, s, "a", "b")
	_, _ = s.Requests().Create(ctx, models.ConnectionRequest{ID: "r1", FromUserID: "a", ToUserID: "b", Status: models.RequestStatusInterested})

	if _, err := s.Requests().Review(ctx, "r1", "a", models.RequestStatusAccepted); !errors.Is(err, repository.ErrRequestNotFound) {
		t.Fatalf("sender must not review, got %v", err)
	}
	if _, err := s.Requests().Review(ctx, "r1", "b", models.RequestStatusAccepted); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := s.Requests().Review(ctx, "r1", "b", models.RequestStatusRejected); !errors.Is(err, repository.ErrRequestNotFound) {
		t.Fatalf("second review must fail, got %v", err)
	}
	ok, _ := s.Requests().AreConnected(ctx, "b", "a")
	if !ok {
		t.Fatal("expected pair to be connected")
	}
	conns, _ := s.Requests().ListConnections(ctx, "b")
	if len(conns) != 1 || conns[0].ID != "a" {
		t.Fatalf("ListConnections = %+v", conns)
	}
}

func TestPendingRecipientsWindow(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 10, 13, 12, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(func() time.Time { return clock }))
	seedUsers(t, s, "a", "b", "c")

	_, _ = s.Requests().Create(ctx, models.ConnectionRequest{ID: "r1", FromUserID: "a", ToUserID: "c", Status: models.RequestStatusInterested})
	_, _ = s.Requests().Create(ctx, models.ConnectionRequest{ID: "r2", FromUserID: "b", ToUserID: "c", Status: models.RequestStatusInterested})
	_, _ = s.Requests().Create(ctx, models.ConnectionRequest{ID: "r3", FromUserID: "a", ToUserID: "b", Status: models.RequestStatusIgnored})

	from := time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC)
	got, _ := s.Requests().ListPendingRecipients(ctx, from, from.Add(24*time.Hour))
	if len(got) != 1 || got[0].Email != "c@example.com" {
		t.Fatalf("expected one distinct recipient, got %+v", got)
	}

	got, _ = s.Requests().ListPendingRecipients(ctx, from.Add(24*time.Hour), from.Add(48*time.Hour))
	if len(got) != 0 {
		t.Fatalf("expected no recipients outside window, got %+v", got)
	}
}

func TestChatAppendRequiresParticipant(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedUsers(t, s, "a", "b", "c")

	chat, _ := s.Chats().GetOrCreateDirect(ctx, "c1", "b", "a")
	again, _ := s.Chats().GetOrCreateDirect(ctx, "c2", "a", "b")
	if again.ID != chat.ID {
		t.Fatalf("expected the same chat, got %s and %s", chat.ID, again.ID)
	}

	if _, err := s.Chats().AppendMessage(ctx, models.Message{ID: "m1", ChatID: chat.ID, SenderID: "c", Text: "hi"}); !errors.Is(err, repository.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	for _, id := range []string{"m1", "m2", "m3"} {
		if _, err := s.Chats().AppendMessage(ctx, models.Message{ID: id, ChatID: chat.ID, SenderID: "a", Text: id}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	msgs, _ := s.Chats().ListMessages(ctx, chat.ID, 2)
	if len(msgs) != 2 || msgs[0].ID != "m2" || msgs[1].ID != "m3" || msgs[1].SenderFirstName != "a" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if _, err := s.Chats().FindForParticipant(ctx, chat.ID, "c"); !errors.Is(err, repository.ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestListOrderBreaksTimestampTiesByID(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(func() time.Time { return at }))
	seedUsers(t, s, "hub", "u1", "u2", "u3", "u4")

	// Request ids sort the reverse of the counterpart ids.
	for i, from := range []string{"u1", "u2", "u3", "u4"} {
		id := "r" + string(rune('9'-i))
		if _, err := s.Requests().Create(ctx, models.ConnectionRequest{ID: id, FromUserID: from, ToUserID: "hub", Status: models.RequestStatusInterested}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	for run := 0; run < 5; run++ {
		pending, _ := s.Requests().ListPendingReceived(ctx, "hub")
		var got []string
		for _, p := range pending {
			got = append(got, p.From.ID)
		}
		if want := []string{"u4", "u3", "u2", "u1"}; !slices.Equal(got, want) {
			t.Fatalf("pending order = %v, want %v", got, want)
		}
	}

	for _, id := range []string{"r9", "r8", "r7", "r6"} {
		if _, err := s.Requests().Review(ctx, id, "hub", models.RequestStatusAccepted); err != nil {
			t.Fatalf("review %s: %v", id, err)
		}
	}
	for run := 0; run < 5; run++ {
		conns, _ := s.Requests().ListConnections(ctx, "hub")
		var got []string
		for _, u := range conns {
			got = append(got, u.ID)
		}
		if want := []string{"u4", "u3", "u2", "u1"}; !slices.Equal(got, want) {
			t.Fatalf("connections order = %v, want %v", got, want)
		}
	}
}

