package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/repository/memory"
)

func newResponderFixture(t *testing.T, delay time.Duration) (*AutoResponder, *Hub, *memory.Store, *models.ChatSession) {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	user := &models.User{SSOID: "u1", Username: "u1"}
	if err := repos.User.Upsert(ctx, user, nil); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	session := &models.ChatSession{UserID: user.ID, Status: models.SessionActive}
	if err := repos.ChatSession.Create(ctx, session); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	hub := NewHub(zap.NewNop())
	responder := NewAutoResponder(repos, hub, delay, "", zap.NewNop())
	t.Cleanup(responder.Stop)
	return responder, hub, store, session
}

func TestAutoResponderDeliversDefaultGreeting(t *testing.T) {
	responder, hub, store, session := newResponderFixture(t, 5*time.Millisecond)
	peer := newPeer("u")
	hub.Join(peer, "u1")

	responder.Schedule(session.ID, "u1")
	waitFor(t, "greeting", func() bool { return len(peer.events(EventReceiveMessage)) == 1 })

	msg := decode[models.Message](t, peer.events(EventReceiveMessage)[0])
	if msg.Content != defaultGreeting || !msg.IsBot || msg.SenderID != nil {
		t.Fatalf("greeting = %+v", msg)
	}
	if got := len(store.Messages()); got != 1 {
		t.Fatalf("stored messages = %d, want 1", got)
	}
	if got := responder.Pending(session.ID); got != 0 {
		t.Fatalf("pending after fire = %d", got)
	}
}

func TestAutoResponderCancel(t *testing.T) {
	responder, _, store, session := newResponderFixture(t, 30*time.Millisecond)

	responder.Schedule(session.ID, "u1")
	responder.Schedule(session.ID, "u1")
	if got := responder.Cancel(session.ID); got != 2 {
		t.Fatalf("canceled = %d, want 2", got)
	}
	if got := responder.Cancel(session.ID); got != 0 {
		t.Fatalf("second cancel = %d, want 0", got)
	}

	time.Sleep(80 * time.Millisecond)
	if got := len(store.Messages()); got != 0 {
		t.Fatalf("stored messages = %d, want 0", got)
	}
}

func TestAutoResponderSkipsInactiveSession(t *testing.T) {
	responder, _, store, session := newResponderFixture(t, 20*time.Millisecond)

	responder.Schedule(session.ID, "u1")
	// escalated elsewhere, without a local cancel
	repos := store.Repositories()
	if _, err := repos.ChatSession.UpdateStatusByUser(context.Background(), session.UserID, models.SessionWaitingForAdmin); err != nil {
		t.Fatalf("update status: %v", err)
	}

	waitFor(t, "timer to fire", func() bool { return responder.Pending(session.ID) == 0 })
	responder.Stop()
	if got := len(store.Messages()); got != 0 {
		t.Fatalf("stored messages = %d, want 0", got)
	}
}

func TestAutoResponderStop(t *testing.T) {
	responder, _, store, session := newResponderFixture(t, 20*time.Millisecond)

	responder.Schedule(session.ID, "u1")
	responder.Stop()
	responder.Schedule(session.ID, "u1")

	if got := responder.Pending(session.ID); got != 0 {
		t.Fatalf("pending after stop = %d", got)
	}
	time.Sleep(50 * time.Millisecond)
	if got := len(store.Messages()); got != 0 {
		t.Fatalf("stored messages = %d, want 0", got)
	}
}
