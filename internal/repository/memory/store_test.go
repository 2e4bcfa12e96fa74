package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/repository"
)

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, store *Store, ssoID string) *models.User {
	t.Helper()
	user := &models.User{SSOID: ssoID, Username: ssoID}
	if err := store.Repositories().User.Upsert(context.Background(), user, nil); err != nil {
		t.Fatalf("seed user %s: %v", ssoID, err)
	}
	return user
}

func TestUserUpsertUpdatesOnlyListedColumns(t *testing.T) {
	store := NewStore()
	users := store.Repositories().User
	ctx := context.Background()

	first := &models.User{SSOID: "u1", Username: "alice", FirstName: strPtr("Alice")}
	if err := users.Upsert(ctx, first, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID == 0 || first.Role != models.RoleUser {
		t.Fatalf("inserted user = %+v", first)
	}

	again := &models.User{SSOID: "u1", Username: "renamed", FirstName: strPtr("Other")}
	if err := users.Upsert(ctx, again, []string{"username"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("upsert created a second user: %d != %d", again.ID, first.ID)
	}
	if again.Username != "renamed" || again.FirstName == nil || *again.FirstName != "Alice" {
		t.Fatalf("upserted user = %+v", again)
	}

	if _, err := users.FindBySSOID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("FindBySSOID(missing) err = %v", err)
	}
}

func TestFindByRole(t *testing.T) {
	store := NewStore()
	users := store.Repositories().User
	ctx := context.Background()

	for _, u := range []models.User{
		{SSOID: "a2", Username: "zed", Role: models.RoleAdmin},
		{SSOID: "u1", Username: "user"},
		{SSOID: "a1", Username: "amy", Role: models.RoleAdmin},
	} {
		u := u
		if err := users.Upsert(ctx, &u, nil); err != nil {
			t.Fatalf("upsert %s: %v", u.SSOID, err)
		}
	}

	admins, err := users.FindByRole(ctx, models.RoleAdmin)
	if err != nil {
		t.Fatalf("FindByRole: %v", err)
	}
	if len(admins) != 2 || admins[0].Username != "amy" || admins[1].Username != "zed" {
		t.Fatalf("admins = %+v", admins)
	}
}

func TestSingleOpenSessionPerUser(t *testing.T) {
	store := NewStore()
	sessions := store.Repositories().ChatSession
	ctx := context.Background()
	user := seedUser(t, store, "u1")

	first := &models.ChatSession{UserID: user.ID}
	if err := sessions.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Status != models.SessionActive {
		t.Fatalf("default status = %q", first.Status)
	}

	err := sessions.Create(ctx, &models.ChatSession{UserID: user.ID, Status: models.SessionWaitingForAdmin})
	if !errors.Is(err, repository.ErrOpenSessionExists) {
		t.Fatalf("second open session err = %v, want ErrOpenSessionExists", err)
	}

	if err := sessions.Create(ctx, &models.ChatSession{UserID: user.ID, Status: models.SessionClosed}); err != nil {
		t.Fatalf("closed session: %v", err)
	}
	if got := len(store.Sessions()); got != 2 {
		t.Fatalf("sessions = %d, want 2", got)
	}
}

func TestUpdateStatusByUserSkipsClosed(t *testing.T) {
	store := NewStore()
	sessions := store.Repositories().ChatSession
	ctx := context.Background()
	user := seedUser(t, store, "u1")
	other := seedUser(t, store, "u2")

	closed := &models.ChatSession{UserID: user.ID, Status: models.SessionClosed}
	open := &models.ChatSession{UserID: user.ID}
	foreign := &models.ChatSession{UserID: other.ID}
	for _, cs := range []*models.ChatSession{closed, open, foreign} {
		if err := sessions.Create(ctx, cs); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	ids, err := sessions.UpdateStatusByUser(ctx, user.ID, models.SessionWaitingForAdmin)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(ids) != 1 || ids[0] != open.ID {
		t.Fatalf("ids = %v, want [%d]", ids, open.ID)
	}

	got, _ := sessions.FindByID(ctx, open.ID)
	if got.Status != models.SessionWaitingForAdmin {
		t.Fatalf("status = %q", got.Status)
	}
	got, _ = sessions.FindByID(ctx, foreign.ID)
	if got.Status != models.SessionActive {
		t.Fatalf("other user's session changed to %q", got.Status)
	}
}

func TestTouchAndListOpen(t *testing.T) {
	store := NewStore()
	sessions := store.Repositories().ChatSession
	ctx := context.Background()

	var created []*models.ChatSession
	for _, id := range []string{"u1", "u2"} {
		cs := &models.ChatSession{UserID: seedUser(t, store, id).ID}
		if err := sessions.Create(ctx, cs); err != nil {
			t.Fatalf("create: %v", err)
		}
		created = append(created, cs)
	}

	touched, err := sessions.Touch(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if !touched.UpdatedAt.After(created[0].UpdatedAt) || touched.User == nil || touched.User.SSOID != "u1" {
		t.Fatalf("touched = %+v", touched)
	}
	if _, err := sessions.Touch(ctx, 9999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("touch missing err = %v", err)
	}

	open, err := sessions.ListOpen(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(open) != 2 || open[0].ID != created[0].ID || open[0].User == nil {
		t.Fatalf("open = %+v", open)
	}
}

func TestMessagesHistoryWindow(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()
	user := seedUser(t, store, "u1")
	session := &models.ChatSession{UserID: user.ID}
	if err := repos.ChatSession.Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := repos.Message.LatestBySession(ctx, session.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("latest of empty session err = %v", err)
	}

	for i := 0; i < 5; i++ {
		var msg models.Message
		if i%2 == 0 {
			msg = models.NewUserMessage(session.ID, user.ID, "user")
		} else {
			msg = models.NewBotMessage(session.ID, "bot")
		}
		if err := repos.Message.Create(ctx, &msg); err != nil {
			t.Fatalf("create message %d: %v", i, err)
		}
		if i == 0 && (msg.Sender == nil || msg.Sender.SSOID != "u1") {
			t.Fatalf("created message sender = %+v", msg.Sender)
		}
	}

	recent, err := repos.Message.ListRecentBySession(ctx, session.ID, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent = %d, want 3", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if !recent[i].CreatedAt.After(recent[i-1].CreatedAt) {
			t.Fatalf("history not ascending at %d", i)
		}
	}
	if recent[0].Content != "user" || recent[0].Sender == nil || recent[1].Sender != nil {
		t.Fatalf("recent = %+v", recent)
	}

	latest, err := repos.Message.LatestBySession(ctx, session.ID)
	if err != nil || latest.ID != recent[2].ID {
		t.Fatalf("latest = %+v, err = %v", latest, err)
	}

	orphan := models.NewBotMessage(9999, "lost")
	if err := repos.Message.Create(ctx, &orphan); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("orphan message err = %v", err)
	}
}
