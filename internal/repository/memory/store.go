// Package memory is an in-process implementation of the chat repositories.
//
// It enforces the same constraints as the Postgres schema (unique sso_id, at
// most one non-closed session per user) and is used for local runs with
// db.driver=memory and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/repository"
)

// Store holds all tables behind a single mutex.
type Store struct {
	mu       sync.Mutex
	users    map[uint]models.User
	sessions map[uint]models.ChatSession
	messages map[uint]models.Message
	nextID   uint
	lastTime time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uint]models.User),
		sessions: make(map[uint]models.ChatSession),
		messages: make(map[uint]models.Message),
	}
}

// NewRepositories wires a fresh store into the repository interfaces.
func NewRepositories() *repository.Repositories {
	return NewStore().Repositories()
}

func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:        userRepository{s},
		ChatSession: chatSessionRepository{s},
		Message:     messageRepository{s},
	}
}

// now returns strictly increasing timestamps so ordering by time is total.
func (s *Store) now() time.Time {
	t := time.Now()
	if !t.After(s.lastTime) {
		t = s.lastTime.Add(time.Microsecond)
	}
	s.lastTime = t
	return t
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) userBySSOID(ssoID string) (models.User, bool) {
	for _, u := range s.users {
		if u.SSOID == ssoID {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Store) userPtr(id uint) *models.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return &u
}

// Sessions returns a copy of every session, for assertions.
func (s *Store) Sessions() []models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ChatSession, 0, len(s.sessions))
	for _, cs := range s.sessions {
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Messages returns a copy of every message in insertion order, for assertions.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type userRepository struct{ s *Store }

func (r userRepository) Upsert(_ context.Context, user *models.User, updateColumns []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	existing, ok := r.s.userBySSOID(user.SSOID)
	if !ok {
		created := *user
		created.ID = r.s.id()
		if created.Role == "" {
			created.Role = models.RoleUser
		}
		created.CreatedAt = now
		created.UpdatedAt = now
		r.s.users[created.ID] = created
		*user = created
		return nil
	}

	if len(updateColumns) > 0 {
		for _, col := range updateColumns {
			switch col {
			case "username":
				existing.Username = user.Username
			case "first_name":
				existing.FirstName = user.FirstName
			case "last_name":
				existing.LastName = user.LastName
			case "avatar_url":
				existing.AvatarURL = user.AvatarURL
			case "role":
				existing.Role = user.Role
			}
		}
		existing.UpdatedAt = now
		r.s.users[existing.ID] = existing
	}
	*user = existing
	return nil
}

func (r userRepository) FindBySSOID(_ context.Context, ssoID string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.userBySSOID(ssoID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepository) FindByRole(_ context.Context, role models.UserRole) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := []models.User{}
	for _, u := range r.s.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

type chatSessionRepository struct{ s *Store }

func (r chatSessionRepository) findOpen(userID uint) (models.ChatSession, bool) {
	for _, cs := range r.s.sessions {
		if cs.UserID == userID && cs.Status.IsOpen() {
			return cs, true
		}
	}
	return models.ChatSession{}, false
}

func (r chatSessionRepository) FindOpenByUser(_ context.Context, userID uint) (*models.ChatSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cs, ok := r.findOpen(userID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cs, nil
}

func (r chatSessionRepository) FindByID(_ context.Context, id uint) (*models.ChatSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cs, ok := r.s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cs, nil
}

func (r chatSessionRepository) Create(_ context.Context, session *models.ChatSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if session.Status == "" {
		session.Status = models.SessionActive
	}
	if session.Status.IsOpen() {
		if _, exists := r.findOpen(session.UserID); exists {
			return repository.ErrOpenSessionExists
		}
	}

	now := r.s.now()
	session.ID = r.s.id()
	session.CreatedAt = now
	session.UpdatedAt = now
	stored := *session
	stored.User = nil
	stored.Messages = nil
	r.s.sessions[stored.ID] = stored
	return nil
}

func (r chatSessionRepository) Touch(_ context.Context, id uint) (*models.ChatSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cs, ok := r.s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cs.UpdatedAt = r.s.now()
	r.s.sessions[id] = cs

	cs.User = r.s.userPtr(cs.UserID)
	return &cs, nil
}

func (r chatSessionRepository) UpdateStatusByUser(_ context.Context, userID uint, status models.SessionStatus) ([]uint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := []uint{}
	for id, cs := range r.s.sessions {
		if cs.UserID != userID || !cs.Status.IsOpen() {
			continue
		}
		cs.Status = status
		cs.UpdatedAt = r.s.now()
		r.s.sessions[id] = cs
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r chatSessionRepository) ListOpen(_ context.Context) ([]models.ChatSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sessions := []models.ChatSession{}
	for _, cs := range r.s.sessions {
		if !cs.Status.IsOpen() {
			continue
		}
		cs.User = r.s.userPtr(cs.UserID)
		sessions = append(sessions, cs)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

type messageRepository struct{ s *Store }

func (r messageRepository) Create(_ context.Context, message *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[message.ChatSessionID]; !ok {
		return repository.ErrNotFound
	}
	message.ID = r.s.id()
	message.CreatedAt = r.s.now()
	message.Sender = nil

	stored := *message
	if message.SenderID != nil {
		id := *message.SenderID
		stored.SenderID = &id
		message.Sender = r.s.userPtr(id)
	}
	r.s.messages[stored.ID] = stored
	return nil
}

func (r messageRepository) bySession(sessionID uint) []models.Message {
	out := []models.Message{}
	for _, m := range r.s.messages {
		if m.ChatSessionID == sessionID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r messageRepository) ListRecentBySession(_ context.Context, sessionID uint, limit int) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := r.bySession(sessionID)
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	for i := range all {
		if all[i].SenderID != nil {
			all[i].Sender = r.s.userPtr(*all[i].SenderID)
		}
	}
	return all, nil
}

func (r messageRepository) LatestBySession(_ context.Context, sessionID uint) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := r.bySession(sessionID)
	if len(all) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := all[len(all)-1]
	return &latest, nil
}
