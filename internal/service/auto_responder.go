package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/repository"
)

const (
	autoReplyTimeout = 5 * time.Second
	defaultGreeting  = "Hello! I am Khun Preaw. How can I help you today?"
)

type pendingReply struct {
	timer *time.Timer
}

// AutoResponder posts a canned greeting a short delay after a user writes
// into an active session. Pending replies are keyed by session id and are
// canceled when the session leaves the active status.
type AutoResponder struct {
	mu       sync.Mutex
	pending  map[uint]map[*pendingReply]struct{}
	stopped  bool
	wg       sync.WaitGroup
	delay    time.Duration
	message  string
	sessions repository.ChatSessionRepository
	messages repository.MessageRepository
	out      Broadcaster
	logger   *zap.Logger
}

func NewAutoResponder(repos *repository.Repositories, out Broadcaster, delay time.Duration, message string, logger *zap.Logger) *AutoResponder {
	if message == "" {
		message = defaultGreeting
	}
	return &AutoResponder{
		pending:  make(map[uint]map[*pendingReply]struct{}),
		delay:    delay,
		message:  message,
		sessions: repos.ChatSession,
		messages: repos.Message,
		out:      out,
		logger:   logger,
	}
}

// Schedule arms one reply for the session, delivered to room.
func (a *AutoResponder) Schedule(sessionID uint, room string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}
	p := &pendingReply{}
	if a.pending[sessionID] == nil {
		a.pending[sessionID] = make(map[*pendingReply]struct{})
	}
	a.pending[sessionID][p] = struct{}{}
	a.wg.Add(1)
	p.timer = time.AfterFunc(a.delay, func() {
		defer a.wg.Done()
		a.fire(sessionID, room, p)
	})
}

// Cancel drops every pending reply for the session and returns how many were dropped.
func (a *AutoResponder) Cancel(sessionID uint) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancelLocked(sessionID)
}

func (a *AutoResponder) cancelLocked(sessionID uint) int {
	replies := a.pending[sessionID]
	for p := range replies {
		if p.timer.Stop() {
			a.wg.Done()
		}
	}
	delete(a.pending, sessionID)
	return len(replies)
}

// Pending returns the number of armed replies for the session.
func (a *AutoResponder) Pending(sessionID uint) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending[sessionID])
}

// Stop cancels all pending replies and waits for any reply already being sent.
func (a *AutoResponder) Stop() {
	a.mu.Lock()
	a.stopped = true
	for sessionID := range a.pending {
		a.cancelLocked(sessionID)
	}
	a.mu.Unlock()
	a.wg.Wait()
}

// claim removes p from the pending set; false means it was canceled first.
func (a *AutoResponder) claim(sessionID uint, p *pendingReply) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	replies, ok := a.pending[sessionID]
	if !ok {
		return false
	}
	if _, ok := replies[p]; !ok {
		return false
	}
	delete(replies, p)
	if len(replies) == 0 {
		delete(a.pending, sessionID)
	}
	return true
}

func (a *AutoResponder) fire(sessionID uint, room string, p *pendingReply) {
	if !a.claim(sessionID, p) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), autoReplyTimeout)
	defer cancel()

	// another process may have escalated the session
	session, err := a.sessions.FindByID(ctx, sessionID)
	if err != nil {
		a.logger.Warn("auto reply: session lookup failed",
			zap.Uint("session_id", sessionID), zap.Error(err))
		return
	}
	if session.Status != models.SessionActive {
		a.logger.Debug("auto reply skipped, session no longer active",
			zap.Uint("session_id", sessionID), zap.String("status", string(session.Status)))
		return
	}

	reply := models.NewBotMessage(sessionID, a.message)
	if err := a.messages.Create(ctx, &reply); err != nil {
		a.logger.Error("auto reply: save message failed",
			zap.Uint("session_id", sessionID), zap.Error(err))
		return
	}
	if err := a.out.Broadcast(ctx, room, EventReceiveMessage, reply); err != nil {
		a.logger.Error("auto reply: broadcast failed", zap.String("room", room), zap.Error(err))
	}
}
