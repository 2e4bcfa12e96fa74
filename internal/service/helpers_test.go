package service

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/IMPACT-HRIS/IM-Chat/internal/repository"
	"github.com/IMPACT-HRIS/IM-Chat/internal/repository/memory"
	"github.com/IMPACT-HRIS/IM-Chat/pkg/config"
)

const testGreeting = "Hello! I am Khun Preaw. How can I help you today?"

type recordedFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type fakePeer struct {
	id       string
	identity *Identity
	full     bool

	mu     sync.Mutex
	frames []recordedFrame
	closed bool
}

func newPeer(id string) *fakePeer {
	return &fakePeer{id: id}
}

func (p *fakePeer) ID() string          { return p.id }
func (p *fakePeer) Identity() *Identity { return p.identity }

func (p *fakePeer) Send(frame []byte) bool {
	if p.full {
		return false
	}
	var f recordedFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		panic(err)
	}
	p.mu.Lock()
	p.frames = append(p.frames, f)
	p.mu.Unlock()
	return true
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakePeer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// events returns the payloads received for one event name, in order.
func (p *fakePeer) events(name string) []json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []json.RawMessage
	for _, f := range p.frames {
		if f.Event == name {
			out = append(out, f.Data)
		}
	}
	return out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testConfig(delay time.Duration) config.ChatConfig {
	return config.ChatConfig{
		AutoReplyDelay:   delay,
		AutoReplyMessage: testGreeting,
		HistoryLimit:     50,
		HelpNotice:       "User requested help!",
	}
}

func newTestServices(t *testing.T, delay time.Duration) (*Services, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svcs := newServicesWithRepos(t, store.Repositories(), delay)
	return svcs, store
}

func newServicesWithRepos(t *testing.T, repos *repository.Repositories, delay time.Duration) *Services {
	t.Helper()
	svcs := NewServices(repos, testConfig(delay), nil, "", zap.NewNop())
	t.Cleanup(svcs.AutoResponder.Stop)
	return svcs
}

func strPtr(s string) *string { return &s }
