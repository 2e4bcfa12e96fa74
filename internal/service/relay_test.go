package service

import (
	"testing"

	"go.uber.org/zap"
)

func TestRelayHandleDeliversToLocalRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	relay := NewRedisRelay(nil, "imchat:rooms", hub, zap.NewNop())
	member, other := newPeer("member"), newPeer("other")
	hub.Join(member, "u1")
	hub.Join(other, "u2")

	relay.handle(`{"room":"u1","frame":{"event":"receive_message","data":{"content":"hi"}}}`)

	got := member.events(EventReceiveMessage)
	if len(got) != 1 {
		t.Fatalf("member frames = %d, want 1", len(got))
	}
	if msg := decode[map[string]string](t, got[0]); msg["content"] != "hi" {
		t.Fatalf("payload = %v", msg)
	}
	if n := len(other.events(EventReceiveMessage)); n != 0 {
		t.Fatalf("other room frames = %d, want 0", n)
	}
}

func TestRelayHandleIgnoresMalformed(t *testing.T) {
	hub := NewHub(zap.NewNop())
	relay := NewRedisRelay(nil, "imchat:rooms", hub, zap.NewNop())
	peer := newPeer("p")
	hub.Join(peer, "u1")

	for _, payload := range []string{`not json`, `{"frame":{"event":"x"}}`, `[]`} {
		relay.handle(payload)
	}
	if n := len(peer.events("x")) + len(peer.events(EventReceiveMessage)); n != 0 {
		t.Fatalf("delivered %d frames from malformed input", n)
	}
}
