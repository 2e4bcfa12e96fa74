package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Peer is one live connection as seen by the hub.
type Peer interface {
	ID() string
	// Identity returns the identity verified at connection time, or nil.
	Identity() *Identity
	// Send enqueues an encoded frame without blocking; false means the peer is gone or backed up.
	Send(frame []byte) bool
	Close()
}

// Broadcaster delivers an event to every connection in a room.
type Broadcaster interface {
	Broadcast(ctx context.Context, room, event string, payload interface{}) error
}

// Hub tracks room membership for the connections of this process. It holds
// no chat state; membership is lost on disconnect or restart.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[string]map[Peer]struct{} // room -> peers
	memberships map[Peer]map[string]struct{} // peer -> rooms
	logger      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:       make(map[string]map[Peer]struct{}),
		memberships: make(map[Peer]map[string]struct{}),
		logger:      logger,
	}
}

// Join adds peer to room. Joining twice is a no-op.
func (h *Hub) Join(peer Peer, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[Peer]struct{})
	}
	h.rooms[room][peer] = struct{}{}

	if h.memberships[peer] == nil {
		h.memberships[peer] = make(map[string]struct{})
	}
	h.memberships[peer][room] = struct{}{}
}

func (h *Hub) Leave(peer Peer, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(peer, room)
}

// LeaveAll removes peer from every room it joined.
func (h *Hub) LeaveAll(peer Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.memberships[peer] {
		h.leaveLocked(peer, room)
	}
	delete(h.memberships, peer)
}

func (h *Hub) leaveLocked(peer Peer, room string) {
	if peers, ok := h.rooms[room]; ok {
		delete(peers, peer)
		if len(peers) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.memberships[peer]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(h.memberships, peer)
		}
	}
}

// RoomSize returns the number of local connections in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Rooms returns the rooms peer is currently in.
func (h *Hub) Rooms(peer Peer) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(h.memberships[peer]))
	for room := range h.memberships[peer] {
		rooms = append(rooms, room)
	}
	return rooms
}

// Broadcast encodes the event once and delivers it to the local members of room.
func (h *Hub) Broadcast(_ context.Context, room, event string, payload interface{}) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	h.Deliver(room, frame)
	return nil
}

// Deliver sends an already encoded frame to the local members of room.
// A peer whose send buffer is full is dropped from every room and closed.
func (h *Hub) Deliver(room string, frame []byte) {
	h.mu.RLock()
	peers := make([]Peer, 0, len(h.rooms[room]))
	for peer := range h.rooms[room] {
		peers = append(peers, peer)
	}
	h.mu.RUnlock()

	for _, peer := range peers {
		if !peer.Send(frame) {
			h.logger.Warn("dropping slow connection",
				zap.String("peer", peer.ID()), zap.String("room", room))
			h.LeaveAll(peer)
			peer.Close()
		}
	}
}

// Emit sends an event to a single connection.
func (h *Hub) Emit(peer Peer, event string, payload interface{}) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	if !peer.Send(frame) {
		h.LeaveAll(peer)
		peer.Close()
	}
	return nil
}
