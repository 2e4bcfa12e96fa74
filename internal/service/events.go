package service

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
)

// Inbound events
const (
	EventJoinRoom      = "join_room"
	EventLeaveRoom     = "leave_room"
	EventSendMessage   = "send_message"
	EventCallAdmin     = "call_admin"
	EventGetAdmins     = "get_admins"
	EventJoinAdminFeed = "join_admin_feed"
)

// Outbound events
const (
	EventChatHistory        = "chat_history"
	EventReceiveMessage     = "receive_message"
	EventChatSessionUpdated = "chat_session_updated"
	EventAdminAlert         = "admin_alert"
	EventAdminList          = "admin_list"
	EventAllChatRooms       = "all_chat_rooms"
)

// AdminFeedRoom is the shared room every staff dashboard joins.
const AdminFeedRoom = "admin_feed"

// Envelope is the frame format in both directions: {"event": "...", "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// EncodeFrame builds the wire bytes for one outbound event.
func EncodeFrame(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(outboundEnvelope{Event: event, Data: payload})
}

// JoinRoomPayload accepts either a bare identity string or
// {"id": "...", "username": "...", "firstName": "...", "lastName": "..."}.
type JoinRoomPayload struct {
	ID        string  `json:"id"`
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

var errMissingIdentity = errors.New("missing identity")

func (p *JoinRoomPayload) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		p.ID = strings.TrimSpace(id)
		return nil
	}

	type plain JoinRoomPayload
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = JoinRoomPayload(obj)
	p.ID = strings.TrimSpace(p.ID)
	return nil
}

// decodeIdentity reads a payload that is either "id" or {"id"|"userId": "..."}.
func decodeIdentity(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		if id = strings.TrimSpace(id); id == "" {
			return "", errMissingIdentity
		}
		return id, nil
	}

	var obj struct {
		ID     string `json:"id"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", err
	}
	id = strings.TrimSpace(obj.UserID)
	if id == "" {
		id = strings.TrimSpace(obj.ID)
	}
	if id == "" {
		return "", errMissingIdentity
	}
	return id, nil
}

// SendMessageInput is the send_message payload. IsBot is accepted for wire
// compatibility and ignored; the router decides the stored flag.
type SendMessageInput struct {
	RoomID   string `json:"roomId"`
	Content  string `json:"content"`
	SenderID string `json:"senderId"`
	IsBot    bool   `json:"isBot"`
}

// ChatSessionUpdated is sent to the admin feed after every routed message.
type ChatSessionUpdated struct {
	UserID    string       `json:"userId"` // room key of the session owner
	User      *models.User `json:"user"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
	Unread    bool         `json:"unread"`
}

type AdminAlert struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}
