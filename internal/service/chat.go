package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/repository"
)

const defaultHelpNotice = "User requested help!"

// ChatService handles the socket events of the support chat.
type ChatService struct {
	resolver   *SessionResolver
	users      *UserService
	sessions   repository.ChatSessionRepository
	messages   repository.MessageRepository
	userRepo   repository.UserRepository
	hub        *Hub
	out        Broadcaster
	responder  *AutoResponder
	helpNotice string
	logger     *zap.Logger
}

// HandleClient serves one connection until it closes, then removes it from every room.
func (s *ChatService) HandleClient(ctx context.Context, client *Client) {
	s.logger.Debug("client connected", zap.String("conn", client.ID()))
	client.Serve(ctx, s.dispatch, func(c *Client) {
		s.hub.LeaveAll(c)
		s.logger.Debug("client disconnected", zap.String("conn", c.ID()))
	})
}

func (s *ChatService) dispatch(ctx context.Context, c *Client, env Envelope) {
	s.Dispatch(ctx, c, env)
}

// Dispatch routes one inbound event. Failures are logged and never reported to the peer.
func (s *ChatService) Dispatch(ctx context.Context, peer Peer, env Envelope) {
	var err error
	switch env.Event {
	case EventJoinRoom:
		var payload JoinRoomPayload
		if err = json.Unmarshal(env.Data, &payload); err == nil {
			_, err = s.JoinRoom(ctx, peer, payload)
		}
	case EventLeaveRoom:
		var room string
		if room, err = decodeIdentity(env.Data); err == nil {
			s.hub.Leave(peer, room)
		}
	case EventSendMessage:
		var in SendMessageInput
		if err = json.Unmarshal(env.Data, &in); err == nil {
			_, err = s.SendMessage(ctx, peer, in)
		}
	case EventCallAdmin:
		var userKey string
		if userKey, err = decodeIdentity(env.Data); err == nil {
			err = s.CallAdmin(ctx, peer, userKey)
		}
	case EventGetAdmins:
		s.GetAdmins(ctx, peer)
	case EventJoinAdminFeed:
		err = s.JoinAdminFeed(ctx, peer)
	default:
		s.logger.Debug("unknown event", zap.String("event", env.Event))
		return
	}

	if err != nil {
		s.logger.Warn("event failed",
			zap.String("event", env.Event), zap.String("conn", peer.ID()), zap.Error(err))
	}
}

// JoinRoom resolves the user and open session, then adds the peer to the user's
// room and replays history to that peer only. Nothing is granted on failure.
func (s *ChatService) JoinRoom(ctx context.Context, peer Peer, payload JoinRoomPayload) (*JoinResult, error) {
	hints := IdentityHints{
		SSOID:     payload.ID,
		Username:  payload.Username,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	}

	if id := peer.Identity(); id != nil {
		switch {
		case id.SSOID == payload.ID:
			hints.Role = models.UserRole(id.Role)
			hints.Username = nonEmpty(id.Username, hints.Username)
			hints.FirstName = nonEmpty(id.FirstName, hints.FirstName)
			hints.LastName = nonEmpty(id.LastName, hints.LastName)
		case !id.IsAdmin():
			return nil, errors.New("join_room: only staff may join another user's room")
		}
	}

	result, err := s.resolver.Join(ctx, hints)
	if err != nil {
		return nil, err
	}

	s.hub.Join(peer, result.User.SSOID)
	if err := s.hub.Emit(peer, EventChatHistory, result.History); err != nil {
		return result, err
	}
	return result, nil
}

// SendMessage persists one message and fans it out to the user's room and the admin feed.
// Any message whose sender is not the room owner is stored as an anonymous bot reply.
func (s *ChatService) SendMessage(ctx context.Context, peer Peer, in SendMessageInput) (*models.Message, error) {
	room := strings.TrimSpace(in.RoomID)
	if strings.TrimSpace(in.Content) == "" {
		return nil, &RoutingError{RoomID: room, Reason: "empty content"}
	}

	owner, err := s.userRepo.FindBySSOID(ctx, room)
	if err != nil {
		return nil, &RoutingError{RoomID: room, Reason: "unknown user", Err: err}
	}
	session, err := s.sessions.FindOpenByUser(ctx, owner.ID)
	if err != nil {
		return nil, &RoutingError{RoomID: room, Reason: "no open session", Err: err}
	}

	sender := strings.TrimSpace(in.SenderID)
	if id := peer.Identity(); id != nil {
		if !id.IsAdmin() && id.SSOID != room {
			return nil, &RoutingError{RoomID: room, Reason: "sender may not post to this room"}
		}
		sender = id.SSOID
	}
	supportReply := sender != room

	var message models.Message
	if supportReply {
		message = models.NewBotMessage(session.ID, in.Content)
	} else {
		message = models.NewUserMessage(session.ID, owner.ID, in.Content)
	}
	if err := s.messages.Create(ctx, &message); err != nil {
		return nil, &RoutingError{RoomID: room, Reason: "save message", Err: err}
	}

	updated, err := s.sessions.Touch(ctx, session.ID)
	if err != nil {
		s.logger.Warn("bump session timestamp failed",
			zap.Uint("session_id", session.ID), zap.Error(err))
		updated = session
		updated.User = owner
	}

	if err := s.out.Broadcast(ctx, room, EventReceiveMessage, message); err != nil {
		s.logger.Error("broadcast message failed", zap.String("room", room), zap.Error(err))
	}
	summary := ChatSessionUpdated{
		UserID:    room,
		User:      updated.User,
		Message:   message.Content,
		Timestamp: message.CreatedAt,
		Unread:    !supportReply,
	}
	if err := s.out.Broadcast(ctx, AdminFeedRoom, EventChatSessionUpdated, summary); err != nil {
		s.logger.Error("broadcast session update failed", zap.Error(err))
	}

	if session.Status == models.SessionActive && !supportReply {
		s.responder.Schedule(session.ID, room)
	}
	return &message, nil
}

// CallAdmin moves the user's open sessions to waiting_for_admin, cancels their
// pending auto-replies and alerts the admin feed once.
func (s *ChatService) CallAdmin(ctx context.Context, peer Peer, userKey string) error {
	if id := peer.Identity(); id != nil && !id.IsAdmin() && id.SSOID != userKey {
		return errors.New("call_admin: cannot escalate another user's session")
	}

	var transitionErr error
	user, err := s.userRepo.FindBySSOID(ctx, userKey)
	if err != nil {
		transitionErr = err
	} else {
		ids, err := s.sessions.UpdateStatusByUser(ctx, user.ID, models.SessionWaitingForAdmin)
		if err != nil {
			transitionErr = err
		}
		for _, id := range ids {
			if n := s.responder.Cancel(id); n > 0 {
				s.logger.Debug("canceled pending auto replies",
					zap.Uint("session_id", id), zap.Int("count", n))
			}
		}
	}

	alert := AdminAlert{UserID: userKey, Message: s.helpNotice}
	if err := s.out.Broadcast(ctx, AdminFeedRoom, EventAdminAlert, alert); err != nil {
		return errors.Join(transitionErr, err)
	}
	return transitionErr
}

// GetAdmins replies with the staff list; a store error yields an empty list.
func (s *ChatService) GetAdmins(ctx context.Context, peer Peer) {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		s.logger.Error("list admins failed", zap.Error(err))
		admins = []models.AdminSummary{}
	}
	if err := s.hub.Emit(peer, EventAdminList, admins); err != nil {
		s.logger.Error("emit admin list failed", zap.Error(err))
	}
}

// JoinAdminFeed subscribes the peer to the admin feed and sends a snapshot of
// all open sessions, each with its user and latest message.
func (s *ChatService) JoinAdminFeed(ctx context.Context, peer Peer) error {
	if id := peer.Identity(); id != nil && !id.IsAdmin() {
		return errors.New("join_admin_feed: staff only")
	}

	s.hub.Join(peer, AdminFeedRoom)
	return s.hub.Emit(peer, EventAllChatRooms, s.openSessionSnapshot(ctx))
}

func (s *ChatService) openSessionSnapshot(ctx context.Context) []models.ChatSession {
	sessions, err := s.sessions.ListOpen(ctx)
	if err != nil {
		s.logger.Error("list open sessions failed", zap.Error(err))
		return []models.ChatSession{}
	}

	for i := range sessions {
		sessions[i].Messages = []models.Message{}
		latest, err := s.messages.LatestBySession(ctx, sessions[i].ID)
		switch {
		case err == nil:
			sessions[i].Messages = append(sessions[i].Messages, *latest)
		case !errors.Is(err, repository.ErrNotFound):
			s.logger.Warn("load latest message failed",
				zap.Uint("session_id", sessions[i].ID), zap.Error(err))
		}
	}
	if sessions == nil {
		sessions = []models.ChatSession{}
	}
	return sessions
}

func nonEmpty(verified string, fallback *string) *string {
	if verified == "" {
		return fallback
	}
	return &verified
}
