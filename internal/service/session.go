package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/repository"
)

const defaultHistoryLimit = 50

// IdentityHints describes who is joining. Nil display fields leave the stored values untouched.
type IdentityHints struct {
	SSOID     string
	Username  *string
	FirstName *string
	LastName  *string
	Role      models.UserRole // set only from a verified identity
}

// JoinResult is what a successful join resolves to.
type JoinResult struct {
	User    *models.User
	Session *models.ChatSession
	History []models.Message
}

// SessionResolver maps an SSO identity to a local user and that user's single open session.
type SessionResolver struct {
	users        repository.UserRepository
	sessions     repository.ChatSessionRepository
	messages     repository.MessageRepository
	historyLimit int
	logger       *zap.Logger
}

func NewSessionResolver(repos *repository.Repositories, historyLimit int, logger *zap.Logger) *SessionResolver {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &SessionResolver{
		users:        repos.User,
		sessions:     repos.ChatSession,
		messages:     repos.Message,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// ResolveUser upserts the user by SSO id and falls back to a plain lookup if the upsert fails.
func (r *SessionResolver) ResolveUser(ctx context.Context, hints IdentityHints) (*models.User, error) {
	ssoID := strings.TrimSpace(hints.SSOID)
	if ssoID == "" {
		return nil, &UserResolutionError{SSOID: ssoID, Err: errMissingIdentity}
	}

	user := &models.User{
		SSOID:     ssoID,
		Username:  ssoID,
		FirstName: hints.FirstName,
		LastName:  hints.LastName,
		Role:      models.RoleUser,
	}
	var columns []string
	if hints.Username != nil && *hints.Username != "" {
		user.Username = *hints.Username
		columns = append(columns, "username")
	}
	if hints.FirstName != nil {
		columns = append(columns, "first_name")
	}
	if hints.LastName != nil {
		columns = append(columns, "last_name")
	}
	if hints.Role != "" {
		user.Role = hints.Role
		columns = append(columns, "role")
	}

	upsertErr := r.users.Upsert(ctx, user, columns)
	if upsertErr == nil {
		return user, nil
	}
	r.logger.Warn("user upsert failed, falling back to lookup",
		zap.String("sso_id", ssoID), zap.Error(upsertErr))

	existing, err := r.users.FindBySSOID(ctx, ssoID)
	if err != nil {
		return nil, &UserResolutionError{SSOID: ssoID, Err: errors.Join(upsertErr, err)}
	}
	return existing, nil
}

// ResolveSession returns the user's non-closed session, creating an active one if none exists.
// When a concurrent join wins the insert, the winner's session is returned.
func (r *SessionResolver) ResolveSession(ctx context.Context, userID uint) (*models.ChatSession, error) {
	session, err := r.sessions.FindOpenByUser(ctx, userID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, &SessionResolutionError{UserID: userID, Err: err}
	}

	session = &models.ChatSession{UserID: userID, Status: models.SessionActive}
	err = r.sessions.Create(ctx, session)
	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, repository.ErrOpenSessionExists):
		existing, findErr := r.sessions.FindOpenByUser(ctx, userID)
		if findErr != nil {
			return nil, &SessionResolutionError{UserID: userID, Err: findErr}
		}
		return existing, nil
	default:
		return nil, &SessionResolutionError{UserID: userID, Err: err}
	}
}

// Join resolves user and session and loads the most recent history, oldest first.
// A history read failure is logged and yields an empty history.
func (r *SessionResolver) Join(ctx context.Context, hints IdentityHints) (*JoinResult, error) {
	user, err := r.ResolveUser(ctx, hints)
	if err != nil {
		return nil, err
	}
	session, err := r.ResolveSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	history, err := r.messages.ListRecentBySession(ctx, session.ID, r.historyLimit)
	if err != nil {
		r.logger.Error("load chat history failed",
			zap.Uint("session_id", session.ID), zap.Error(err))
		history = []models.Message{}
	}
	if history == nil {
		history = []models.Message{}
	}

	return &JoinResult{User: user, Session: session, History: history}, nil
}
