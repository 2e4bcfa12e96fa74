package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/storage"
)

type ChatSessionRepository interface {
	FindOpenByUser(ctx context.Context, userID uint) (*models.ChatSession, error)
	FindByID(ctx context.Context, id uint) (*models.ChatSession, error)
	// Create returns ErrOpenSessionExists when the open-session guard rejects the insert.
	Create(ctx context.Context, session *models.ChatSession) error
	// Touch bumps updated_at and returns the session with its user loaded.
	Touch(ctx context.Context, id uint) (*models.ChatSession, error)
	// UpdateStatusByUser moves every non-closed session of the user to status
	// and returns the ids it changed.
	UpdateStatusByUser(ctx context.Context, userID uint, status models.SessionStatus) ([]uint, error)
	// ListOpen returns non-closed sessions with their users, most recently updated first.
	ListOpen(ctx context.Context) ([]models.ChatSession, error)
}

type chatSessionRepository struct {
	db *storage.PostgresDB
}

func NewChatSessionRepository(db *storage.PostgresDB) ChatSessionRepository {
	return &chatSessionRepository{db: db}
}

func (r *chatSessionRepository) FindOpenByUser(ctx context.Context, userID uint) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, models.SessionClosed).
		Order("updated_at DESC").
		First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *chatSessionRepository) FindByID(ctx context.Context, id uint) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *chatSessionRepository) Create(ctx context.Context, session *models.ChatSession) error {
	err := r.db.WithContext(ctx).Create(session).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrOpenSessionExists
	}
	return err
}

func (r *chatSessionRepository) Touch(ctx context.Context, id uint) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ChatSession{}).Where("id = ?", id).Update("updated_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Preload("User").First(&session, id).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *chatSessionRepository) UpdateStatusByUser(ctx context.Context, userID uint, status models.SessionStatus) ([]uint, error) {
	var updated []models.ChatSession
	err := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("user_id = ? AND status <> ?", userID, models.SessionClosed).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(updated))
	for _, s := range updated {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (r *chatSessionRepository) ListOpen(ctx context.Context) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status <> ?", models.SessionClosed).
		Order("updated_at DESC").
		Find(&sessions).Error
	return sessions, err
}
