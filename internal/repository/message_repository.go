package repository

import (
	"context"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/storage"
)

type MessageRepository interface {
	// Create stores the message and loads its sender.
	Create(ctx context.Context, message *models.Message) error
	// ListRecentBySession returns the newest limit messages, oldest first.
	ListRecentBySession(ctx context.Context, sessionID uint, limit int) ([]models.Message, error)
	LatestBySession(ctx context.Context, sessionID uint) (*models.Message, error)
}

type messageRepository struct {
	db *storage.PostgresDB
}

func NewMessageRepository(db *storage.PostgresDB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Omit("Sender").Create(message).Error; err != nil {
		return err
	}
	if message.SenderID == nil {
		return nil
	}
	return translate(r.db.WithContext(ctx).Preload("Sender").First(message, message.ID).Error)
}

func (r *messageRepository) ListRecentBySession(ctx context.Context, sessionID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("chat_session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *messageRepository) LatestBySession(ctx context.Context, sessionID uint) (*models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Where("chat_session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		First(&message).Error
	if err != nil {
		return nil, translate(err)
	}
	return &message, nil
}
