package repository

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/internal/storage"
)

type UserRepository interface {
	// Upsert inserts the user or, on an sso_id conflict, overwrites only updateColumns.
	// The stored row is loaded back into user.
	Upsert(ctx context.Context, user *models.User, updateColumns []string) error
	FindBySSOID(ctx context.Context, ssoID string) (*models.User, error)
	FindByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

type userRepository struct {
	db *storage.PostgresDB
}

func NewUserRepository(db *storage.PostgresDB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User, updateColumns []string) error {
	conflict := clause.OnConflict{Columns: []clause.Column{{Name: "sso_id"}}}
	if len(updateColumns) == 0 {
		conflict.DoNothing = true
	} else {
		columns := append([]string{"updated_at"}, updateColumns...)
		conflict.DoUpdates = clause.AssignmentColumns(columns)
	}

	if err := r.db.WithContext(ctx).Clauses(conflict).Create(user).Error; err != nil {
		return err
	}
	// DO NOTHING returns no row, so read the stored record back
	stored, err := r.FindBySSOID(ctx, user.SSOID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

func (r *userRepository) FindBySSOID(ctx context.Context, ssoID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("sso_id = ?", ssoID).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("username ASC").Find(&users).Error
	return users, err
}
