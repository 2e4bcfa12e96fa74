package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/IMPACT-HRIS/IM-Chat/internal/models"
	"github.com/IMPACT-HRIS/IM-Chat/pkg/config"
)

// openSessionIndex keeps at most one non-closed session per user. A racing
// insert is rejected by the database instead of relying on in-process locks.
const openSessionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_chat_sessions_open_user
	ON chat_sessions (user_id) WHERE status <> 'closed'`

type PostgresDB struct {
	*gorm.DB
}

func NewPostgresDB(cfg config.DBConfig) (*PostgresDB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode, cfg.TimeZone)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// maps unique violations to gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgresDB{DB: db}, nil
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate creates or updates tables for the given models
func (db *PostgresDB) AutoMigrate(models ...interface{}) error {
	return db.DB.AutoMigrate(models...)
}

// Migrate creates the chat tables and the open-session guard.
func (db *PostgresDB) Migrate() error {
	if err := db.AutoMigrate(&models.User{}, &models.ChatSession{}, &models.Message{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(openSessionIndex).Error; err != nil {
		return fmt.Errorf("create open session index: %w", err)
	}
	return nil
}
