package repository

import "github.com/IMPACT-HRIS/IM-Chat/internal/storage"

type Repositories struct {
	User        UserRepository
	ChatSession ChatSessionRepository
	Message     MessageRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		ChatSession: NewChatSessionRepository(db),
		Message:     NewMessageRepository(db),
	}
}
