package service

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/IMPACT-HRIS/IM-Chat/internal/repository"
	"github.com/IMPACT-HRIS/IM-Chat/pkg/config"
)

type Services struct {
	UserService   *UserService
	ChatService   *ChatService
	Hub           *Hub
	AutoResponder *AutoResponder
	// Relay is set when Redis fan-out is enabled; the caller runs it.
	Relay *RedisRelay
}

// NewServices wires the chat engine. With a nil redisClient, room broadcasts stay in this process.
func NewServices(repos *repository.Repositories, cfg config.ChatConfig, redisClient *redis.Client, redisChannel string, logger *zap.Logger) *Services {
	hub := NewHub(logger.Named("hub"))

	var out Broadcaster = hub
	var relay *RedisRelay
	if redisClient != nil {
		relay = NewRedisRelay(redisClient, redisChannel, hub, logger.Named("relay"))
		out = relay
	}

	userService := NewUserService(repos.User)
	responder := NewAutoResponder(repos, out, cfg.AutoReplyDelay, cfg.AutoReplyMessage, logger.Named("auto_responder"))

	helpNotice := cfg.HelpNotice
	if helpNotice == "" {
		helpNotice = defaultHelpNotice
	}

	chatService := &ChatService{
		resolver:   NewSessionResolver(repos, cfg.HistoryLimit, logger.Named("resolver")),
		users:      userService,
		sessions:   repos.ChatSession,
		messages:   repos.Message,
		userRepo:   repos.User,
		hub:        hub,
		out:        out,
		responder:  responder,
		helpNotice: helpNotice,
		logger:     logger.Named("chat"),
	}

	return &Services{
		UserService:   userService,
		ChatService:   chatService,
		Hub:           hub,
		AutoResponder: responder,
		Relay:         relay,
	}
}
