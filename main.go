package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/IMPACT-HRIS/IM-Chat/internal/api"
	"github.com/IMPACT-HRIS/IM-Chat/internal/logger"
	"github.com/IMPACT-HRIS/IM-Chat/internal/repository"
	"github.com/IMPACT-HRIS/IM-Chat/internal/repository/memory"
	"github.com/IMPACT-HRIS/IM-Chat/internal/service"
	"github.com/IMPACT-HRIS/IM-Chat/internal/storage"
	"github.com/IMPACT-HRIS/IM-Chat/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repos *repository.Repositories
	switch cfg.DB.Driver {
	case "memory":
		log.Warn("using in-memory store, chat history is lost on restart")
		repos = memory.NewRepositories()
	default:
		db, err := storage.NewPostgresDB(cfg.DB)
		if err != nil {
			log.Fatal("failed to initialize database", zap.Error(err))
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		repos = repository.NewRepositories(db)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = storage.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	services := service.NewServices(repos, cfg.Chat, redisClient, cfg.Redis.Channel, log)
	defer services.AutoResponder.Stop()

	if services.Relay != nil {
		go func() {
			if err := services.Relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("room relay stopped", zap.Error(err))
				stop()
			}
		}()
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	api.SetupRoutes(r, services, cfg.Auth, log)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		log.Info("chat server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to run server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
