package main

import (
	"context"
	"log"
	"time"

	"helpbridge/config"
	"helpbridge/internal/handler"
	"helpbridge/internal/outbox"
	"helpbridge/internal/proxy"
	"helpbridge/internal/redis"
	"helpbridge/internal/repository"
	"helpbridge/internal/server"
	"helpbridge/internal/services"
	"helpbridge/internal/storage"
	"helpbridge/internal/websocket"
	"helpbridge/pkg/database"
	"helpbridge/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.LogMode)
	defer l.Sync()
	logger.SetGlobalLogger(l)
	zap.ReplaceGlobals(l.Logger)

	database.Connect(cfg)
	defer database.Close()

	if err := repository.InitSchema(database.DB); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := redis.NewClient(redis.ConfigFrom(cfg))
	defer redisClient.Close()
	if err := redis.HealthCheck(ctx, redisClient); err != nil {
		l.Warnf("Redis is not reachable yet: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(database.DB)
	requestRepo := repository.NewRequestRepository(database.DB)
	matchRepo := repository.NewMatchRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)
	outboxRepo := repository.NewOutboxRepository(database.DB)
	uow := repository.NewUnitOfWork(database.DB)

	// Redis backed infrastructure
	publisher := redis.NewPublisher(redisClient)
	subscriber := redis.NewSubscriber(redisClient)
	cache := redis.NewCacheStore(redisClient, time.Duration(cfg.MatchCacheTTLMin)*time.Minute)
	limiter := redis.NewRateLimiter(redisClient, redis.RateLimitConfig{
		MessageLimit:   cfg.RateLimitMessages,
		RequestLimit:   cfg.RateLimitRequests,
		WebSocketLimit: cfg.RateLimitWebSocket,
		Window:         time.Minute,
	})

	presence := redis.NewPresenceStore(redisClient, 0)

	var images services.ImageSigner
	if cfg.S3Enabled() {
		s3Client, err := storage.NewClient(ctx, storage.S3ConfigFrom(cfg))
		if err != nil {
			l.Warnf("Profile image signing disabled: %v", err)
		} else {
			images = s3Client
		}
	}

	// Services
	access := proxy.NewAccessControl(matchRepo, cache)
	authService := services.NewAuthService(cfg)
	userService := services.NewUserService(userRepo, images)
	requestService := services.NewRequestService(requestRepo, uow)
	matchService := services.NewMatchService(matchRepo, messageRepo, uow, access, userService)
	matchService.SetPresence(presence)
	messageService := services.NewMessageService(messageRepo, matchRepo, access, websocket.NewRedisFanout(publisher))

	// Realtime
	hub := websocket.NewHub()
	bridge := websocket.NewRedisBridge(subscriber, hub)
	go bridge.Run(ctx)

	outbox.NewRunner(outbox.ProcessorFromConfig(cfg, outboxRepo, publisher)).Start(ctx)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Requests:  handler.NewRequestHandler(requestService),
		Matches:   handler.NewMatchHandler(matchService),
		Messages:  handler.NewMessageHandler(messageService),
		Users:     handler.NewUserHandler(userService),
		WebSocket: websocket.NewHandler(hub, access, cfg.CORSOrigins).WithPresence(presence),
	}, server.Deps{
		Auth:    authService,
		Limiter: limiter,
		Health: map[string]func(context.Context) error{
			"postgres": func(context.Context) error { return database.HealthCheck() },
			"redis":    func(ctx context.Context) error { return redis.HealthCheck(ctx, redisClient) },
		},
	})

	if err := srv.Start(cancel); err != nil {
		l.Errorf("Server stopped with error: %v", err)
	}
}
