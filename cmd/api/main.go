package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gittogether/api/internal/config"
	"gittogether/api/internal/database"
	"gittogether/api/internal/handlers"
	"gittogether/api/internal/jobs"
	"gittogether/api/internal/log"
	"gittogether/api/internal/queue"
	"gittogether/api/internal/realtime"
	"gittogether/api/internal/repository"
	"gittogether/api/internal/repository/memory"
	"gittogether/api/internal/security"
	"gittogether/api/internal/server"
	"gittogether/api/internal/service"
	"gittogether/api/internal/storage"
)

type stores struct {
	users    service.UserStore
	requests service.RequestStore
	chats    service.ChatStore
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel)

	ctx := context.Background()
	health := map[string]handlers.HealthCheck{}

	var (
		dbPool *pgxpool.Pool
		st     stores
	)
	switch cfg.StorageDriver {
	case "memory":
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		mem := memory.NewStore()
		st = stores{users: mem.Users(), requests: mem.Requests(), chats: mem.Chats()}
	default:
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		if cfg.Postgres.Migrate {
			if err := database.Migrate(ctx, dbPool); err != nil {
				logger.Fatal().Err(err).Msg("failed to migrate schema")
			}
		}
		st = stores{
			users:    repository.NewUserRepository(dbPool),
			requests: repository.NewRequestRepository(dbPool),
			chats:    repository.NewChatRepository(dbPool),
		}
		health["database"] = dbPool.Ping
	}

	var (
		redisClient *redis.Client
		producer    *queue.Producer
	)
	redisClient, err = queue.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		if cfg.Environment == "production" {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		logger.Warn().Err(err).Msg("redis unavailable, background tasks disabled")
	} else {
		producer = queue.NewProducer(redisClient, cfg.Queue.Stream)
		health["cache"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var objectStore *storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		objectStore, err = storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
	}

	hasher := security.NewPasswordHasher(security.DefaultParams)
	tokens := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.JWTTTL)

	// Typed nil pointers must not reach the optional interfaces.
	var images service.ImageChecker
	var photos handlers.PhotoSigner
	if objectStore != nil {
		images = objectStore
		photos = objectStore
	}
	var tasks handlers.Enqueuer
	if producer != nil {
		tasks = producer
	}

	authService := service.NewAuthService(st.users, hasher, tokens, images, logger)
	requestService := service.NewRequestService(st.users, st.requests, logger)
	chatService := service.NewChatService(st.requests, st.chats, logger)

	gateway := realtime.NewGateway(chatService, realtime.NewHub(), logger)
	wsHandler := realtime.NewHandler(authService, gateway, cfg.Realtime, cfg.AllowCORSOrigins, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, handlers.Deps{
		Auth:     authService,
		Requests: requestService,
		Chats:    chatService,
		Realtime: wsHandler,
		Photos:   photos,
		Tasks:    tasks,
		Health:   health,
	})
	httpServer, err := server.NewHTTPServer(cfg, logger, handlerSet)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build http server")
	}

	scheduler := jobs.NewScheduler(tasks, cfg.Jobs.PendingReminderSpec, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop(shutdownCtx)

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
