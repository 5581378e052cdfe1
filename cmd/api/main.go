package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/edforge/lms-api/internal/config"
	"github.com/edforge/lms-api/internal/email"
	"github.com/edforge/lms-api/internal/handler"
	aiHandler "github.com/edforge/lms-api/internal/handler/ai"
	authHandler "github.com/edforge/lms-api/internal/handler/auth"
	contentHandler "github.com/edforge/lms-api/internal/handler/content"
	quizHandler "github.com/edforge/lms-api/internal/handler/quiz"
	uploadHandler "github.com/edforge/lms-api/internal/handler/upload"
	"github.com/edforge/lms-api/internal/middleware"
	"github.com/edforge/lms-api/internal/repository/postgres"
	"github.com/edforge/lms-api/internal/router"
	aiService "github.com/edforge/lms-api/internal/service/ai"
	authService "github.com/edforge/lms-api/internal/service/auth"
	contentService "github.com/edforge/lms-api/internal/service/content"
	quizService "github.com/edforge/lms-api/internal/service/quiz"
	"github.com/edforge/lms-api/internal/worker"
	"github.com/edforge/lms-api/pkg/auth"
	"github.com/edforge/lms-api/pkg/messaging/redis"
	"github.com/edforge/lms-api/pkg/metrics"
	"github.com/edforge/lms-api/pkg/ratelimit"
	"github.com/edforge/lms-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisOpts, err := goredis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid redis url")
	}
	redisClient := goredis.NewClient(redisOpts)
	defer redisClient.Close()

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(baseRepo)
	tokenRepo := postgres.NewTokenRepository(baseRepo)
	contentRepo := postgres.NewContentRepository(baseRepo)
	quizRepo := postgres.NewQuizRepository(baseRepo)
	uploadRepo := postgres.NewUploadRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	// Rate limiting. Falls back to the in-process store when Redis is
	// unreachable at startup.
	var store ratelimit.Store
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, using in-memory rate limit store")
		store = ratelimit.NewMemoryStore()
	} else {
		store = ratelimit.NewRedisStore(redisClient)
	}
	limiter := ratelimit.New(store, nil)

	m := metrics.NewMetrics("lms", "api")

	// Services
	jwtSvc := auth.NewJWTService(cfg.JWT)
	emailSvc := email.NewSMTPService(cfg.Email, cfg.Email.BaseURL)
	validator := security.NewValidator()
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost, cfg.Security.MaxConcurrentHash)
	broker := redis.NewBroker(redisClient)
	defer broker.Close()

	authSvc := authService.NewService(userRepo, tokenRepo, jwtSvc, emailSvc,
		validator, hasher, cfg.Security.PasswordMaxAge)
	contentSvc := contentService.NewService(contentRepo, outboxRepo)
	quizSvc := quizService.NewService(quizRepo, outboxRepo)
	aiSvc := aiService.NewService(broker)

	// Middleware and handlers
	authMW := middleware.NewAuthMiddleware(jwtSvc)
	rlMW := middleware.NewRateLimitMiddleware(limiter, m)

	h := handler.NewHandler(db, redisClient)
	r := router.NewRouter(
		authMW,
		rlMW,
		authHandler.NewHandler(authSvc),
		contentHandler.NewHandler(contentSvc),
		quizHandler.NewHandler(quizSvc),
		uploadHandler.NewHandler(uploadRepo, "uploads"),
		aiHandler.NewHandler(aiSvc),
		h,
		router.Config{
			IngressRate:   rate.Limit(500),
			IngressBurst:  1000,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "lms_api",
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background maintenance
	go worker.NewTokenCleanupWorker(tokenRepo, time.Hour).Start(ctx)

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
