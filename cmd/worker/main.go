package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/edforge/lms-api/internal/config"
	"github.com/edforge/lms-api/internal/repository/postgres"
	aiService "github.com/edforge/lms-api/internal/service/ai"
	internalworker "github.com/edforge/lms-api/internal/worker"
	"github.com/edforge/lms-api/pkg/logger"
	"github.com/edforge/lms-api/pkg/messaging"
	"github.com/edforge/lms-api/pkg/messaging/redis"
	"github.com/edforge/lms-api/pkg/metrics"
	"github.com/edforge/lms-api/pkg/worker"
)

// WorkerConfig is set through WORKER_* environment variables; deployment
// knobs for the worker stay out of the API's config file.
type WorkerConfig struct {
	BatchSize     int           `envconfig:"BATCH_SIZE" default:"50"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
	RetryAttempts int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryDelay    time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
	HealthPort    string        `envconfig:"HEALTH_PORT" default:":8081"`
	CleanupEvery  time.Duration `envconfig:"CLEANUP_EVERY" default:"1h"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var wcfg WorkerConfig
	if err := envconfig.Process("worker", &wcfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	lg := logger.NewLogger(nil)

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

	broker := redis.NewBroker(redisClient)
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)
	tokenRepo := postgres.NewTokenRepository(baseRepo)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     wcfg.BatchSize,
			PollInterval:  wcfg.PollInterval,
			RetryAttempts: wcfg.RetryAttempts,
			RetryDelay:    wcfg.RetryDelay,
		},
		lg,
		metrics.NewMetrics("lms", "worker"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume queued AI generation jobs. Generation itself is pluggable;
	// the default just logs until a provider is wired in.
	if err := broker.Subscribe(ctx, aiService.TopicAI, func(ctx context.Context, msg *messaging.Message) error {
		job, err := aiService.DecodeJob(msg)
		if err != nil {
			return err
		}
		lg.Info("received generation job",
			"job_id", job.ID.String(),
			"kind", job.Kind,
			"subchapter_id", job.SubchapterID.String())
		return nil
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to generation queue")
	}

	go internalworker.NewTokenCleanupWorker(tokenRepo, wcfg.CleanupEvery).Start(ctx)

	setupHealthCheck(wcfg.HealthPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		lg.Info("shutting down worker")
		cancel()
	}()

	processor.Start(ctx)
}

func setupHealthCheck(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}
