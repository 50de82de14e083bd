package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"slack-digest-bot/internal/adapters/repo"
	"slack-digest-bot/internal/domain"
	"slack-digest-bot/internal/infra/cache"
	"slack-digest-bot/internal/infra/config"
	"slack-digest-bot/internal/infra/db"
	applog "slack-digest-bot/internal/infra/log"
	"slack-digest-bot/internal/infra/metrics"
	"slack-digest-bot/internal/infra/queue"
)

// Автодайджест ставится не чаще раза в сутки на пользователя; ключ
// идемпотентности живёт дольше суток на случай сдвига часов.
const autoDigestTTL = 48 * time.Hour

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("scheduler: не указан DSN БД (PG_DSN)")
	}
	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: нет подключения к БД")
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось подготовить схему БД")
	}
	repoAdapter := repo.NewPostgres(pool)

	if cfg.RedisAddr == "" {
		logger.Fatal().Msg("scheduler: не указан адрес Redis (REDIS_ADDR)")
	}
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cacheAdapter := cache.NewRedis(redisClient)

	digestQueue := newDigestQueue(cfg, redisClient, logger)

	logger.Info().Dur("interval", cfg.Scheduler.Interval).Msg("scheduler: запущен")
	ticker := time.NewTicker(cfg.Scheduler.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduler: остановлен")
			return
		case <-ticker.C:
			sweep(ctx, logger, repoAdapter, cacheAdapter, digestQueue)
		}
	}
}

// sweep ставит по одной задаче в сутки каждому пользователю с включённым
// автодайджестом. Идемпотентность обеспечивает ключ в Redis, поэтому
// интервал тикера может быть сколь угодно частым.
func sweep(ctx context.Context, logger zerolog.Logger, prefs domain.PreferencesRepo, guard domain.Cache, jobs domain.DigestQueue) {
	users, err := prefs.ListAutoSummaryUsers(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("scheduler: ошибка выборки пользователей")
		return
	}

	day := time.Now().UTC().Format("2006-01-02")
	for _, user := range users {
		key := "auto_digest:" + user.UserID + ":" + day
		err := guard.Once(key, autoDigestTTL, func() error {
			return jobs.Enqueue(ctx, domain.DigestJob{
				ID:          uuid.NewString(),
				RequesterID: user.UserID,
				WindowDays:  1,
				Monitored:   true,
				RequestedAt: time.Now().UTC(),
				Cause:       domain.DigestCauseScheduled,
			})
		})
		if err != nil {
			logger.Error().Err(err).Str("user", user.UserID).Msg("scheduler: не удалось поставить автодайджест")
		}
	}
}

func newDigestQueue(cfg config.AppConfig, redisClient *redis.Client, logger zerolog.Logger) domain.DigestQueue {
	switch cfg.Queues.Backend {
	case "amqp":
		q, err := queue.NewAMQPDigestQueue(cfg.AMQPURL, cfg.Queues.Digest)
		if err != nil {
			logger.Fatal().Err(err).Msg("scheduler: не удалось инициализировать очередь AMQP")
		}
		return q
	default:
		return queue.NewRedisDigestQueue(redisClient, cfg.Queues.Digest)
	}
}
