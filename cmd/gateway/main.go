package main

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"slack-digest-bot/internal/adapters/gateway"
	"slack-digest-bot/internal/adapters/slackapi"
	"slack-digest-bot/internal/domain"
	"slack-digest-bot/internal/infra/cache"
	"slack-digest-bot/internal/infra/config"
	applog "slack-digest-bot/internal/infra/log"
	"slack-digest-bot/internal/infra/metrics"
	"slack-digest-bot/internal/infra/queue"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	if cfg.RedisAddr == "" {
		logger.Fatal().Msg("gateway: не указан адрес Redis (REDIS_ADDR)")
	}
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cacheAdapter := cache.NewRedis(redisClient)

	digestQueue := newDigestQueue(cfg, redisClient, logger)

	if cfg.Slack.BotToken == "" {
		logger.Fatal().Msg("gateway: не указан токен Slack (SLACK_BOT_TOKEN)")
	}
	chatClient := slackapi.New(cfg.Slack.BotToken, logger.With().Str("component", "slack").Logger())

	h := gateway.NewHandler(logger, chatClient, digestQueue, cacheAdapter, cfg.Slack.SigningSecret, cfg.Digest.DefaultWindowDays)

	r := chi.NewRouter()
	h.Routes(r)

	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.Port), Handler: r}
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("gateway: запущен")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("gateway: HTTP сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("gateway: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newDigestQueue(cfg config.AppConfig, redisClient *redis.Client, logger zerolog.Logger) domain.DigestQueue {
	switch cfg.Queues.Backend {
	case "amqp":
		q, err := queue.NewAMQPDigestQueue(cfg.AMQPURL, cfg.Queues.Digest)
		if err != nil {
			logger.Fatal().Err(err).Msg("gateway: не удалось инициализировать очередь AMQP")
		}
		return q
	default:
		return queue.NewRedisDigestQueue(redisClient, cfg.Queues.Digest)
	}
}
