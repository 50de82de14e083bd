package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"slack-digest-bot/internal/adapters/repo"
	"slack-digest-bot/internal/adapters/slackapi"
	"slack-digest-bot/internal/adapters/summarizer"
	"slack-digest-bot/internal/domain"
	"slack-digest-bot/internal/infra/config"
	"slack-digest-bot/internal/infra/db"
	applog "slack-digest-bot/internal/infra/log"
	"slack-digest-bot/internal/infra/metrics"
	"slack-digest-bot/internal/infra/openai"
	"slack-digest-bot/internal/infra/queue"
	"slack-digest-bot/internal/usecase/update"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	// Персистентность опциональна: без PG_DSN воркер работает без настроек
	// пользователей и без журнала сообщений.
	var prefsRepo domain.PreferencesRepo
	var historyRepo domain.HistoryRepo
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: нет подключения к БД")
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("worker: не удалось подготовить схему БД")
		}
		pg := repo.NewPostgres(pool)
		prefsRepo = pg
		historyRepo = pg
	} else {
		logger.Warn().Msg("worker: PG_DSN не задан, история и настройки выключены")
	}

	if cfg.Slack.BotToken == "" {
		logger.Fatal().Msg("worker: не указан токен Slack (SLACK_BOT_TOKEN)")
	}
	chatClient := slackapi.New(cfg.Slack.BotToken, logger.With().Str("component", "slack").Logger())

	if cfg.LLM.APIKey == "" {
		logger.Fatal().Msg("worker: не указан ключ LLM (GROQ_API_KEY)")
	}
	llmClient := openai.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	summarizerAdapter := summarizer.NewOpenAI(llmClient, cfg.LLM.Model, cfg.LLM.Instruction, cfg.LLM.MaxTokens, cfg.LLM.Temperature, cfg.LLM.Timeout)

	svc := update.NewService(chatClient, prefsRepo, historyRepo, summarizerAdapter, logger, cfg.Digest.PageSize)

	digestQueue := newDigestQueue(cfg, logger)

	concurrency := cfg.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	logger.Info().Int("concurrency", concurrency).Msg("worker: запуск обработки очереди")
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runLoop(ctx, logger.With().Int("worker", id).Logger(), digestQueue, svc)
		}(i)
	}
	wg.Wait()
	logger.Info().Msg("worker: остановлен")
}

func runLoop(ctx context.Context, logger zerolog.Logger, jobs domain.DigestQueue, svc *update.Service) {
	for {
		job, err := jobs.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error().Err(err).Msg("worker: ошибка чтения очереди")
			time.Sleep(time.Second)
			continue
		}
		logger.Info().
			Str("job", job.ID).
			Str("cause", string(job.Cause)).
			Str("user", job.RequesterID).
			Msg("worker: получена задача")
		svc.Run(ctx, job)
	}
}

func newDigestQueue(cfg config.AppConfig, logger zerolog.Logger) domain.DigestQueue {
	switch cfg.Queues.Backend {
	case "amqp":
		q, err := queue.NewAMQPDigestQueue(cfg.AMQPURL, cfg.Queues.Digest)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: не удалось инициализировать очередь AMQP")
		}
		return q
	default:
		if cfg.RedisAddr == "" {
			logger.Fatal().Msg("worker: не указан адрес Redis (REDIS_ADDR)")
		}
		return queue.NewRedisDigestQueue(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.Queues.Digest)
	}
}
