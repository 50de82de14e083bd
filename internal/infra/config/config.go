package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"3000"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	Slack struct {
		BotToken      string `envconfig:"SLACK_BOT_TOKEN"`
		SigningSecret string `envconfig:"SLACK_SIGNING_SECRET"`
	} `envconfig:""`

	LLM struct {
		APIKey      string        `envconfig:"GROQ_API_KEY"`
		BaseURL     string        `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
		Model       string        `envconfig:"LLM_MODEL" default:"llama-3.1-8b-instant"`
		MaxTokens   int           `envconfig:"LLM_MAX_TOKENS" default:"500"`
		Temperature float64       `envconfig:"LLM_TEMPERATURE" default:"0.7"`
		Instruction string        `envconfig:"LLM_SYSTEM_INSTRUCTION"`
		Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`

	Digest struct {
		DefaultWindowDays int `envconfig:"DIGEST_DEFAULT_WINDOW_DAYS" default:"7"`
		PageSize          int `envconfig:"HISTORY_PAGE_SIZE" default:"100"`
	} `envconfig:""`

	Queues struct {
		Backend string `envconfig:"QUEUE_BACKEND" default:"redis"`
		Digest  string `envconfig:"DIGEST_QUEUE_KEY" default:"digest_jobs"`
	} `envconfig:""`

	Worker struct {
		Concurrency int `envconfig:"WORKER_CONCURRENCY" default:"4"`
	} `envconfig:""`

	Scheduler struct {
		Interval time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"1m"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
