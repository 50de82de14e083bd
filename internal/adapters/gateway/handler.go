package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"slack-digest-bot/internal/domain"
	"slack-digest-bot/internal/usecase/update"
)

const slashCommand = "/updateme"

// Slack повторяет доставку событий, если не получил быстрый ack; ключ
// повторной доставки живёт дольше любого разумного ретрая.
const dedupeTTL = 15 * time.Minute

// Handler обслуживает входящие HTTP-запросы Slack: слэш-команды и Events API.
// Он только строит DigestJob и кладёт её в очередь; конвейер выполняет воркер.
type Handler struct {
	log           zerolog.Logger
	chat          domain.ChatClient
	jobs          domain.DigestQueue
	cache         domain.Cache
	signingSecret string
	defaultDays   int
}

// NewHandler создаёт обработчик.
func NewHandler(logger zerolog.Logger, chat domain.ChatClient, jobs domain.DigestQueue, cache domain.Cache, signingSecret string, defaultDays int) *Handler {
	return &Handler{
		log:           logger,
		chat:          chat,
		jobs:          jobs,
		cache:         cache,
		signingSecret: signingSecret,
		defaultDays:   defaultDays,
	}
}

// Routes регистрирует эндпоинты Slack.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/slack/commands", h.handleCommand)
	r.Post("/slack/events", h.handleEvents)
}

func (h *Handler) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verifiedBody(w, r)
	if !ok {
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		h.log.Error().Err(err).Msg("gateway: не удалось разобрать слэш-команду")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if cmd.Command != slashCommand {
		h.log.Warn().Str("command", cmd.Command).Msg("gateway: неизвестная команда")
		w.WriteHeader(http.StatusOK)
		return
	}

	req, err := update.ParseSlashCommand(cmd.UserID, cmd.ChannelID, cmd.Text, h.defaultDays)
	if err != nil {
		// Ошибка ввода терминальна: подсказка уходит прямо в ответ на команду.
		h.respondText(w, update.MsgUsageCommand)
		return
	}

	job := domain.DigestJob{
		ID:                uuid.NewString(),
		RequesterID:       req.RequesterID,
		ResponseChannelID: req.SourceChannelID,
		TargetChannelID:   req.TargetChannelID,
		TargetRef:         req.TargetRef,
		WindowDays:        req.WindowDays,
		RequestedAt:       time.Now().UTC(),
		Cause:             domain.DigestCauseCommand,
	}
	if err := h.enqueueOnce(r.Context(), "command:"+cmd.TriggerID, job); err != nil {
		h.log.Error().Err(err).Str("user", cmd.UserID).Msg("gateway: не удалось поставить задачу в очередь")
		h.respondText(w, update.MsgRequestFailed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verifiedBody(w, r)
	if !ok {
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.log.Error().Err(err).Msg("gateway: не удалось разобрать событие")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge.Challenge))
		return
	case slackevents.CallbackEvent:
		if msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			h.handleMessageEvent(r.Context(), msg)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// handleMessageEvent обрабатывает личное сообщение боту. Сообщения ботов и
// служебные подтипы игнорируются, чтобы не зациклиться на собственных ответах.
func (h *Handler) handleMessageEvent(ctx context.Context, msg *slackevents.MessageEvent) {
	if msg.ChannelType != "im" || msg.BotID != "" || msg.SubType != "" {
		return
	}

	key := "event:" + msg.Channel + ":" + msg.TimeStamp
	err := h.cache.Once(key, dedupeTTL, func() error {
		req, err := update.ParseDirectMessage(msg.User, msg.Channel, msg.Text)
		if err != nil {
			h.post(ctx, msg.Channel, update.MsgUsageDM)
			return nil
		}
		job := domain.DigestJob{
			ID:                uuid.NewString(),
			RequesterID:       req.RequesterID,
			ResponseChannelID: req.SourceChannelID,
			TargetChannelID:   req.TargetChannelID,
			TargetRef:         req.TargetRef,
			WindowDays:        req.WindowDays,
			RequestedAt:       time.Now().UTC(),
			Cause:             domain.DigestCauseDirectMessage,
		}
		return h.jobs.Enqueue(ctx, job)
	})
	if err != nil {
		h.log.Error().Err(err).Str("user", msg.User).Msg("gateway: не удалось поставить задачу в очередь")
		h.post(ctx, msg.Channel, update.MsgRequestFailed)
	}
}

// verifiedBody читает тело и проверяет подпись Slack. Пустой секрет выключает
// проверку (локальная разработка).
func (h *Handler) verifiedBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	if h.signingSecret == "" {
		return body, true
	}
	verifier, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	if _, err := verifier.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return nil, false
	}
	if err := verifier.Ensure(); err != nil {
		h.log.Warn().Err(err).Msg("gateway: неверная подпись запроса")
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}
	return body, true
}

func (h *Handler) enqueueOnce(ctx context.Context, key string, job domain.DigestJob) error {
	return h.cache.Once(key, dedupeTTL, func() error {
		return h.jobs.Enqueue(ctx, job)
	})
}

func (h *Handler) respondText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"response_type": "ephemeral",
		"text":          text,
	})
}

func (h *Handler) post(ctx context.Context, channelID, text string) {
	if err := h.chat.PostMessage(ctx, channelID, text); err != nil {
		h.log.Error().Err(err).Str("channel", channelID).Msg("gateway: не удалось отправить сообщение")
	}
}
