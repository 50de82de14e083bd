package slackapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"slack-digest-bot/internal/domain"
	"slack-digest-bot/internal/infra/metrics"
)

// Client реализует domain.ChatClient поверх Slack Web API.
type Client struct {
	api *slack.Client
	log zerolog.Logger
}

var _ domain.ChatClient = (*Client)(nil)

// New создаёт клиента Slack.
func New(token string, logger zerolog.Logger) *Client {
	return &Client{api: slack.New(token), log: logger}
}

// JoinChannel пытается вступить в канал. «already_in_channel» и прочие отказы
// отдаются вызывающему как есть: решение о фатальности принимает резолвер.
func (c *Client) JoinChannel(ctx context.Context, channelID string) error {
	start := time.Now()
	_, _, _, err := c.api.JoinConversationContext(ctx, channelID)
	metrics.ObserveNetworkRequest("slack", "conversations_join", channelID, start, err)
	return err
}

// FetchHistory возвращает одну страницу истории канала, от новых к старым.
func (c *Client) FetchHistory(ctx context.Context, channelID string, oldest int64, limit int, cursor string) (domain.HistoryPage, error) {
	params := slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Oldest:    strconv.FormatInt(oldest, 10),
		Limit:     limit,
		Cursor:    cursor,
	}
	start := time.Now()
	resp, err := c.api.GetConversationHistoryContext(ctx, &params)
	metrics.ObserveNetworkRequest("slack", "conversations_history", channelID, start, err)
	if err != nil {
		return domain.HistoryPage{}, err
	}

	page := domain.HistoryPage{
		Messages:   make([]domain.RawMessage, 0, len(resp.Messages)),
		HasMore:    resp.HasMore,
		NextCursor: resp.ResponseMetaData.NextCursor,
	}
	for _, msg := range resp.Messages {
		page.Messages = append(page.Messages, domain.RawMessage{
			AuthorID:  msg.User,
			Text:      msg.Text,
			Timestamp: parseTimestamp(msg.Timestamp),
		})
	}
	return page, nil
}

// PostMessage отправляет текст, разбивая его на части при превышении лимита.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	for _, chunk := range SplitMessage(text) {
		start := time.Now()
		_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(chunk, false))
		metrics.ObserveNetworkRequest("slack", "chat_post_message", channelID, start, err)
		if err != nil {
			return err
		}
	}
	return nil
}

// OpenDirectChannel открывает личный диалог с пользователем.
func (c *Client) OpenDirectChannel(ctx context.Context, userID string) (string, error) {
	start := time.Now()
	channel, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{userID},
		ReturnIM: true,
	})
	metrics.ObserveNetworkRequest("slack", "conversations_open", userID, start, err)
	if err != nil {
		return "", err
	}
	if channel == nil || channel.ID == "" {
		return "", errors.New("slack: conversations.open вернул пустой канал")
	}
	return channel.ID, nil
}

// parseTimestamp переводит слаковский ts вида «1700000000.000100» в unix-секунды.
func parseTimestamp(ts string) int64 {
	value, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0
	}
	return int64(value)
}
