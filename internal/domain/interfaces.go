package domain

import (
	"context"
	"time"
)

// HistoryPage — одна страница истории канала. NextCursor позволяет
// дочитать остаток, если платформа обрезала выдачу.
type HistoryPage struct {
	Messages   []RawMessage
	HasMore    bool
	NextCursor string
}

// ChatClient — порт чат-платформы: вступление в канал, чтение истории,
// отправка сообщений.
type ChatClient interface {
	// JoinChannel пытается вступить в канал. Ошибка не означает, что
	// история недоступна: бот может уже состоять в канале.
	JoinChannel(ctx context.Context, channelID string) error
	// FetchHistory возвращает сообщения канала с timestamp >= oldest,
	// от новых к старым, не более limit штук за страницу.
	FetchHistory(ctx context.Context, channelID string, oldest int64, limit int, cursor string) (HistoryPage, error)
	// PostMessage отправляет текст в канал.
	PostMessage(ctx context.Context, channelID, text string) error
	// OpenDirectChannel открывает (или находит) личный диалог с пользователем.
	OpenDirectChannel(ctx context.Context, userID string) (string, error)
}

// Summarizer строит краткую сводку по упорядоченному списку текстов.
type Summarizer interface {
	Summarize(ctx context.Context, texts []string) (string, error)
}

// PreferencesRepo читает настройки автодайджеста.
type PreferencesRepo interface {
	// GetPreferences возвращает настройки пользователя и признак их наличия.
	GetPreferences(ctx context.Context, userID string) (UserPreferences, bool, error)
	// ListAutoSummaryUsers возвращает пользователей с включённым автодайджестом.
	ListAutoSummaryUsers(ctx context.Context) ([]UserPreferences, error)
}

// HistoryRepo пишет журнал доставленных сообщений.
type HistoryRepo interface {
	// SaveBatch сохраняет пачку сообщений одной транзакцией:
	// либо фиксируются все строки, либо ни одной.
	SaveBatch(ctx context.Context, channelID, userID string, msgs []FilteredMessage) error
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	// Once выполняет функцию, если ключ ещё не занят, и снимает ключ при ошибке.
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
