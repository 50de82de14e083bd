package update

import (
	"strings"

	"slack-digest-bot/internal/domain"
)

// Broadcast-маркеры платформы считаются упоминанием для целей релевантности.
var broadcastMarkers = []string{"@channel", "@here"}

// Annotate размечает сообщения признаками релевантности для пользователя.
// Порядок входа сохраняется; функция чистая и идемпотентная.
func Annotate(msgs []domain.RawMessage, requesterID string, keywords []string) []domain.FilteredMessage {
	out := make([]domain.FilteredMessage, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, domain.FilteredMessage{
			RawMessage:     msg,
			IsMention:      isMention(msg.Text, requesterID),
			IsKeywordMatch: isKeywordMatch(msg.Text, keywords),
		})
	}
	return out
}

// Retain оставляет только релевантные сообщения. Пустой набор ключевых слов
// сводит предикат к «только упоминания» — это ожидаемое поведение.
func Retain(msgs []domain.FilteredMessage) []domain.FilteredMessage {
	out := make([]domain.FilteredMessage, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Relevant() {
			out = append(out, msg)
		}
	}
	return out
}

func isMention(text, requesterID string) bool {
	if requesterID != "" && strings.Contains(text, "<@"+requesterID+">") {
		return true
	}
	for _, marker := range broadcastMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func isKeywordMatch(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		trimmed := strings.TrimSpace(keyword)
		if trimmed == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(trimmed)) {
			return true
		}
	}
	return false
}
