package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"slack-digest-bot/internal/domain"
	openai "slack-digest-bot/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Инструкция и промпт фиксированы: качество сводки настраивается конфигом,
// а не кодом конвейера.
const defaultInstruction = "You are a helpful assistant that summarizes Slack messages into clear, concise bullet points. Focus on key information, decisions, and action items."

const userPromptHeader = `Please summarize these Slack messages into bullet points, categorizing them into "Decisions", "Action Items", and "Updates" where applicable:`

const promptRuneLimit = 24000

// OpenAI реализует domain.Summarizer через Chat Completions.
type OpenAI struct {
	client      chatClient
	model       string
	instruction string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

var _ domain.Summarizer = (*OpenAI)(nil)

// NewOpenAI создаёт провайдер суммаризации. Нулевые параметры заменяются
// значениями по умолчанию.
func NewOpenAI(client chatClient, model, instruction string, maxTokens int, temperature float64, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	if instruction == "" {
		instruction = defaultInstruction
	}
	if maxTokens <= 0 {
		maxTokens = 500
	}
	if temperature <= 0 {
		temperature = 0.7
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{
		client:      client,
		model:       model,
		instruction: instruction,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
	}
}

// Summarize строит сводку по упорядоченному списку текстов. Один запрос,
// без повторов; ответ трактуется как непрозрачная строка, структура
// маркеров не проверяется.
func (s *OpenAI) Summarize(ctx context.Context, texts []string) (string, error) {
	joined := strings.TrimSpace(strings.Join(texts, "\n"))
	if joined == "" {
		return "", fmt.Errorf("summarizer: нет текста для сводки")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: s.instruction},
			{Role: openai.RoleUser, Content: userPromptHeader + "\n\n" + clipRunes(joined, promptRuneLimit)},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion: пустой ответ")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("completion: пустой ответ")
	}
	return content, nil
}

func clipRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
