package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	openai "slack-digest-bot/internal/infra/openai"
)

type fakeChatClient struct {
	captured []openai.ChatCompletionRequest
	content  string
	err      error
	choices  int
}

func (f *fakeChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.captured = append(f.captured, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	choices := f.choices
	if choices == 0 {
		choices = 1
	}
	resp := openai.ChatCompletionResponse{}
	for i := 0; i < choices; i++ {
		resp.Choices = append(resp.Choices, openai.ChatCompletionChoice{
			Message: openai.ChatMessage{Role: openai.RoleAssistant, Content: f.content},
		})
	}
	return resp, nil
}

func TestSummarizeBuildsRequest(t *testing.T) {
	client := &fakeChatClient{content: "- итог"}
	s := NewOpenAI(client, "test-model", "", 500, 0.7, time.Minute)

	digest, err := s.Summarize(context.Background(), []string{"первое", "второе"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if digest != "- итог" {
		t.Fatalf("ожидали сводку от клиента, получили %q", digest)
	}
	if len(client.captured) != 1 {
		t.Fatalf("ожидали ровно один запрос")
	}
	req := client.captured[0]
	if req.Model != "test-model" {
		t.Fatalf("ожидали модель test-model, получили %q", req.Model)
	}
	if req.MaxTokens != 500 || req.Temperature != 0.7 {
		t.Fatalf("параметры генерации потеряны: %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != openai.RoleSystem {
		t.Fatalf("ожидали системную инструкцию и пользовательский промпт: %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "первое\nвторое") {
		t.Fatalf("сообщения должны склеиваться переводами строк: %q", req.Messages[1].Content)
	}
	if !strings.Contains(req.Messages[1].Content, "Decisions") {
		t.Fatalf("промпт должен задавать структуру сводки: %q", req.Messages[1].Content)
	}
}

func TestSummarizeDefaults(t *testing.T) {
	client := &fakeChatClient{content: "ok"}
	s := NewOpenAI(client, "", "", 0, 0, 0)

	if _, err := s.Summarize(context.Background(), []string{"текст"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	req := client.captured[0]
	if req.Model != "llama-3.1-8b-instant" {
		t.Fatalf("ожидали модель по умолчанию, получили %q", req.Model)
	}
	if req.MaxTokens != 500 || req.Temperature != 0.7 {
		t.Fatalf("ожидали параметры по умолчанию: %+v", req)
	}
	if req.Messages[0].Content == "" {
		t.Fatalf("инструкция по умолчанию не должна быть пустой")
	}
}

func TestSummarizeEmptyInput(t *testing.T) {
	client := &fakeChatClient{content: "ok"}
	s := NewOpenAI(client, "", "", 0, 0, 0)

	if _, err := s.Summarize(context.Background(), nil); err == nil {
		t.Fatalf("пустой вход должен быть ошибкой")
	}
	if len(client.captured) != 0 {
		t.Fatalf("пустой вход не должен доходить до клиента")
	}
}

func TestSummarizeClientError(t *testing.T) {
	client := &fakeChatClient{err: errors.New("rate limited")}
	s := NewOpenAI(client, "", "", 0, 0, 0)

	if _, err := s.Summarize(context.Background(), []string{"текст"}); err == nil {
		t.Fatalf("ошибка клиента должна подниматься наружу")
	}
}

func TestSummarizeEmptyCompletion(t *testing.T) {
	client := &fakeChatClient{content: "   "}
	s := NewOpenAI(client, "", "", 0, 0, 0)

	if _, err := s.Summarize(context.Background(), []string{"текст"}); err == nil {
		t.Fatalf("пустой ответ модели должен быть ошибкой")
	}
}
