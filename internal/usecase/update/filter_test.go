package update

import (
	"testing"

	"slack-digest-bot/internal/domain"
)

func TestAnnotateMentions(t *testing.T) {
	msgs := []domain.RawMessage{
		{Text: "привет <@U1>, глянь задачу", Timestamp: 1},
		{Text: "@channel релиз сегодня", Timestamp: 2},
		{Text: "@here стендап через 5 минут", Timestamp: 3},
		{Text: "просто сообщение", Timestamp: 4},
		{Text: "упоминание другого <@U2>", Timestamp: 5},
	}
	out := Annotate(msgs, "U1", nil)
	if len(out) != len(msgs) {
		t.Fatalf("аннотация не должна менять размер выборки")
	}
	want := []bool{true, true, true, false, false}
	for i, msg := range out {
		if msg.IsMention != want[i] {
			t.Fatalf("сообщение %d: IsMention=%v, ожидали %v", i, msg.IsMention, want[i])
		}
	}
}

func TestAnnotateKeywordsCaseInsensitive(t *testing.T) {
	msgs := []domain.RawMessage{
		{Text: "DEPLOY прошёл успешно"},
		{Text: "обсуждаем бюджет"},
		{Text: "re-deploying the service"},
	}
	out := Annotate(msgs, "U1", []string{"deploy"})
	if !out[0].IsKeywordMatch || out[1].IsKeywordMatch || !out[2].IsKeywordMatch {
		t.Fatalf("поиск по ключевым словам должен быть регистронезависимым вхождением: %+v", out)
	}
}

func TestAnnotateEmptyKeywords(t *testing.T) {
	msgs := []domain.RawMessage{
		{Text: "<@U1> нужен твой апрув"},
		{Text: "никому не адресовано"},
	}
	out := Retain(Annotate(msgs, "U1", nil))
	if len(out) != 1 {
		t.Fatalf("пустой набор ключевых слов оставляет только упоминания, получили %d", len(out))
	}
	if out[0].Text != "<@U1> нужен твой апрув" {
		t.Fatalf("осталось не то сообщение: %q", out[0].Text)
	}
}

func TestAnnotateBlankKeywordIgnored(t *testing.T) {
	out := Annotate([]domain.RawMessage{{Text: "любой текст"}}, "U1", []string{"   ", ""})
	if out[0].IsKeywordMatch {
		t.Fatalf("пустые ключевые слова не должны совпадать со всем подряд")
	}
}

func TestRetainPreservesOrder(t *testing.T) {
	msgs := []domain.RawMessage{
		{Text: "<@U1> первое", Timestamp: 1},
		{Text: "мимо", Timestamp: 2},
		{Text: "<@U1> второе", Timestamp: 3},
	}
	out := Retain(Annotate(msgs, "U1", nil))
	if len(out) != 2 {
		t.Fatalf("ожидали 2 релевантных сообщения, получили %d", len(out))
	}
	if out[0].Timestamp != 1 || out[1].Timestamp != 3 {
		t.Fatalf("порядок входа должен сохраняться: %+v", out)
	}
}

func TestAnnotateIdempotent(t *testing.T) {
	msgs := []domain.RawMessage{{Text: "@here раз"}, {Text: "два"}}
	first := Annotate(msgs, "U1", []string{"два"})
	second := Annotate(msgs, "U1", []string{"два"})
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("повторная аннотация дала другой результат для %d", i)
		}
	}
}
