package update

import (
	"errors"
	"testing"
)

func TestParseSlashCommandDefaults(t *testing.T) {
	req, err := ParseSlashCommand("U1", "C1", "", 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if req.WindowDays != 7 {
		t.Fatalf("ожидали окно по умолчанию 7, получили %d", req.WindowDays)
	}
	if req.TargetChannelID != "" || req.TargetRef != "" {
		t.Fatalf("без второго токена канал не должен быть задан")
	}
	if req.SourceChannelID != "C1" || req.RequesterID != "U1" {
		t.Fatalf("контекст запроса потерян: %+v", req)
	}
}

func TestParseSlashCommandRichRef(t *testing.T) {
	req, err := ParseSlashCommand("U1", "C1", "3 <#C123|general>", 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if req.WindowDays != 3 {
		t.Fatalf("ожидали 3 дня, получили %d", req.WindowDays)
	}
	if req.TargetChannelID != "C123" {
		t.Fatalf("ожидали ID C123, получили %q", req.TargetChannelID)
	}
	if req.TargetRef != "general" {
		t.Fatalf("ожидали имя general, получили %q", req.TargetRef)
	}
}

func TestParseSlashCommandRichRefWithoutName(t *testing.T) {
	req, err := ParseSlashCommand("U1", "C1", "3 <#C123>", 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if req.TargetChannelID != "C123" {
		t.Fatalf("ожидали ID C123, получили %q", req.TargetChannelID)
	}
	if req.TargetRef != "<#C123>" {
		t.Fatalf("без имени ссылка остаётся как есть, получили %q", req.TargetRef)
	}
}

func TestParseSlashCommandBareToken(t *testing.T) {
	req, err := ParseSlashCommand("U1", "C1", "5 #general", 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if req.TargetChannelID != "" {
		t.Fatalf("голый токен не даёт ID, получили %q", req.TargetChannelID)
	}
	if req.TargetRef != "#general" {
		t.Fatalf("ожидали #general, получили %q", req.TargetRef)
	}
}

func TestParseSlashCommandNonNumericDays(t *testing.T) {
	req, err := ParseSlashCommand("U1", "C1", "banana", 7)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if req.WindowDays != 7 {
		t.Fatalf("нечисловой токен падает в окно по умолчанию, получили %d", req.WindowDays)
	}
}

func TestParseSlashCommandTooManyTokens(t *testing.T) {
	_, err := ParseSlashCommand("U1", "C1", "3 <#C123|general> extra", 7)
	if !errors.Is(err, ErrMalformedCommand) {
		t.Fatalf("ожидали ErrMalformedCommand, получили %v", err)
	}
}

func TestParseDirectMessageDaysOnly(t *testing.T) {
	req, err := ParseDirectMessage("U1", "D1", "10")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if req.WindowDays != 10 {
		t.Fatalf("ожидали 10 дней, получили %d", req.WindowDays)
	}
	if req.TargetChannelID != "" {
		t.Fatalf("без ссылки канал не должен быть задан")
	}
	if req.SourceChannelID != "D1" {
		t.Fatalf("ответ должен уходить в личный диалог, получили %q", req.SourceChannelID)
	}
}

func TestParseDirectMessageWithChannel(t *testing.T) {
	req, err := ParseDirectMessage("U1", "D1", "7 <#C2|team>")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if req.WindowDays != 7 {
		t.Fatalf("ожидали 7 дней, получили %d", req.WindowDays)
	}
	if req.TargetChannelID != "C2" {
		t.Fatalf("ожидали ID C2, получили %q", req.TargetChannelID)
	}
	if req.TargetRef != "<#C2>" {
		t.Fatalf("ожидали ссылку <#C2>, получили %q", req.TargetRef)
	}
}

func TestParseDirectMessageMalformed(t *testing.T) {
	for _, text := range []string{"banana", "", "7 extra words", "0", "-3"} {
		if _, err := ParseDirectMessage("U1", "D1", text); !errors.Is(err, ErrMalformedDirectMessage) {
			t.Fatalf("текст %q: ожидали ErrMalformedDirectMessage, получили %v", text, err)
		}
	}
}

func TestParseChannelRefRoundTrip(t *testing.T) {
	id, ref := ParseChannelRef("<#C123|general>")
	if id != "C123" || ref != "general" {
		t.Fatalf("ожидали C123/general, получили %q/%q", id, ref)
	}
	id, ref = ParseChannelRef("C999")
	if id != "" || ref != "C999" {
		t.Fatalf("сырой токен возвращается как подсказка, получили %q/%q", id, ref)
	}
}
