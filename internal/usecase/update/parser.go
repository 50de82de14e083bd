package update

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"slack-digest-bot/internal/domain"
)

// ErrMalformedCommand возвращается, если тело слэш-команды не удалось разобрать.
var ErrMalformedCommand = errors.New("malformed command")

// ErrMalformedDirectMessage возвращается, если личное сообщение не похоже на запрос.
var ErrMalformedDirectMessage = errors.New("malformed direct message")

// richRefRegex распознаёт ссылку на канал вида <#C123|general> или <#C123>.
var richRefRegex = regexp.MustCompile(`^<#([A-Z0-9]+)(?:\|([^>]*))?>$`)

// dmRegex — допустимое тело личного сообщения: число дней и необязательная
// rich-ссылка на канал, ничего больше.
var dmRegex = regexp.MustCompile(`^(\d+)(?:\s+<#([^|>]+)[^>]*>)?$`)

// ParseChannelRef разбирает ссылку на канал. Rich-ссылка даёт ID и
// отображаемое имя напрямую. «Голый» токен (#name или сырой ID) возвращается
// как подсказка для отображения без ID: вывести ID из имени без
// дополнительного запроса к платформе нельзя.
func ParseChannelRef(token string) (channelID, displayRef string) {
	if m := richRefRegex.FindStringSubmatch(token); m != nil {
		name := m[2]
		if name == "" {
			name = token
		}
		return m[1], name
	}
	return "", token
}

// ParseSlashCommand разбирает текст команды `/updateme [days] [channelRef]`.
// Первый токен — число дней; при его отсутствии или ошибке разбора берётся
// defaultDays. Больше двух токенов — некорректный ввод.
func ParseSlashCommand(requesterID, sourceChannelID, text string, defaultDays int) (domain.DigestRequest, error) {
	req := domain.DigestRequest{
		RequesterID:     requesterID,
		SourceChannelID: sourceChannelID,
		WindowDays:      defaultDays,
	}
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) > 2 {
		return domain.DigestRequest{}, ErrMalformedCommand
	}
	if len(fields) >= 1 {
		if days, err := strconv.Atoi(fields[0]); err == nil && days > 0 {
			req.WindowDays = days
		}
	}
	if len(fields) == 2 {
		req.TargetChannelID, req.TargetRef = ParseChannelRef(fields[1])
	}
	return req, nil
}

// ParseDirectMessage разбирает тело личного сообщения. Любая другая форма —
// терминальная ошибка ввода, конвейер по ней не запускается.
func ParseDirectMessage(requesterID, dmChannelID, text string) (domain.DigestRequest, error) {
	m := dmRegex.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return domain.DigestRequest{}, ErrMalformedDirectMessage
	}
	days, err := strconv.Atoi(m[1])
	if err != nil || days <= 0 {
		return domain.DigestRequest{}, ErrMalformedDirectMessage
	}
	req := domain.DigestRequest{
		RequesterID:     requesterID,
		SourceChannelID: dmChannelID,
		WindowDays:      days,
	}
	if m[2] != "" {
		req.TargetChannelID = m[2]
		req.TargetRef = "<#" + m[2] + ">"
	}
	return req, nil
}
