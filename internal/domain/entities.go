package domain

import "time"

// DigestRequest описывает разобранный запрос пользователя на дайджест.
// Живёт только в рамках одного входящего сообщения и никогда не сохраняется.
type DigestRequest struct {
	RequesterID     string
	SourceChannelID string
	TargetChannelID string
	TargetRef       string
	WindowDays      int
}

// ResolvedChannel — канал, по которому будет выполняться выборка истории.
// MembershipConfirmed выставляется по принципу best-effort: неудачный join
// не отменяет резолв, история может быть доступна и без явного вступления.
type ResolvedChannel struct {
	ChannelID           string
	DisplayRef          string
	MembershipConfirmed bool
}

// RawMessage представляет сообщение канала в том виде, как его отдаёт платформа.
type RawMessage struct {
	AuthorID  string
	Text      string
	Timestamp int64
}

// FilteredMessage — сообщение с признаками релевантности для пользователя.
type FilteredMessage struct {
	RawMessage
	IsMention      bool
	IsKeywordMatch bool
}

// Relevant сообщает, должно ли сообщение попасть в отфильтрованную выборку.
func (m FilteredMessage) Relevant() bool {
	return m.IsMention || m.IsKeywordMatch
}

// UserPreferences хранит настройки автодайджеста пользователя.
// Ядро только читает эти записи, управление ими лежит на внешнем интерфейсе.
type UserPreferences struct {
	UserID             string
	MonitoredChannels  []string
	Keywords           []string
	AutoSummaryEnabled bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// MessageHistoryRecord — строка журнала сообщений, доставленных пользователю.
// Журнал append-only: путей обновления или удаления в ядре нет.
type MessageHistoryRecord struct {
	ID          int64
	ChannelID   string
	UserID      string
	MessageText string
	Timestamp   time.Time
	IsMention   bool
	CreatedAt   time.Time
}
