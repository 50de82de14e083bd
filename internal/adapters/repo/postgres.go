package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"slack-digest-bot/internal/domain"
	"slack-digest-bot/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.PreferencesRepo = (*Postgres)(nil)
var _ domain.HistoryRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// GetPreferences реализует domain.PreferencesRepo.
func (p *Postgres) GetPreferences(ctx context.Context, userID string) (domain.UserPreferences, bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var prefs domain.UserPreferences
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT user_id, COALESCE(monitored_channels, '{}'), COALESCE(keywords, '{}'), COALESCE(auto_summary_enabled, false), created_at, updated_at
FROM user_preferences
WHERE user_id = $1
`, userID).Scan(&prefs.UserID, &prefs.MonitoredChannels, &prefs.Keywords, &prefs.AutoSummaryEnabled, &prefs.CreatedAt, &prefs.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "user_preferences_select", "user_preferences", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserPreferences{}, false, nil
	}
	if err != nil {
		return domain.UserPreferences{}, false, fmt.Errorf("чтение настроек: %w", err)
	}
	return prefs, true, nil
}

// ListAutoSummaryUsers возвращает пользователей с включённым автодайджестом.
func (p *Postgres) ListAutoSummaryUsers(ctx context.Context) ([]domain.UserPreferences, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT user_id, COALESCE(monitored_channels, '{}'), COALESCE(keywords, '{}'), COALESCE(auto_summary_enabled, false), created_at, updated_at
FROM user_preferences
WHERE auto_summary_enabled
`)
	metrics.ObserveNetworkRequest("postgres", "user_preferences_list", "user_preferences", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка настроек: %w", err)
	}
	defer rows.Close()

	var out []domain.UserPreferences
	for rows.Next() {
		var prefs domain.UserPreferences
		if err := rows.Scan(&prefs.UserID, &prefs.MonitoredChannels, &prefs.Keywords, &prefs.AutoSummaryEnabled, &prefs.CreatedAt, &prefs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("чтение строки настроек: %w", err)
		}
		out = append(out, prefs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация настроек: %w", err)
	}
	return out, nil
}

// SaveBatch реализует domain.HistoryRepo: пачка пишется одной транзакцией,
// при ошибке откатываются все строки пачки.
func (p *Postgres) SaveBatch(ctx context.Context, channelID, userID string, msgs []domain.FilteredMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "message_history", start, err)
	if err != nil {
		return fmt.Errorf("открытие транзакции: %w", err)
	}
	for _, msg := range msgs {
		start = time.Now()
		_, err = tx.Exec(ctx, `
INSERT INTO message_history (channel_id, user_id, message_text, timestamp, is_mention)
VALUES ($1, $2, $3, $4, $5)
`, channelID, userID, msg.Text, time.Unix(msg.Timestamp, 0).UTC(), msg.IsMention)
		metrics.ObserveNetworkRequest("postgres", "message_history_insert", "message_history", start, err)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("вставка в журнал: %w", err)
		}
	}
	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "message_history", start, err)
	if err != nil {
		return fmt.Errorf("фиксация журнала: %w", err)
	}
	return nil
}
