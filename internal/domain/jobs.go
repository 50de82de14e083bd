package domain

import (
	"context"
	"time"
)

// DigestJobCause описывает источник запроса на дайджест.
type DigestJobCause string

const (
	// DigestCauseCommand — запрос пришёл слэш-командой.
	DigestCauseCommand DigestJobCause = "command"
	// DigestCauseDirectMessage — запрос пришёл личным сообщением.
	DigestCauseDirectMessage DigestJobCause = "dm"
	// DigestCauseScheduled — автодайджест по расписанию.
	DigestCauseScheduled DigestJobCause = "scheduled"
)

// DigestJob содержит всё необходимое для построения одного дайджеста.
type DigestJob struct {
	ID                string         `json:"job_id,omitempty"`
	RequesterID       string         `json:"requester_id"`
	ResponseChannelID string         `json:"response_channel_id,omitempty"`
	TargetChannelID   string         `json:"target_channel_id,omitempty"`
	TargetRef         string         `json:"target_ref,omitempty"`
	WindowDays        int            `json:"window_days"`
	Monitored         bool           `json:"monitored,omitempty"`
	RequestedAt       time.Time      `json:"requested_at"`
	Cause             DigestJobCause `json:"cause"`
}

// DigestQueue описывает очередь задач на построение дайджестов.
type DigestQueue interface {
	Enqueue(ctx context.Context, job DigestJob) error
	Pop(ctx context.Context) (DigestJob, error)
}
