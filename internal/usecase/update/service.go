package update

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"slack-digest-bot/internal/domain"
	"slack-digest-bot/internal/infra/metrics"
)

const secondsPerDay = 86400

// Service реализует конвейер построения дайджеста обновлений.
type Service struct {
	chat       domain.ChatClient
	prefs      domain.PreferencesRepo
	history    domain.HistoryRepo
	summarizer domain.Summarizer
	log        zerolog.Logger
	pageSize   int
	now        func() time.Time
}

// NewService создаёт сервис. prefs и history могут быть nil, если персистентность
// не настроена: мониторинг каналов тогда недоступен, журнал не ведётся.
func NewService(chat domain.ChatClient, prefs domain.PreferencesRepo, history domain.HistoryRepo, summarizer domain.Summarizer, logger zerolog.Logger, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Service{
		chat:       chat,
		prefs:      prefs,
		history:    history,
		summarizer: summarizer,
		log:        logger,
		pageSize:   pageSize,
		now:        time.Now,
	}
}

// Run выполняет конвейер одной задачи. Любая ошибка превращается ровно в одно
// пользовательское сообщение; наружу ничего не поднимается.
func (s *Service) Run(ctx context.Context, job domain.DigestJob) {
	metrics.IncDigestRequest(string(job.Cause))
	start := time.Now()
	defer func() {
		metrics.DigestBuildSeconds.Observe(time.Since(start).Seconds())
	}()

	responseChannel := job.ResponseChannelID
	if responseChannel == "" {
		opened, err := s.chat.OpenDirectChannel(ctx, job.RequesterID)
		if err != nil {
			s.log.Error().Err(err).Str("user", job.RequesterID).Msg("не удалось открыть личный диалог")
			return
		}
		responseChannel = opened
	}

	if job.Monitored {
		s.runMonitored(ctx, job, responseChannel)
		return
	}
	s.runSingleChannel(ctx, job, responseChannel)
}

// runSingleChannel — режим явного канала: окно суммируется без фильтрации,
// релевантность подразумевается самим вопросом про этот канал.
func (s *Service) runSingleChannel(ctx context.Context, job domain.DigestJob, responseChannel string) {
	resolved := s.resolveChannel(ctx, job, responseChannel)
	s.post(ctx, responseChannel, FormatProgress(resolved.DisplayRef, job.WindowDays))

	msgs, err := s.fetchWindow(ctx, resolved.ChannelID, job.WindowDays)
	if err != nil {
		s.log.Error().Err(err).Str("channel", resolved.ChannelID).Msg("не удалось получить историю канала")
		s.post(ctx, responseChannel, MsgAccessError)
		return
	}
	if len(msgs) == 0 {
		metrics.DigestEmptyWindowTotal.Inc()
		s.post(ctx, responseChannel, MsgNoMessages)
		return
	}

	annotated := Annotate(msgs, job.RequesterID, nil)
	s.record(ctx, resolved.ChannelID, job.RequesterID, annotated)

	digest, err := s.summarizer.Summarize(ctx, messageTexts(annotated))
	if err != nil {
		s.log.Error().Err(err).Str("channel", resolved.ChannelID).Msg("суммаризация не удалась")
		s.post(ctx, responseChannel, MsgSummarizeFailed)
		return
	}
	s.post(ctx, responseChannel, FormatDigest(resolved.DisplayRef, job.WindowDays, digest))
}

// runMonitored — режим отслеживаемых каналов: выборка по user_preferences,
// фильтрация по упоминаниям и ключевым словам, журнал по каждому каналу.
func (s *Service) runMonitored(ctx context.Context, job domain.DigestJob, responseChannel string) {
	if s.prefs == nil {
		s.post(ctx, responseChannel, MsgNoMonitored)
		return
	}
	prefs, found, err := s.prefs.GetPreferences(ctx, job.RequesterID)
	if err != nil {
		s.log.Error().Err(err).Str("user", job.RequesterID).Msg("не удалось прочитать настройки пользователя")
		s.post(ctx, responseChannel, MsgRequestFailed)
		return
	}
	if !found || len(prefs.MonitoredChannels) == 0 {
		s.post(ctx, responseChannel, MsgNoMonitored)
		return
	}

	s.post(ctx, responseChannel, FormatProgress("your monitored channels", job.WindowDays))

	var retained []domain.FilteredMessage
	for _, channelID := range prefs.MonitoredChannels {
		msgs, err := s.fetchWindow(ctx, channelID, job.WindowDays)
		if err != nil {
			s.log.Warn().Err(err).Str("channel", channelID).Msg("канал пропущен: история недоступна")
			continue
		}
		filtered := Retain(Annotate(msgs, job.RequesterID, prefs.Keywords))
		if len(filtered) == 0 {
			continue
		}
		s.record(ctx, channelID, job.RequesterID, filtered)
		retained = append(retained, filtered...)
	}

	if len(retained) == 0 {
		metrics.DigestEmptyWindowTotal.Inc()
		s.post(ctx, responseChannel, MsgNoMessages)
		return
	}

	digest, err := s.summarizer.Summarize(ctx, messageTexts(retained))
	if err != nil {
		s.log.Error().Err(err).Str("user", job.RequesterID).Msg("суммаризация не удалась")
		s.post(ctx, responseChannel, MsgSummarizeFailed)
		return
	}
	s.post(ctx, responseChannel, FormatDigest("your monitored channels", job.WindowDays, digest))
}

// resolveChannel определяет канал выборки. Резолвер никогда не «роняет»
// запрос: неудачный join лишь сбрасывает MembershipConfirmed, история может
// быть доступна и без явного вступления.
func (s *Service) resolveChannel(ctx context.Context, job domain.DigestJob, responseChannel string) domain.ResolvedChannel {
	if job.TargetChannelID == "" {
		ref := job.TargetRef
		if ref == "" {
			ref = "this channel"
			if job.Cause == domain.DigestCauseDirectMessage {
				ref = "this conversation"
			}
		}
		return domain.ResolvedChannel{ChannelID: responseChannel, DisplayRef: ref, MembershipConfirmed: true}
	}

	resolved := domain.ResolvedChannel{
		ChannelID:           job.TargetChannelID,
		DisplayRef:          job.TargetRef,
		MembershipConfirmed: true,
	}
	if resolved.DisplayRef == "" {
		resolved.DisplayRef = "<#" + job.TargetChannelID + ">"
	}
	if err := s.chat.JoinChannel(ctx, job.TargetChannelID); err != nil {
		s.log.Warn().Err(err).Str("channel", job.TargetChannelID).Msg("не удалось вступить в канал")
		resolved.MembershipConfirmed = false
	}
	return resolved
}

// fetchWindow читает окно истории и возвращает сообщения в хронологическом
// порядке. Базовая реализация берёт одну страницу; курсор в HistoryPage
// позволяет дочитать остаток, когда это понадобится.
func (s *Service) fetchWindow(ctx context.Context, channelID string, days int) ([]domain.RawMessage, error) {
	oldest := s.now().Unix() - int64(days)*secondsPerDay
	page, err := s.chat.FetchHistory(ctx, channelID, oldest, s.pageSize, "")
	if err != nil {
		return nil, err
	}
	msgs := append([]domain.RawMessage(nil), page.Messages...)
	// Платформа отдаёт сообщения от новых к старым, сводке нужен порядок чтения.
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Timestamp < msgs[j].Timestamp })
	return msgs, nil
}

// record пишет журнал доставки. Сбой записи логируется и никогда не блокирует
// доставку дайджеста.
func (s *Service) record(ctx context.Context, channelID, userID string, msgs []domain.FilteredMessage) {
	if s.history == nil || len(msgs) == 0 {
		return
	}
	if err := s.history.SaveBatch(ctx, channelID, userID, msgs); err != nil {
		metrics.HistoryRecordErrors.Inc()
		s.log.Error().Err(err).Str("channel", channelID).Str("user", userID).Msg("не удалось сохранить журнал сообщений")
	}
}

func (s *Service) post(ctx context.Context, channelID, text string) {
	if err := s.chat.PostMessage(ctx, channelID, text); err != nil {
		metrics.SlackPostErrors.Inc()
		s.log.Error().Err(err).Str("channel", channelID).Msg("не удалось отправить сообщение")
	}
}

func messageTexts(msgs []domain.FilteredMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, msg.Text)
	}
	return out
}
