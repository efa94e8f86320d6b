package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	outboxBatchSize     = 100
	outboxPurgeInterval = 10 * time.Minute
)

// RunOutboxRelay периодически публикует накопленные события и удаляет устаревшие до отмены контекста.
// Без настроенного брокера события не публикуются, но очистка продолжается.
func (s *Service) RunOutboxRelay(ctx context.Context) {
	relay := time.NewTicker(s.relayInterval)
	defer relay.Stop()
	purge := time.NewTicker(outboxPurgeInterval)
	defer purge.Stop()

	s.purgeOutbox(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-relay.C:
			if s.publisher == nil {
				continue
			}
			if _, err := s.relayOutbox(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("outbox relay error", zap.Error(err))
			}
		case <-purge.C:
			s.purgeOutbox(ctx)
		}
	}
}

// relayOutbox публикует одну пачку событий и возвращает число опубликованных.
// Публикация останавливается на первой ошибке, чтобы сохранить порядок событий.
func (s *Service) relayOutbox(ctx context.Context) (int, error) {
	events, err := s.repo.FetchPendingEvents(ctx, outboxBatchSize)
	if err != nil {
		return 0, err
	}

	sent := make([]string, 0, len(events))
	var pubErr error
	for _, e := range events {
		if pubErr = s.publisher.Publish(ctx, e); pubErr != nil {
			s.logger.Warn("publish event error", zap.Error(pubErr), zap.String("topic", e.Topic), zap.String("event", e.ID))
			break
		}
		sent = append(sent, e.ID)
	}

	if err := s.repo.MarkEventsSent(ctx, sent); err != nil {
		return 0, err
	}

	return len(sent), pubErr
}

// purgeOutbox удаляет события старше срока хранения.
// Без брокера неотправленные события никто не заберёт, поэтому удаляются и они.
func (s *Service) purgeOutbox(ctx context.Context) int64 {
	before := s.now().Add(-s.outboxRetention)

	n, err := s.repo.PurgeEvents(ctx, before, s.publisher == nil)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("outbox purge error", zap.Error(err))
		}
		return 0
	}
	if n > 0 {
		s.logger.Info("outbox purged", zap.Int64("events", n), zap.Time("before", before))
	}
	return n
}
