package usecase

import (
	"context"
	"log/slog"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

// sideChannel изолирует уведомления и журнал от бизнес-операции: их сбои
// только логируются.
type sideChannel struct {
	notifier domain.Notifier
	journal  domain.SyncJournal
	logger   *slog.Logger
}

func (s sideChannel) send(level func(domain.Notifier, string), msg string) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notifier panicked", slog.Any("panic", r))
		}
	}()
	level(s.notifier, msg)
}

func (s sideChannel) info(msg string) {
	s.send(domain.Notifier.Log, msg)
}

func (s sideChannel) success(msg string) {
	s.send(domain.Notifier.LogSuccess, msg)
}

func (s sideChannel) warning(msg string) {
	s.send(domain.Notifier.LogWarning, msg)
}

func (s sideChannel) error(msg string) {
	s.send(domain.Notifier.LogError, msg)
}

func (s sideChannel) record(ctx context.Context, rec domain.SyncRecord) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, rec); err != nil {
		s.logger.Warn("sync journal write failed",
			slog.String("order_code", rec.OrderCode),
			slog.String("outcome", string(rec.Outcome)),
			slog.Any("error", err),
		)
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
