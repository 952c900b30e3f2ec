package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

// GetSyncRecord — последняя запись журнала по коду заказа.
type GetSyncRecord struct {
	Journal domain.SyncJournal
}

func (uc GetSyncRecord) Execute(ctx context.Context, code string) (domain.SyncRecord, bool, error) {
	return uc.Journal.Get(ctx, code)
}

// ProcessQueuedWebhook — обработать событие партнёра, пришедшее через очередь.
// Возвращённая ошибка означает «не подтверждать»: сообщение будет доставлено
// снова. Поэтому окончательные доменные ошибки здесь проглатываются.
type ProcessQueuedWebhook struct {
	Reconcile func() (ReconcileWebhook, error)
	Logger    *slog.Logger
}

func (uc ProcessQueuedWebhook) Execute(ctx context.Context, raw []byte) error {
	reconcile, err := uc.Reconcile()
	if err != nil {
		return err
	}
	_, err = reconcile.ExecuteRaw(ctx, raw)
	if err == nil {
		return nil
	}
	if IsTerminal(err) {
		loggerOrDefault(uc.Logger).Warn("queued partner webhook discarded", slog.Any("error", err))
		return nil
	}
	return err
}

// IsTerminal сообщает, что повтор обработки события ничего не изменит.
func IsTerminal(err error) bool {
	var (
		malformed  *domain.MalformedEventError
		notFound   *domain.OrderNotFoundError
		noFulfill  *domain.NoFulfillmentError
		transition *domain.TransitionError
	)
	return errors.As(err, &malformed) ||
		errors.As(err, &notFound) ||
		errors.As(err, &noFulfill) ||
		errors.As(err, &transition)
}
