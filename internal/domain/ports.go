package domain

import (
	"context"
	"time"
)

// OrderListOptions — выборка заказов для пакетного прогона.
type OrderListOptions struct {
	States []OrderState
	Take   int
}

// OrderSystem — порт к GraphQL API Order System. Экземпляр живёт один прогон:
// сессия и результат проверки возможностей хранятся только в нём.
type OrderSystem interface {
	ListOrders(ctx context.Context, opts OrderListOptions) ([]Order, error)
	OrderByCode(ctx context.Context, code string) (Order, bool, error)
	// FulfillmentCapability определяет доступную форму мутации создания отгрузки.
	FulfillmentCapability(ctx context.Context) (MutationShape, error)
	CreateFulfillment(ctx context.Context, shape MutationShape, input FulfillmentInput) (FulfillmentResult, error)
	TransitionFulfillment(ctx context.Context, fulfillmentID string, state FulfillmentState) (Fulfillment, error)
	UpdateFulfillmentTracking(ctx context.Context, fulfillmentID string, tracking TrackingInfo) error
	ProductByID(ctx context.Context, id string) (Product, bool, error)
	ProductBySlug(ctx context.Context, slug string) (Product, bool, error)
}

// PartnerClient — порт к REST API партнёра печати.
type PartnerClient interface {
	CreateOrder(ctx context.Context, req PartnerOrderRequest) (PartnerOrder, error)
}

// Notifier — канал уведомлений. Реализации сами глотают свои ошибки.
type Notifier interface {
	Log(value string)
	LogError(value string)
	LogWarning(value string)
	LogSuccess(value string)
}

type SyncOutcome string

const (
	OutcomeSynced     SyncOutcome = "synced"
	OutcomeDryRun     SyncOutcome = "dry_run"
	OutcomeSkipped    SyncOutcome = "skipped"
	OutcomeFailed     SyncOutcome = "failed"
	OutcomeReconciled SyncOutcome = "reconciled"
	OutcomeIgnored    SyncOutcome = "ignored"
)

// SyncRecord — запись журнала по заказу. Только аудит, для дедупликации не используется.
type SyncRecord struct {
	RunID            string           `json:"run_id,omitempty"`
	OrderCode        string           `json:"order_code"`
	Outcome          SyncOutcome      `json:"outcome"`
	PartnerOrderID   string           `json:"partner_order_id,omitempty"`
	FulfillmentID    string           `json:"fulfillment_id,omitempty"`
	FulfillmentState FulfillmentState `json:"fulfillment_state,omitempty"`
	Event            string           `json:"event,omitempty"`
	Reason           string           `json:"reason,omitempty"`
	RecordedAt       time.Time        `json:"recorded_at"`
}

// SyncJournal — порт журнала синхронизаций.
type SyncJournal interface {
	Record(ctx context.Context, rec SyncRecord) error
	Get(ctx context.Context, orderCode string) (SyncRecord, bool, error)
}

// MessageSubscriber — порт подписчика на входящие события партнёра из очереди.
type MessageSubscriber interface {
	// Subscribe регистрирует обработчик; ack/повторные доставки реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}
