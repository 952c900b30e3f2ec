package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

// ReconcileOutcome — результат обработки вебхука партнёра.
type ReconcileOutcome struct {
	Ignored         bool                    `json:"ignored"`
	Event           string                  `json:"event"`
	OrderCode       string                  `json:"order_code,omitempty"`
	FulfillmentID   string                  `json:"fulfillment_id,omitempty"`
	TargetState     domain.FulfillmentState `json:"target_state,omitempty"`
	State           domain.FulfillmentState `json:"state,omitempty"`
	TrackingUpdated bool                    `json:"tracking_updated"`
	DryRun          bool                    `json:"dry_run,omitempty"`
}

// TargetStateForEvent — таблица правил событие/статус → состояние отгрузки.
// Неизвестные события возвращают false.
func TargetStateForEvent(event, status string) (domain.FulfillmentState, bool) {
	e := strings.ToLower(strings.TrimSpace(event))
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case strings.Contains(e, "delivered") || s == "delivered":
		return domain.FulfillmentDelivered, true
	case strings.Contains(e, "shipped") || strings.Contains(e, "shipment") || s == "shipped":
		return domain.FulfillmentShipped, true
	case strings.Contains(e, "fulfilled") || s == "fulfilled":
		return domain.FulfillmentFulfilled, true
	}
	return "", false
}

// ReconcileWebhook — перенести событие партнёра на последнюю отгрузку заказа.
// Отгрузки из вебхука никогда не создаются.
type ReconcileWebhook struct {
	Orders   domain.OrderSystem
	Notifier domain.Notifier
	Journal  domain.SyncJournal
	DryRun   bool
	Logger   *slog.Logger
	Now      func() time.Time
}

// ExecuteRaw разбирает тело вебхука и вызывает Execute.
func (uc ReconcileWebhook) ExecuteRaw(ctx context.Context, raw []byte) (ReconcileOutcome, error) {
	var event domain.PartnerEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return ReconcileOutcome{}, &domain.MalformedEventError{Reason: "invalid json: " + err.Error()}
	}
	return uc.Execute(ctx, event)
}

func (uc ReconcileWebhook) Execute(ctx context.Context, event domain.PartnerEvent) (ReconcileOutcome, error) {
	logger := loggerOrDefault(uc.Logger)
	side := sideChannel{notifier: uc.Notifier, journal: uc.Journal, logger: logger}

	code := strings.TrimSpace(event.Data.ExternalID)
	if code == "" {
		err := &domain.MalformedEventError{Reason: "missing data.external_id"}
		side.warning(fmt.Sprintf("partner webhook %q discarded: %v", event.Event, err))
		return ReconcileOutcome{}, err
	}
	logger = logger.With(slog.String("order_code", code), slog.String("event", event.Event))
	outcome := ReconcileOutcome{Event: event.Event, OrderCode: code, DryRun: uc.DryRun}
	rec := domain.SyncRecord{OrderCode: code, Event: event.Event, RecordedAt: uc.now()}

	target, ok := TargetStateForEvent(event.Event, event.Data.Status)
	if !ok {
		logger.Info("partner webhook ignored")
		outcome.Ignored = true
		rec.Outcome = domain.OutcomeIgnored
		side.record(ctx, rec)
		return outcome, nil
	}
	outcome.TargetState = target

	fail := func(err error) (ReconcileOutcome, error) {
		logger.Warn("partner webhook reconciliation failed", slog.Any("error", err))
		side.error(fmt.Sprintf("webhook %s for order %s: %v", event.Event, code, err))
		rec.Outcome = domain.OutcomeFailed
		rec.Reason = err.Error()
		side.record(ctx, rec)
		return outcome, err
	}

	order, found, err := uc.Orders.OrderByCode(ctx, code)
	if err != nil {
		return fail(fmt.Errorf("load order %s: %w", code, err))
	}
	if !found {
		return fail(&domain.OrderNotFoundError{Code: code})
	}
	fulfillment, ok := order.LatestFulfillment()
	if !ok {
		return fail(&domain.NoFulfillmentError{OrderCode: code})
	}
	outcome.FulfillmentID = fulfillment.ID
	rec.FulfillmentID = fulfillment.ID

	tracking := trackingFromShipments(event.Data.Shipments)
	if uc.DryRun {
		outcome.State = fulfillment.State
		outcome.TrackingUpdated = target == domain.FulfillmentShipped && !tracking.Empty()
		side.info(fmt.Sprintf("[dry-run] webhook %s: would move fulfillment %s of order %s to %s", event.Event, fulfillment.ID, code, target))
		return outcome, nil
	}

	// tracking goes first so consumers of the state change already see it
	if target == domain.FulfillmentShipped && !tracking.Empty() {
		if err := uc.Orders.UpdateFulfillmentTracking(ctx, fulfillment.ID, tracking); err != nil {
			return fail(fmt.Errorf("update tracking: %w", err))
		}
		outcome.TrackingUpdated = true
	}

	updated, err := uc.Orders.TransitionFulfillment(ctx, fulfillment.ID, target)
	if err != nil {
		return fail(err)
	}
	outcome.State = updated.State

	rec.Outcome = domain.OutcomeReconciled
	rec.FulfillmentState = updated.State
	side.record(ctx, rec)
	msg := fmt.Sprintf("order %s fulfillment %s → %s", code, fulfillment.ID, updated.State)
	if outcome.TrackingUpdated {
		msg += fmt.Sprintf(" (%s %s)", tracking.Carrier, tracking.Code)
	}
	side.success(msg)
	logger.Info("partner webhook reconciled", slog.String("state", string(updated.State)))
	return outcome, nil
}

func (uc ReconcileWebhook) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

// trackingFromShipments берёт последнюю отправку с номером отслеживания, а если
// номеров нет, то последнюю с перевозчиком.
func trackingFromShipments(shipments []domain.Shipment) domain.TrackingInfo {
	var carrierOnly domain.TrackingInfo
	for i := len(shipments) - 1; i >= 0; i-- {
		t := domain.TrackingInfo{
			Carrier: strings.TrimSpace(shipments[i].Carrier),
			Code:    strings.TrimSpace(shipments[i].TrackingNumber),
		}
		if t.Code != "" {
			return t
		}
		if carrierOnly.Empty() && t.Carrier != "" {
			carrierOnly = t
		}
	}
	return carrierOnly
}
