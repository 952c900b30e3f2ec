package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/pod-fulfillment-service/internal/domain"
	"github.com/example/pod-fulfillment-service/internal/mapping"
)

type SyncOptions struct {
	HandlerCode    string
	EligibleStates []domain.OrderState
	MaxOrders      int
	DryRun         bool
	Shipping       ShippingOptions
}

type OrderFailure struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// OrderReport — что произошло с одним заказом в прогоне.
type OrderReport struct {
	Code           string             `json:"code"`
	Outcome        domain.SyncOutcome `json:"outcome"`
	PartnerOrderID string             `json:"partner_order_id,omitempty"`
	FulfillmentID  string             `json:"fulfillment_id,omitempty"`
	LineItems      int                `json:"line_items,omitempty"`
	Message        string             `json:"message,omitempty"`

	err error
}

// Err возвращает исходную ошибку для неуспешного заказа.
func (r OrderReport) Err() error {
	return r.err
}

type SyncResult struct {
	RunID     string         `json:"run_id"`
	DryRun    bool           `json:"dry_run"`
	Processed int            `json:"processed"`
	Succeeded int            `json:"succeeded"`
	Skipped   int            `json:"skipped"`
	Failures  []OrderFailure `json:"failures"`
	Orders    []OrderReport  `json:"orders"`
}

// SyncOrders — пакетный прогон: заказы обрабатываются последовательно, сбой
// одного заказа не прерывает пакет. Исключение — Order System без мутации
// создания отгрузки: это фатально для всего соединения.
type SyncOrders struct {
	Orders   domain.OrderSystem
	Partner  domain.PartnerClient
	Mapping  *mapping.Table
	Notifier domain.Notifier
	Journal  domain.SyncJournal
	Options  SyncOptions
	Logger   *slog.Logger

	NewRunID func() string
	Now      func() time.Time
}

func (uc SyncOrders) Execute(ctx context.Context) (SyncResult, error) {
	logger := loggerOrDefault(uc.Logger)
	side := uc.side()
	result := uc.newResult()
	logger = logger.With(slog.String("run_id", result.RunID))

	side.info(fmt.Sprintf("fulfillment run %s started dry_run=%t max=%d", result.RunID, result.DryRun, uc.Options.MaxOrders))

	orders, err := uc.Orders.ListOrders(ctx, domain.OrderListOptions{
		States: uc.Options.EligibleStates,
		Take:   uc.Options.MaxOrders,
	})
	if err != nil {
		side.error(fmt.Sprintf("fulfillment run %s: list orders failed: %v", result.RunID, err))
		return result, fmt.Errorf("list orders: %w", err)
	}
	if uc.Options.MaxOrders > 0 && len(orders) > uc.Options.MaxOrders {
		orders = orders[:uc.Options.MaxOrders]
	}
	if len(orders) > 0 {
		if err := uc.checkCapability(ctx); err != nil {
			side.error(fmt.Sprintf("fulfillment run %s aborted: %v", result.RunID, err))
			return result, err
		}
	}

	seen := make(map[string]struct{}, len(orders))
	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, ok := seen[order.ID]; ok {
			continue
		}
		seen[order.ID] = struct{}{}

		report := uc.processOrder(ctx, logger, result.RunID, order)
		result.add(report)
		if errors.Is(report.err, domain.ErrUnsupportedBackend) {
			side.error(fmt.Sprintf("fulfillment run %s aborted: %v", result.RunID, report.err))
			return result, report.err
		}
	}

	side.summary(result)
	logger.Info("fulfillment run finished",
		slog.Int("processed", result.Processed),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", len(result.Failures)),
	)
	return result, nil
}

// ExecuteOne — прогон для одного заказа по коду. Ошибка заказа возвращается
// как error, чтобы вызывающий мог выбрать HTTP статус.
func (uc SyncOrders) ExecuteOne(ctx context.Context, code string) (SyncResult, error) {
	logger := loggerOrDefault(uc.Logger)
	result := uc.newResult()
	logger = logger.With(slog.String("run_id", result.RunID))

	order, found, err := uc.Orders.OrderByCode(ctx, code)
	if err != nil {
		return result, fmt.Errorf("load order %s: %w", code, err)
	}
	if !found {
		return result, &domain.OrderNotFoundError{Code: code}
	}
	if !uc.eligible(order.State) {
		err := &domain.IneligibleOrderError{Code: order.Code, State: order.State}
		logger.Warn("order not eligible", slog.String("order_code", order.Code), slog.String("state", string(order.State)))
		uc.side().record(ctx, domain.SyncRecord{
			RunID:      result.RunID,
			OrderCode:  order.Code,
			Outcome:    domain.OutcomeSkipped,
			Reason:     err.Error(),
			RecordedAt: uc.now(),
		})
		result.add(OrderReport{Code: order.Code, Outcome: domain.OutcomeSkipped, Message: err.Error(), err: err})
		return result, err
	}
	if err := uc.checkCapability(ctx); err != nil {
		return result, err
	}

	report := uc.processOrder(ctx, logger, result.RunID, order)
	result.add(report)
	uc.side().summary(result)
	return result, report.err
}

func (uc SyncOrders) processOrder(ctx context.Context, logger *slog.Logger, runID string, order domain.Order) OrderReport {
	side := uc.side()
	logger = logger.With(slog.String("order_code", order.Code))

	rec := domain.SyncRecord{RunID: runID, OrderCode: order.Code, RecordedAt: uc.now()}
	fail := func(err error) OrderReport {
		logger.Warn("order fulfillment failed", slog.Any("error", err))
		side.error(fmt.Sprintf("order %s: %v", order.Code, err))
		rec.Outcome = domain.OutcomeFailed
		rec.Reason = err.Error()
		side.record(ctx, rec)
		return OrderReport{Code: order.Code, Outcome: domain.OutcomeFailed, PartnerOrderID: rec.PartnerOrderID, Message: err.Error(), err: err}
	}

	lines := OutstandingLines(order)
	if len(lines) == 0 {
		logger.Info("order has nothing outstanding")
		rec.Outcome = domain.OutcomeSkipped
		rec.Reason = "no outstanding lines"
		side.record(ctx, rec)
		return OrderReport{Code: order.Code, Outcome: domain.OutcomeSkipped, Message: rec.Reason}
	}

	req, err := BuildPartnerRequest(order, lines, uc.Mapping, uc.Options.Shipping)
	if err != nil {
		return fail(err)
	}

	if uc.Options.DryRun {
		msg := fmt.Sprintf("would create partner order with %d line item(s) and a fulfillment via %s", len(req.LineItems), uc.handlerCode())
		logger.Info("dry run", slog.Int("line_items", len(req.LineItems)))
		side.info(fmt.Sprintf("[dry-run] order %s: %s", order.Code, msg))
		rec.Outcome = domain.OutcomeDryRun
		rec.Reason = msg
		side.record(ctx, rec)
		return OrderReport{Code: order.Code, Outcome: domain.OutcomeDryRun, LineItems: len(req.LineItems), Message: msg}
	}

	partnerOrder, err := uc.Partner.CreateOrder(ctx, req)
	if err != nil {
		return fail(fmt.Errorf("create partner order: %w", err))
	}
	rec.PartnerOrderID = partnerOrder.ID
	logger.Info("partner order created", slog.String("partner_order_id", partnerOrder.ID))

	fulfillLines := make([]domain.FulfillmentLine, 0, len(lines))
	for _, line := range lines {
		fulfillLines = append(fulfillLines, domain.FulfillmentLine{OrderLineID: line.OrderLineID, Quantity: line.Quantity})
	}
	outcome, err := CreateFulfillment{Orders: uc.Orders, Logger: logger}.Execute(ctx, domain.FulfillmentInput{
		OrderID:      order.ID,
		HandlerCode:  uc.handlerCode(),
		Method:       partnerMethod(partnerOrder.ID),
		TrackingCode: firstTrackingNumber(partnerOrder.Shipments),
		Lines:        fulfillLines,
	})
	if err != nil {
		return fail(err)
	}
	if !outcome.Success {
		return fail(fmt.Errorf("create fulfillment: %s", outcome.Message))
	}

	rec.Outcome = domain.OutcomeSynced
	rec.FulfillmentID = outcome.FulfillmentID
	rec.FulfillmentState = outcome.State
	if outcome.Retried {
		rec.Reason = "handler fallback " + outcome.HandlerCode
	}
	side.record(ctx, rec)
	side.success(fmt.Sprintf("order %s sent to partner order=%s fulfillment=%s state=%s", order.Code, partnerOrder.ID, outcome.FulfillmentID, outcome.State))

	return OrderReport{
		Code:           order.Code,
		Outcome:        domain.OutcomeSynced,
		PartnerOrderID: partnerOrder.ID,
		FulfillmentID:  outcome.FulfillmentID,
		LineItems:      len(req.LineItems),
	}
}

// checkCapability прерывает прогон до создания заказов у партнёра, если
// Order System не умеет создавать отгрузки.
func (uc SyncOrders) checkCapability(ctx context.Context) error {
	shape, err := uc.Orders.FulfillmentCapability(ctx)
	if err != nil {
		return fmt.Errorf("probe fulfillment capability: %w", err)
	}
	if shape == domain.MutationUnsupported {
		return domain.ErrUnsupportedBackend
	}
	return nil
}

// eligible — пустой список состояний не ограничивает выборку, как и в ListOrders.
func (uc SyncOrders) eligible(state domain.OrderState) bool {
	if len(uc.Options.EligibleStates) == 0 {
		return true
	}
	for _, s := range uc.Options.EligibleStates {
		if s == state {
			return true
		}
	}
	return false
}

func (uc SyncOrders) side() sideChannel {
	return sideChannel{notifier: uc.Notifier, journal: uc.Journal, logger: loggerOrDefault(uc.Logger)}
}

func (uc SyncOrders) handlerCode() string {
	if code := strings.TrimSpace(uc.Options.HandlerCode); code != "" {
		return code
	}
	return domain.ManualFulfillmentHandler
}

func (uc SyncOrders) newResult() SyncResult {
	runID := uuid.NewString()
	if uc.NewRunID != nil {
		runID = uc.NewRunID()
	}
	return SyncResult{RunID: runID, DryRun: uc.Options.DryRun, Failures: []OrderFailure{}, Orders: []OrderReport{}}
}

func (uc SyncOrders) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

func (r *SyncResult) add(report OrderReport) {
	r.Processed++
	r.Orders = append(r.Orders, report)
	switch report.Outcome {
	case domain.OutcomeSynced, domain.OutcomeDryRun:
		r.Succeeded++
	case domain.OutcomeSkipped:
		r.Skipped++
	case domain.OutcomeFailed:
		r.Failures = append(r.Failures, OrderFailure{Code: report.Code, Reason: report.Message})
	}
}

func (s sideChannel) summary(result SyncResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "fulfillment run %s finished processed=%d succeeded=%d skipped=%d failed=%d",
		result.RunID, result.Processed, result.Succeeded, result.Skipped, len(result.Failures))
	if result.DryRun {
		b.WriteString(" (dry run)")
	}
	for _, f := range result.Failures {
		fmt.Fprintf(&b, "\n• %s: %s", f.Code, f.Reason)
	}
	if len(result.Failures) > 0 {
		s.warning(b.String())
		return
	}
	s.success(b.String())
}

func partnerMethod(partnerOrderID string) string {
	return "print-partner #" + partnerOrderID
}

func firstTrackingNumber(shipments []domain.Shipment) string {
	for _, s := range shipments {
		if n := strings.TrimSpace(s.TrackingNumber); n != "" {
			return n
		}
	}
	return ""
}
