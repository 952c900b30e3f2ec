package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

// FulfillmentOutcome — итог протокола создания отгрузки.
type FulfillmentOutcome struct {
	Success       bool                    `json:"success"`
	FulfillmentID string                  `json:"fulfillment_id,omitempty"`
	State         domain.FulfillmentState `json:"state,omitempty"`
	Method        string                  `json:"method,omitempty"`
	Message       string                  `json:"message,omitempty"`
	HandlerCode   string                  `json:"handler_code"`
	Retried       bool                    `json:"retried"`
}

// CreateFulfillment — создать отгрузку в Order System. Форма мутации
// определяется пробой возможностей; при неизвестном коде обработчика делается
// ровно одна повторная попытка с manual-fulfillment.
type CreateFulfillment struct {
	Orders domain.OrderSystem
	Logger *slog.Logger
}

// Execute возвращает ошибку только для транспортных сбоев первой попытки и
// domain.ErrUnsupportedBackend. Структурные отказы Order System приходят в
// FulfillmentOutcome с Success == false.
func (uc CreateFulfillment) Execute(ctx context.Context, input domain.FulfillmentInput) (FulfillmentOutcome, error) {
	shape, err := uc.Orders.FulfillmentCapability(ctx)
	if err != nil {
		return FulfillmentOutcome{}, fmt.Errorf("probe fulfillment capability: %w", err)
	}
	if shape == domain.MutationUnsupported {
		return FulfillmentOutcome{}, domain.ErrUnsupportedBackend
	}

	result, err := uc.Orders.CreateFulfillment(ctx, shape, input)
	if err != nil {
		return FulfillmentOutcome{}, fmt.Errorf("create fulfillment for order %s: %w", input.OrderID, err)
	}
	if result.Success {
		return successOutcome(result, input.HandlerCode, false), nil
	}
	if !result.IsInvalidHandler() || input.HandlerCode == domain.ManualFulfillmentHandler {
		return FulfillmentOutcome{
			Message:     result.FailureMessage(),
			HandlerCode: input.HandlerCode,
		}, nil
	}

	loggerOrDefault(uc.Logger).Warn("fulfillment handler rejected, retrying with fallback",
		slog.String("order_id", input.OrderID),
		slog.String("handler", input.HandlerCode),
		slog.String("fallback", domain.ManualFulfillmentHandler),
		slog.String("mutation", shape.String()),
	)
	retry := input
	retry.HandlerCode = domain.ManualFulfillmentHandler
	result, err = uc.Orders.CreateFulfillment(ctx, shape, retry)
	if err != nil {
		return FulfillmentOutcome{
			Message:     err.Error(),
			HandlerCode: retry.HandlerCode,
			Retried:     true,
		}, nil
	}
	if result.Success {
		return successOutcome(result, retry.HandlerCode, true), nil
	}
	return FulfillmentOutcome{
		Message:     result.FailureMessage(),
		HandlerCode: retry.HandlerCode,
		Retried:     true,
	}, nil
}

func successOutcome(result domain.FulfillmentResult, handler string, retried bool) FulfillmentOutcome {
	return FulfillmentOutcome{
		Success:       true,
		FulfillmentID: result.FulfillmentID,
		State:         result.State,
		Method:        result.Method,
		HandlerCode:   handler,
		Retried:       retried,
	}
}
