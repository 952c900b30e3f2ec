package domain

import (
	"errors"
	"fmt"
)

// Общие доменные ошибки
var (
	ErrUnsupportedBackend = errors.New("order system exposes no fulfillment creation mutation")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)

// MissingMappingError — для ключа строки заказа нет записи в таблице SKU.
type MissingMappingError struct {
	Key string
}

func (e *MissingMappingError) Error() string {
	return fmt.Sprintf("no partner mapping for sku %q", e.Key)
}

// MalformedEventError — вебхук без external_id или с битым телом.
type MalformedEventError struct {
	Reason string
}

func (e *MalformedEventError) Error() string {
	return "malformed partner event: " + e.Reason
}

type OrderNotFoundError struct {
	Code string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.Code)
}

type NoFulfillmentError struct {
	OrderCode string
}

func (e *NoFulfillmentError) Error() string {
	return fmt.Sprintf("order %s has no fulfillment to transition", e.OrderCode)
}

// TransitionError — Order System отклонил переход состояния отгрузки.
type TransitionError struct {
	FulfillmentID string
	FromState     string
	ToState       string
	Message       string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("fulfillment %s transition %s -> %s rejected: %s", e.FulfillmentID, e.FromState, e.ToState, e.Message)
}

// ConflictError — партнёр отказал из-за конфликта (дубль заказа, нет в наличии).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "partner conflict: " + e.Message
}

// IneligibleOrderError — заказ не в том состоянии, чтобы отправлять его партнёру.
type IneligibleOrderError struct {
	Code  string
	State OrderState
}

func (e *IneligibleOrderError) Error() string {
	return fmt.Sprintf("order %s is in state %s, not eligible for fulfillment", e.Code, e.State)
}
