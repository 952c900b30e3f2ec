package domain

import "strings"

// ManualFulfillmentHandler — код обработчика, который есть в любой установке
// Order System. Используется как запасной при повторной попытке.
const ManualFulfillmentHandler = "manual-fulfillment"

// MutationShape — какая мутация создания отгрузки доступна в Order System.
type MutationShape int

const (
	MutationUnsupported MutationShape = iota
	// MutationModern принимает orderId и код обработчика.
	MutationModern
	// MutationLegacy принимает только строки и объект обработчика.
	MutationLegacy
)

func (s MutationShape) String() string {
	switch s {
	case MutationModern:
		return "modern"
	case MutationLegacy:
		return "legacy"
	default:
		return "unsupported"
	}
}

type FulfillmentLine struct {
	OrderLineID string `json:"orderLineId"`
	Quantity    int    `json:"quantity"`
}

// FulfillmentInput — всё, что нужно для создания отгрузки, независимо от формы мутации.
type FulfillmentInput struct {
	OrderID      string
	HandlerCode  string
	Method       string
	TrackingCode string
	Lines        []FulfillmentLine
}

// FulfillmentResult — результат мутации создания отгрузки: либо Fulfillment,
// либо типизированная ошибка.
type FulfillmentResult struct {
	Success bool

	FulfillmentID string
	State         FulfillmentState
	Method        string

	ErrorCode       string
	Message         string
	TransitionError string
	FromState       string
	ToState         string
}

// IsInvalidHandler сообщает, что Order System не знает указанный код обработчика.
func (r FulfillmentResult) IsInvalidHandler() bool {
	if r.Success {
		return false
	}
	for _, s := range []string{r.ErrorCode, r.Message} {
		l := strings.ToLower(s)
		if strings.Contains(l, "invalid_fulfillment_handler") || strings.Contains(l, "invalidfulfillmenthandler") {
			return true
		}
	}
	return false
}

// FailureMessage склеивает сообщение и поля ошибки перехода через " — ".
func (r FulfillmentResult) FailureMessage() string {
	parts := make([]string, 0, 2)
	for _, s := range []string{r.Message, r.TransitionError} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		if r.ErrorCode != "" {
			return r.ErrorCode
		}
		return "fulfillment creation failed"
	}
	return strings.Join(parts, " — ")
}

// TrackingInfo — данные отслеживания, пришедшие от партнёра.
type TrackingInfo struct {
	Carrier string `json:"carrier"`
	Code    string `json:"code"`
}

func (t TrackingInfo) Empty() bool {
	return strings.TrimSpace(t.Carrier) == "" && strings.TrimSpace(t.Code) == ""
}
