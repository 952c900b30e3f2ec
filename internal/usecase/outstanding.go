package usecase

import "github.com/example/pod-fulfillment-service/internal/domain"

// OutstandingLine — строка заказа с количеством, ещё не привязанным к отгрузкам.
type OutstandingLine struct {
	OrderLineID string
	Variant     domain.ProductVariant
	Quantity    int
}

// OutstandingLines — чистая функция: строки с остатком > 0 в исходном порядке.
// Отрицательные количества считаются нулём.
func OutstandingLines(order domain.Order) []OutstandingLine {
	out := make([]OutstandingLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		quantity := max(line.Quantity, 0)
		fulfilled := max(line.FulfilledQuantity, 0)
		outstanding := quantity - fulfilled
		if outstanding <= 0 {
			continue
		}
		out = append(out, OutstandingLine{
			OrderLineID: line.ID,
			Variant:     line.Variant,
			Quantity:    outstanding,
		})
	}
	return out
}
