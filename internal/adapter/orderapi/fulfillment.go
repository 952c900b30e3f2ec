package orderapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

const (
	modernMutationField = "createFulfillment"
	legacyMutationField = "addFulfillmentToOrder"
)

const mutationFieldsQuery = `
query mutationFields {
	__type(name: "Mutation") {
		fields { name }
	}
}`

const fulfillmentResultFields = `
	__typename
	... on Fulfillment { id state method trackingCode }
	... on ErrorResult { errorCode message }
	... on FulfillmentStateTransitionError { transitionError fromState toState }`

// FulfillmentCapability определяет форму мутации создания отгрузки.
// Результат кешируется только в этом клиенте.
func (c *Client) FulfillmentCapability(ctx context.Context) (domain.MutationShape, error) {
	c.mu.Lock()
	if c.shapeSet {
		shape := c.shape
		c.mu.Unlock()
		return shape, nil
	}
	c.mu.Unlock()

	var data mutationFieldsData
	if err := c.graphqlRequest(ctx, mutationFieldsQuery, nil, &data); err != nil {
		return domain.MutationUnsupported, err
	}

	shape := domain.MutationUnsupported
	if data.Type != nil {
		names := make(map[string]bool, len(data.Type.Fields))
		for _, f := range data.Type.Fields {
			names[f.Name] = true
		}
		switch {
		case names[modernMutationField]:
			shape = domain.MutationModern
		case names[legacyMutationField]:
			shape = domain.MutationLegacy
		}
	}

	c.mu.Lock()
	c.shape, c.shapeSet = shape, true
	c.mu.Unlock()
	c.logger.Info("fulfillment capability probed", "shape", shape.String())
	return shape, nil
}

// mutationBuilder собирает текст мутации и переменные для одной формы.
type mutationBuilder func(input domain.FulfillmentInput) (field, query string, variables map[string]any)

var mutationBuilders = map[domain.MutationShape]mutationBuilder{
	domain.MutationModern: buildModernMutation,
	domain.MutationLegacy: buildLegacyMutation,
}

func buildModernMutation(input domain.FulfillmentInput) (string, string, map[string]any) {
	query := `
mutation createFulfillment($input: CreateFulfillmentInput!) {
	createFulfillment(input: $input) {` + fulfillmentResultFields + `
	}
}`
	return modernMutationField, query, map[string]any{
		"input": map[string]any{
			"orderId":     input.OrderID,
			"handlerCode": input.HandlerCode,
			"lines":       fulfillmentLines(input.Lines),
			"arguments":   handlerArguments(input),
		},
	}
}

func buildLegacyMutation(input domain.FulfillmentInput) (string, string, map[string]any) {
	query := `
mutation addFulfillmentToOrder($input: FulfillOrderInput!) {
	addFulfillmentToOrder(input: $input) {` + fulfillmentResultFields + `
	}
}`
	return legacyMutationField, query, map[string]any{
		"input": map[string]any{
			"lines": fulfillmentLines(input.Lines),
			"handler": map[string]any{
				"code":      input.HandlerCode,
				"arguments": handlerArguments(input),
			},
		},
	}
}

func fulfillmentLines(lines []domain.FulfillmentLine) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		out = append(out, map[string]any{"orderLineId": l.OrderLineID, "quantity": l.Quantity})
	}
	return out
}

func handlerArguments(input domain.FulfillmentInput) []map[string]string {
	return []map[string]string{
		{"name": "method", "value": input.Method},
		{"name": "trackingCode", "value": input.TrackingCode},
	}
}

// CreateFulfillment вызывает мутацию указанной формы. Структурные ошибки
// Order System возвращаются в результате, транспортные как error.
func (c *Client) CreateFulfillment(ctx context.Context, shape domain.MutationShape, input domain.FulfillmentInput) (domain.FulfillmentResult, error) {
	build, ok := mutationBuilders[shape]
	if !ok {
		return domain.FulfillmentResult{}, domain.ErrUnsupportedBackend
	}
	field, query, variables := build(input)

	var raw json.RawMessage
	if err := c.graphqlRequest(ctx, query, variables, &raw); err != nil {
		return domain.FulfillmentResult{}, err
	}
	dto, err := resultData(raw, field)
	if err != nil {
		return domain.FulfillmentResult{}, fmt.Errorf("decode %s result: %w", field, err)
	}
	return toFulfillmentResult(dto), nil
}

func toFulfillmentResult(dto fulfillmentResultDTO) domain.FulfillmentResult {
	if dto.Typename == "Fulfillment" || (dto.Typename == "" && dto.ID != "" && dto.ErrorCode == "") {
		return domain.FulfillmentResult{
			Success:       true,
			FulfillmentID: dto.ID,
			State:         domain.FulfillmentState(dto.State),
			Method:        dto.Method,
		}
	}
	code := dto.ErrorCode
	if code == "" {
		code = dto.Typename
	}
	return domain.FulfillmentResult{
		ErrorCode:       code,
		Message:         dto.Message,
		TransitionError: dto.TransitionError,
		FromState:       dto.FromState,
		ToState:         dto.ToState,
	}
}

const transitionMutation = `
mutation transitionFulfillmentToState($id: ID!, $state: String!) {
	transitionFulfillmentToState(id: $id, state: $state) {` + fulfillmentResultFields + `
	}
}`

// TransitionFulfillment переводит отгрузку в новое состояние. Отказ
// Order System возвращается как *domain.TransitionError.
func (c *Client) TransitionFulfillment(ctx context.Context, fulfillmentID string, state domain.FulfillmentState) (domain.Fulfillment, error) {
	var raw json.RawMessage
	err := c.graphqlRequest(ctx, transitionMutation, map[string]any{
		"id":    fulfillmentID,
		"state": string(state),
	}, &raw)
	if err != nil {
		return domain.Fulfillment{}, err
	}
	dto, err := resultData(raw, "transitionFulfillmentToState")
	if err != nil {
		return domain.Fulfillment{}, fmt.Errorf("decode transition result: %w", err)
	}

	res := toFulfillmentResult(dto)
	if !res.Success {
		from := res.FromState
		to := res.ToState
		if to == "" {
			to = string(state)
		}
		msg := res.FailureMessage()
		return domain.Fulfillment{}, &domain.TransitionError{
			FulfillmentID: fulfillmentID,
			FromState:     from,
			ToState:       to,
			Message:       msg,
		}
	}
	return domain.Fulfillment{
		ID:           res.FulfillmentID,
		State:        res.State,
		Method:       res.Method,
		TrackingCode: dto.TrackingCode,
	}, nil
}

const trackingMutation = `
mutation updateFulfillmentTracking($input: UpdateFulfillmentTrackingInput!) {
	updateFulfillmentTracking(input: $input) {
		__typename
		... on Fulfillment { id trackingCode }
		... on ErrorResult { errorCode message }
	}
}`

func (c *Client) UpdateFulfillmentTracking(ctx context.Context, fulfillmentID string, tracking domain.TrackingInfo) error {
	var raw json.RawMessage
	err := c.graphqlRequest(ctx, trackingMutation, map[string]any{
		"input": map[string]any{
			"id":           fulfillmentID,
			"carrier":      strings.TrimSpace(tracking.Carrier),
			"trackingCode": strings.TrimSpace(tracking.Code),
		},
	}, &raw)
	if err != nil {
		return err
	}
	dto, err := resultData(raw, "updateFulfillmentTracking")
	if err != nil {
		return fmt.Errorf("decode tracking result: %w", err)
	}
	if dto.ErrorCode != "" || (dto.Typename != "" && dto.Typename != "Fulfillment") {
		return fmt.Errorf("order api updateFulfillmentTracking failed: %s", toFulfillmentResult(dto).FailureMessage())
	}
	return nil
}
