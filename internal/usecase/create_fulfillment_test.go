package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pod-fulfillment-service/internal/domain"
)

func fulfillmentInput() domain.FulfillmentInput {
	return domain.FulfillmentInput{
		OrderID:     "17",
		HandlerCode: "printify-handler",
		Method:      "print-partner #P-1",
		Lines:       []domain.FulfillmentLine{{OrderLineID: "L1", Quantity: 2}},
	}
}

func TestCreateFulfillmentSuccess(t *testing.T) {
	orders := &fakeOrders{shape: domain.MutationModern}

	out, err := CreateFulfillment{Orders: orders}.Execute(context.Background(), fulfillmentInput())
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, "F1", out.FulfillmentID)
	assert.Equal(t, domain.FulfillmentPending, out.State)
	assert.Equal(t, "print-partner #P-1", out.Method)
	assert.False(t, out.Retried)
	assert.Equal(t, []domain.MutationShape{domain.MutationModern}, orders.shapes)
}

func TestCreateFulfillmentRetriesInvalidHandlerOnce(t *testing.T) {
	tests := []struct {
		name   string
		result domain.FulfillmentResult
	}{
		{name: "error code", result: domain.FulfillmentResult{ErrorCode: "INVALID_FULFILLMENT_HANDLER", Message: "No FulfillmentHandler with the code \"printify-handler\" could be found"}},
		{name: "typename in message", result: domain.FulfillmentResult{Message: "InvalidFulfillmentHandlerError"}},
		{name: "lower case", result: domain.FulfillmentResult{ErrorCode: "invalid_fulfillment_handler"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{
				shape: domain.MutationLegacy,
				results: []domain.FulfillmentResult{
					tt.result,
					{Success: true, FulfillmentID: "F9", State: domain.FulfillmentPending, Method: "manual"},
				},
			}

			out, err := CreateFulfillment{Orders: orders}.Execute(context.Background(), fulfillmentInput())
			require.NoError(t, err)

			require.Len(t, orders.creates, 2)
			assert.Equal(t, "printify-handler", orders.creates[0].HandlerCode)
			assert.Equal(t, domain.ManualFulfillmentHandler, orders.creates[1].HandlerCode)
			retry := orders.creates[1]
			retry.HandlerCode = orders.creates[0].HandlerCode
			assert.Equal(t, orders.creates[0], retry, "retry keeps every other field")
			assert.True(t, out.Success)
			assert.True(t, out.Retried)
			assert.Equal(t, "F9", out.FulfillmentID)
			assert.Equal(t, domain.ManualFulfillmentHandler, out.HandlerCode)
		})
	}
}

func TestCreateFulfillmentNoRetryOnOtherErrors(t *testing.T) {
	orders := &fakeOrders{
		shape: domain.MutationModern,
		results: []domain.FulfillmentResult{{
			ErrorCode:       "FULFILLMENT_STATE_TRANSITION_ERROR",
			Message:         "Cannot transition Fulfillment from \"Created\" to \"Pending\"",
			TransitionError: "Payment not settled",
		}},
	}

	out, err := CreateFulfillment{Orders: orders}.Execute(context.Background(), fulfillmentInput())
	require.NoError(t, err)

	assert.Len(t, orders.creates, 1)
	assert.False(t, out.Success)
	assert.Equal(t, "Cannot transition Fulfillment from \"Created\" to \"Pending\" — Payment not settled", out.Message)
}

func TestCreateFulfillmentRetryFailureIsReported(t *testing.T) {
	orders := &fakeOrders{
		shape: domain.MutationModern,
		results: []domain.FulfillmentResult{
			{ErrorCode: "INVALID_FULFILLMENT_HANDLER", Message: "unknown handler"},
			{ErrorCode: "INVALID_FULFILLMENT_HANDLER", Message: "still unknown"},
		},
	}

	out, err := CreateFulfillment{Orders: orders}.Execute(context.Background(), fulfillmentInput())
	require.NoError(t, err)

	assert.Len(t, orders.creates, 2, "exactly one retry")
	assert.False(t, out.Success)
	assert.True(t, out.Retried)
	assert.Equal(t, "still unknown", out.Message)
}

func TestCreateFulfillmentRetryTransportError(t *testing.T) {
	orders := &fakeOrders{
		shape:      domain.MutationModern,
		results:    []domain.FulfillmentResult{{ErrorCode: "INVALID_FULFILLMENT_HANDLER", Message: "unknown handler"}},
		createErrs: []error{nil, errTransport},
	}

	out, err := CreateFulfillment{Orders: orders}.Execute(context.Background(), fulfillmentInput())
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Equal(t, errTransport.Error(), out.Message)
}

func TestCreateFulfillmentManualHandlerIsNotRetried(t *testing.T) {
	orders := &fakeOrders{
		shape:   domain.MutationModern,
		results: []domain.FulfillmentResult{{ErrorCode: "INVALID_FULFILLMENT_HANDLER", Message: "unknown handler"}},
	}
	input := fulfillmentInput()
	input.HandlerCode = domain.ManualFulfillmentHandler

	out, err := CreateFulfillment{Orders: orders}.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Len(t, orders.creates, 1)
	assert.False(t, out.Success)
}

func TestCreateFulfillmentUnsupportedBackend(t *testing.T) {
	orders := &fakeOrders{shape: domain.MutationUnsupported}

	_, err := CreateFulfillment{Orders: orders}.Execute(context.Background(), fulfillmentInput())

	assert.ErrorIs(t, err, domain.ErrUnsupportedBackend)
	assert.Empty(t, orders.creates)
}

func TestCreateFulfillmentTransportErrors(t *testing.T) {
	_, err := CreateFulfillment{Orders: &fakeOrders{probeErr: errTransport}}.Execute(context.Background(), fulfillmentInput())
	assert.ErrorIs(t, err, errTransport)

	_, err = CreateFulfillment{Orders: &fakeOrders{shape: domain.MutationModern, createErrs: []error{errTransport}}}.Execute(context.Background(), fulfillmentInput())
	assert.ErrorIs(t, err, errTransport)
}
