package natsstan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliverAcksOnlyOnSuccess(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	acks := 0
	ack := func() error { acks++; return nil }

	var got []byte
	deliver(context.Background(), logger, func(_ context.Context, raw []byte) error {
		got = raw
		return nil
	}, []byte(`{"event":"x"}`), ack)
	assert.Equal(t, `{"event":"x"}`, string(got))
	assert.Equal(t, 1, acks)

	deliver(context.Background(), logger, func(context.Context, []byte) error {
		return errors.New("order api down")
	}, []byte(`{}`), ack)
	assert.Equal(t, 1, acks, "failed message is not acked")
}

func TestDeliverSurvivesCancelledParent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var handlerErr error
	deliver(ctx, logger, func(hCtx context.Context, _ []byte) error {
		handlerErr = hCtx.Err()
		return nil
	}, nil, func() error { return errors.New("conn closed") })

	assert.NoError(t, handlerErr)
}
