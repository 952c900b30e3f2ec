package natsstan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	stan "github.com/nats-io/stan.go"

	"github.com/example/pod-fulfillment-service/internal/config"
	"github.com/example/pod-fulfillment-service/internal/domain"
)

const (
	queueGroup     = "pod-fulfillment-workers"
	handlerTimeout = 30 * time.Second
	ackWait        = 60 * time.Second
)

// Subscriber доставляет вебхуки партнёра из очереди STAN.
type Subscriber struct {
	Config config.StanConfig
	Logger *slog.Logger
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	logger := s.logger()
	sc, err := connect(s.Config, "pod-fulfillment-svc")
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		sc.Close()
	}()
	_, err = sc.QueueSubscribe(s.Config.Subject, queueGroup, func(m *stan.Msg) {
		deliver(ctx, logger, handler, m.Data, m.Ack)
	}, stan.DurableName(s.Config.Durable), stan.SetManualAckMode(), stan.AckWait(ackWait), stan.DeliverAllAvailable())
	if err != nil {
		return err
	}
	logger.Info("subscribed", "subject", s.Config.Subject, "queue", queueGroup, "durable", s.Config.Durable)
	return nil
}

// deliver подтверждает сообщение только при успешной обработке.
func deliver(ctx context.Context, logger *slog.Logger, handler func(ctx context.Context, raw []byte) error, data []byte, ack func() error) {
	hCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
	defer cancel()
	if err := handler(hCtx, data); err != nil {
		// не подтверждаем, даём сообщению переотправиться
		logger.Warn("handler error, message left for redelivery", "err", err)
		return
	}
	if err := ack(); err != nil {
		logger.Error("ack failed", "err", err)
	}
}

func (s *Subscriber) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger.With("component", "natsstan")
}

func connect(cfg config.StanConfig, prefix string) (stan.Conn, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return stan.Connect(cfg.ClusterID, clientID, stan.NatsURL(cfg.URL))
}

var _ domain.MessageSubscriber = (*Subscriber)(nil)
