package natsstan

import (
	stan "github.com/nats-io/stan.go"

	"github.com/example/pod-fulfillment-service/internal/config"
)

// Publisher кладёт события партнёра в очередь.
type Publisher struct {
	conn    stan.Conn
	subject string
}

func NewPublisher(cfg config.StanConfig) (*Publisher, error) {
	sc, err := connect(cfg, "pod-fulfillment-pub")
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: sc, subject: cfg.Subject}, nil
}

func (p *Publisher) Publish(raw []byte) error {
	return p.conn.Publish(p.subject, raw)
}

func (p *Publisher) Subject() string {
	return p.subject
}

func (p *Publisher) Close() error {
	return p.conn.Close()
}
