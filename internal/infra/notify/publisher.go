package notify

import (
	"context"

	"tutorbook/internal/pkg/config"
	"tutorbook/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventPublisher pushes booking lifecycle events onto a topic exchange. The
// outbox worker is the only producer; consumers (mail, push, analytics) bind
// their own queues with the routing keys they care about.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, body []byte) error
	Close() error
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(cfg config.AMQPConfig) (EventPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, errs.Wrap(err, "failed to dial amqp broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errs.Wrap(err, "failed to open amqp channel")
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errs.Wrap(err, "failed to declare exchange")
	}
	return &amqpPublisher{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, topic string, body []byte) error {
	return p.ch.PublishWithContext(ctx, p.exchange, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *amqpPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
