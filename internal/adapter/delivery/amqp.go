package delivery

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher hands deliveries to the messaging channel through a durable queue.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel publishChannel
	queue   string
	logger  *slog.Logger
}

// NewAMQPPublisher dials the broker and declares the delivery queue.
func NewAMQPPublisher(url, queue string, logger *slog.Logger) (*AMQPPublisher, error) {
	if queue == "" {
		return nil, fmt.Errorf("amqp queue must be provided")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare amqp queue: %w", err)
	}
	p := newAMQPPublisher(ch, queue, logger)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch publishChannel, queue string, logger *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{channel: ch, queue: queue, logger: logger}
}

// Deliver publishes the card code for the buyer.
func (p *AMQPPublisher) Deliver(ctx context.Context, req model.DeliveryRequest) error {
	return p.publish(ctx, deliveryMessage(req))
}

// NotifySuspension publishes a suspension notice for the buyer.
func (p *AMQPPublisher) NotifySuspension(ctx context.Context, notice model.SuspensionNotice) error {
	return p.publish(ctx, noticeMessage(notice))
}

func (p *AMQPPublisher) publish(ctx context.Context, m Message) error {
	body, err := encode(m)
	if err != nil {
		return err
	}
	err = p.channel.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		MessageId:    m.ID(),
		Type:         m.Kind,
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("publish %s to amqp: %w", m.Kind, err)
	}
	p.logger.Debug("message published", slog.String("queue", p.queue), slog.String("id", m.ID()))
	return nil
}

// Close releases the channel and the connection.
func (p *AMQPPublisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
