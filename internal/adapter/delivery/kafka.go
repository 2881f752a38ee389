package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/polkiloo/cardshop/internal/domain/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher hands deliveries to the messaging channel through a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers must be provided")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic must be provided")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, topic, logger), nil
}

func newKafkaPublisher(w messageWriter, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, logger: logger, now: time.Now}
}

// Deliver publishes the card code for the buyer.
func (p *KafkaPublisher) Deliver(ctx context.Context, req model.DeliveryRequest) error {
	return p.publish(ctx, deliveryMessage(req))
}

// NotifySuspension publishes a suspension notice for the buyer.
func (p *KafkaPublisher) NotifySuspension(ctx context.Context, notice model.SuspensionNotice) error {
	return p.publish(ctx, noticeMessage(notice))
}

func (p *KafkaPublisher) publish(ctx context.Context, m Message) error {
	body, err := encode(m)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(m.Key()),
		Value:   body,
		Time:    p.now(),
		Headers: []kafka.Header{{Key: "kind", Value: []byte(m.Kind)}},
	})
	if err != nil {
		return fmt.Errorf("publish %s to kafka: %w", m.Kind, err)
	}
	p.logger.Debug("message published", slog.String("topic", p.topic), slog.String("id", m.ID()))
	return nil
}

// Close flushes pending writes.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
