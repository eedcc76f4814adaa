package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"tabeya-be/internal/logger"
	"tabeya-be/internal/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher is the part of *amqp.Channel the sink needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes each event to a queue on the default exchange.
type AMQPSink struct {
	ch    Publisher
	queue string
}

func NewAMQPSink(ch Publisher, queue string) *AMQPSink {
	return &AMQPSink{ch: ch, queue: queue}
}

// DialAMQP connects, opens a channel and declares a durable queue. The caller
// closes the returned connection on shutdown.
func DialAMQP(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	return conn, ch, nil
}

func (s *AMQPSink) Record(ctx context.Context, e Event) {
	body, err := json.Marshal(e)
	if err != nil {
		metrics.AuditFailures.Inc()
		return
	}

	ctx, cancel := detach(ctx)
	defer cancel()

	err = s.ch.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.OccurredAt,
		Type:         e.Action,
		Body:         body,
	})
	if err != nil {
		metrics.AuditFailures.Inc()
		logger.FromCtx(ctx).Error("failed to publish audit event",
			zap.String("sink", "amqp"),
			zap.String("queue", s.queue),
			zap.Error(err),
		)
	}
}
