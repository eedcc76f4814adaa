package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"tabeya-be/internal/logger"
	"tabeya-be/internal/metrics"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the part of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink buffers events and publishes them from a single goroutine, keyed
// by customer id so one customer's events keep their order on a partition.
type KafkaSink struct {
	w       MessageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
	once    sync.Once
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

func NewKafkaSink(w MessageWriter, buf int) *KafkaSink {
	if buf <= 0 {
		buf = 256
	}
	s := &KafkaSink{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *KafkaSink) loop() {
	defer close(s.closeCh)
	for m := range s.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := s.w.WriteMessages(ctx, m); err != nil {
			metrics.AuditFailures.Inc()
			logger.L().Error("failed to publish audit event",
				zap.String("sink", "kafka"),
				zap.ByteString("key", m.Key),
				zap.Error(err),
			)
		}
		cancel()
	}
	if err := s.w.Close(); err != nil {
		logger.L().Warn("kafka writer close failed", zap.Error(err))
	}
}

// Record enqueues without blocking. A full buffer drops the event.
func (s *KafkaSink) Record(ctx context.Context, e Event) {
	body, err := json.Marshal(e)
	if err != nil {
		metrics.AuditFailures.Inc()
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.ActorID, 10)),
		Value: body,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(e.Action)},
			{Key: "request_id", Value: []byte(logger.RequestIDFrom(ctx))},
		},
	}

	select {
	case s.inbox <- msg:
	default:
		metrics.AuditFailures.Inc()
		logger.FromCtx(ctx).Warn("audit buffer full, event dropped",
			zap.String("sink", "kafka"),
			zap.String("action", e.Action),
		)
	}
}

// Close flushes buffered events and waits for the writer to shut down.
// Record must not be called after Close.
func (s *KafkaSink) Close() {
	s.once.Do(func() { close(s.inbox) })
	<-s.closeCh
}
