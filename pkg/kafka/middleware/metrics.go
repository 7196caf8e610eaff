package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"yoyaku/pkg/kafka"
	"yoyaku/pkg/logger"
)

// Metrics counts publish and consume outcomes for one producer or consumer.
// Counters are atomics so the middleware never serializes the hot path.
type Metrics struct {
	MessagesPublished       int64
	MessagesPublishedFailed int64
	PublishDurationTotal    int64 // nanoseconds

	MessagesConsumed       int64
	MessagesConsumedFailed int64
	ConsumeDurationTotal   int64 // nanoseconds
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.MessagesPublished, 0)
	atomic.StoreInt64(&m.MessagesPublishedFailed, 0)
	atomic.StoreInt64(&m.PublishDurationTotal, 0)
	atomic.StoreInt64(&m.MessagesConsumed, 0)
	atomic.StoreInt64(&m.MessagesConsumedFailed, 0)
	atomic.StoreInt64(&m.ConsumeDurationTotal, 0)
}

func (m *Metrics) AvgPublishDuration() time.Duration {
	published := atomic.LoadInt64(&m.MessagesPublished)
	if published == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.PublishDurationTotal) / published)
}

func (m *Metrics) AvgConsumeDuration() time.Duration {
	consumed := atomic.LoadInt64(&m.MessagesConsumed)
	if consumed == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.ConsumeDurationTotal) / consumed)
}

// LogSnapshot emits the current counters. Intended for shutdown paths.
func (m *Metrics) LogSnapshot(log *logger.Logger) {
	log.Info("Kafka metrics",
		"published", atomic.LoadInt64(&m.MessagesPublished),
		"publish_failed", atomic.LoadInt64(&m.MessagesPublishedFailed),
		"avg_publish_duration", m.AvgPublishDuration().String(),
		"consumed", atomic.LoadInt64(&m.MessagesConsumed),
		"consume_failed", atomic.LoadInt64(&m.MessagesConsumedFailed),
		"avg_consume_duration", m.AvgConsumeDuration().String(),
	)
}

func MetricsProducerMiddleware(m *Metrics) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		atomic.AddInt64(&m.PublishDurationTotal, int64(time.Since(start)))

		if err != nil {
			atomic.AddInt64(&m.MessagesPublishedFailed, 1)
		} else {
			atomic.AddInt64(&m.MessagesPublished, 1)
		}
		return err
	}
}

func MetricsConsumerMiddleware(m *Metrics) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		atomic.AddInt64(&m.ConsumeDurationTotal, int64(time.Since(start)))

		if err != nil {
			atomic.AddInt64(&m.MessagesConsumedFailed, 1)
		} else {
			atomic.AddInt64(&m.MessagesConsumed, 1)
		}
		return err
	}
}
