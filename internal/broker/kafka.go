package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"alertbridge/internal/config"
	"alertbridge/internal/constants"
	"alertbridge/internal/logger"
	"alertbridge/pkg/metrics"
	"alertbridge/pkg/tracing"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger logger.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           constants.KafkaBatchTimeout,
		WriteTimeout:           constants.KafkaWriteTimeout,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
	return &KafkaPublisher{writer: w, topic: cfg.Topic, logger: log}
}

// Publish writes the event keyed by channel id so events for one channel
// stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event TicketEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}}
	headers = tracing.InjectTraceContext(ctx, headers)

	start := time.Now()
	err = p.writer.WriteMessages(ctx,
		kafka.Message{
			Topic:   p.topic,
			Key:     []byte(event.ChannelID),
			Value:   body,
			Headers: headers,
			Time:    event.CreatedAt,
		},
	)
	metrics.ObserveKafkaWriteDuration(p.topic, time.Since(start))

	if err != nil {
		metrics.IncEventPublished(p.topic, "error")
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	metrics.IncEventPublished(p.topic, "success")
	p.logger.DebugwCtx(ctx, "Published ticket event",
		"topic", p.topic,
		"event_id", event.ID,
		"issue_key", event.IssueKey,
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
