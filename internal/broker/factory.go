package broker

import (
	"context"
	"fmt"

	"alertbridge/internal/config"
	"alertbridge/internal/constants"
	"alertbridge/internal/logger"
)

func NewPublisher(cfg config.BrokerConfig, log logger.Logger) (Publisher, error) {
	switch cfg.Type {
	case constants.BrokerTypeNone, "":
		return NopPublisher{}, nil
	case constants.BrokerTypeKafka:
		return NewKafkaPublisher(cfg.Kafka, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, _ TicketEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
