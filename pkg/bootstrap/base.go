package bootstrap

import (
	"context"
	"fmt"

	"alertbridge/internal/broker"
	"alertbridge/internal/config"
	"alertbridge/internal/logger"
)

// Base holds what every entrypoint needs: config, logger and the ticket
// event publisher.
type Base struct {
	Config    *config.Config
	Logger    logger.Logger
	Publisher broker.Publisher
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

func (b *Base) InitBroker() error {
	publisher, err := broker.NewPublisher(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}

	b.Publisher = publisher
	b.Logger.Infow("Ticket event publisher ready", "type", b.Config.Broker.Type)
	return nil
}

func (b *Base) ShutdownBroker() []error {
	if b.Publisher == nil {
		return nil
	}
	if err := b.Publisher.Close(); err != nil {
		return []error{fmt.Errorf("publisher close error: %w", err)}
	}
	return nil
}

// Shutdown closes the publisher and runs additionalShutdown, collecting
// every error.
func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.InfowCtx(ctx, "Shutting down application")

	var errs []error
	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}
	errs = append(errs, b.ShutdownBroker()...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.InfowCtx(ctx, "Application exited successfully")
	return nil
}
