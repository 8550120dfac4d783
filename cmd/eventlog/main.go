// Command eventlog tails the company event topic and logs every change.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/billy/internal/company/config"
	"github.com/gartstein/billy/internal/company/events"
	"github.com/gartstein/billy/internal/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required")
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, cfg.Topic, logger)
	defer consumer.Close()

	consumer.RegisterHandler(func(_ context.Context, event events.Event) error {
		fields := []zap.Field{zap.String("type", string(event.Type))}
		if event.Company != nil {
			fields = append(fields,
				zap.String("guid", event.Company.GUID),
				zap.Bool("deleted", event.Company.Deleted),
				zap.Time("updated_at", event.Company.UpdatedAt),
			)
		}
		logger.Info("company event", fields...)
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", zap.Error(err))
	}
	logger.Info("eventlog stopped")
}
