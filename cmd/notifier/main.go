package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"resbook/internal/notifier"
	resourceRepository "resbook/internal/resources/repository"
	"resbook/pkg/config"
	"resbook/pkg/kafka"
	kafka_config "resbook/pkg/kafka/config"
	kafka_middleware "resbook/pkg/kafka/middleware"
)

const ServiceName = "notifier"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.Client.GracefulShutdown()

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(func(msg string, args ...any) { cfg.Log.Info(msg, args...) })

	n := notifier.New(
		resourceRepository.NewMongoResourceRepository(cfg),
		buildMailer(cfg),
		cfg.Log,
	)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.BookingEventsTopic,
		cfg.NotifierGroupID,
		cfg.BookingEventsDLQTopic,
		n.HandleMessage,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create consumer", "error", err)
	}
	defer consumer.Close()

	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware())
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cfg.Log.Info("Shutting down notifier")
		cancel()
	}()

	cfg.Log.Info("Notifier started",
		"topic", cfg.BookingEventsTopic,
		"group_id", cfg.NotifierGroupID,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}
}

// buildMailer returns an SMTP mailer when SMTP is configured and a
// log-only mailer otherwise, so local runs work without a mail server.
func buildMailer(cfg *config.Config) notifier.Mailer {
	if cfg.SMTPHost == "" {
		cfg.Log.Warn("SMTP host not configured, emails will be logged instead of sent")
		return notifier.NewLogMailer(cfg.Log)
	}
	return notifier.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
}
