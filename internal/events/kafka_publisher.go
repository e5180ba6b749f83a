package events

import (
	"context"

	"resbook/pkg/config"
	"resbook/pkg/kafka"
	kafka_config "resbook/pkg/kafka/config"
	kafka_middleware "resbook/pkg/kafka/middleware"
)

// kafkaPublisher writes booking events keyed by resource ID, so all
// events for one resource land on the same partition in order.
type kafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(cfg *config.Config, kafkaCfg *kafka_config.Config) (Publisher, error) {
	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic)
	if err != nil {
		return nil, err
	}

	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware())
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}

	return &kafkaPublisher{producer: producer}, nil
}

func (p *kafkaPublisher) PublishBookingEvent(ctx context.Context, event BookingEvent) error {
	msg := kafka.NewMessage().
		WithKey(event.Booking.ResourceID).
		WithValue(event).
		WithEventType(event.EventType()).
		WithSource("resbook").
		WithSchemaVersion("1").
		Build()

	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}
