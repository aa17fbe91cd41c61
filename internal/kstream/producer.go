// Package kstream publishes search traffic and conversion events to Kafka for
// downstream analytics.
package kstream

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// kafkaWriter constructs a Kafka producer using segmentio/kafka-go.
// kafka.Writer provides async publishing with automatic batching and retries.
func kafkaWriter(topic string) *kafka.Writer {
	broker := getenv("KAFKA_BROKER", "kafka:9092")
	return &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ConversionEvent records a completed search that produced products for a
// known contact, for conversion-rate tracking.
type ConversionEvent struct {
	ID           uuid.UUID `json:"id"`
	Type         string    `json:"type"`
	ContactURN   string    `json:"contact_urn"`
	ChannelUUID  string    `json:"channel_uuid"`
	Query        string    `json:"query"`
	ProductCount int       `json:"product_count"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// PublishSearchRequest persists /search calls on a Kafka topic.
func PublishSearchRequest(ctx context.Context, payload any) error {
	w := kafkaWriter("concierge.search.requests")
	defer w.Close()

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Value: data,
		Time:  time.Now(),
	}
	return w.WriteMessages(ctx, msg)
}

// PublishConversion publishes a conversion event. Messages are keyed by
// contact URN so events for one contact stay ordered.
func PublishConversion(ctx context.Context, evt ConversionEvent) error {
	w := kafkaWriter("concierge.conversions")
	defer w.Close()

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(evt.ContactURN),
		Value: data,
		Time:  evt.OccurredAt,
	}
	return w.WriteMessages(ctx, msg)
}
