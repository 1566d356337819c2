package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/models"
	"github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
}

// NewProducer returns a producer that can publish to any topic on the
// given brokers.
func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer}
}

// Publish writes a single message to the given topic.
func (p *Producer) Publish(topic, key string, value []byte) error {
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

// PublishBookingCreated streams a booking creation event.
func (p *Producer) PublishBookingCreated(booking models.Booking) error {
	msgBytes, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	return p.Publish(TopicBookingCreated, booking.BookingID, msgBytes)
}

// PublishBookingCancelled streams a booking cancellation event.
func (p *Producer) PublishBookingCancelled(booking models.Booking) error {
	msgBytes, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	return p.Publish(TopicBookingCancelled, booking.BookingID, msgBytes)
}

// PublishTicketCheckedIn streams a check-in log entry.
func (p *Producer) PublishTicketCheckedIn(entry models.CheckIn) error {
	msgBytes, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return p.Publish(TopicTicketCheckedIn, entry.TicketID, msgBytes)
}

func (p *Producer) Close() error {
	if p.Writer == nil {
		return nil
	}
	if err := p.Writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
