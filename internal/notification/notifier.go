// Package notification bridges the booking core to the external email
// service. Messages are published to a Kafka topic the mailer consumes;
// delivery problems are logged and never fail the originating request.
package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/VeroC12-hub/boujee-events-sub002/internal/kafka"
	"github.com/VeroC12-hub/boujee-events-sub002/internal/logger"
)

type EmailRequest struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Notifier struct {
	Producer *kafka.Producer
	Logger   *logger.Logger
}

func NewNotifier(producer *kafka.Producer, log *logger.Logger) *Notifier {
	return &Notifier{Producer: producer, Logger: log}
}

func (n *Notifier) publish(emailType, bookingID string) {
	req := EmailRequest{
		Type:      emailType,
		BookingID: bookingID,
		CreatedAt: time.Now().UTC(),
	}

	msgBytes, err := json.Marshal(req)
	if err != nil {
		n.Logger.Error("NOTIFY", fmt.Sprintf("Failed to marshal %s request: %v", emailType, err))
		return
	}

	if err := n.Producer.Publish(kafka.TopicEmailRequests, bookingID, msgBytes); err != nil {
		n.Logger.Error("NOTIFY", fmt.Sprintf("Failed to publish %s request for booking %s: %v", emailType, bookingID, err))
		return
	}
	n.Logger.LogKafka("PUBLISH", kafka.TopicEmailRequests, emailType+" queued for booking "+bookingID)
}

// SendBookingConfirmation queues the confirmation email for a new booking.
func (n *Notifier) SendBookingConfirmation(bookingID string) {
	n.publish("booking_confirmation", bookingID)
}

// SendCheckInComplete queues the notification sent once every ticket of a
// booking has been checked in.
func (n *Notifier) SendCheckInComplete(bookingID string) {
	n.publish("checkin_complete", bookingID)
}
