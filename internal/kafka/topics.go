package kafka

import (
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicBookingCreated   = "boujee.booking.created"
	TopicBookingCancelled = "boujee.booking.cancelled"
	TopicTicketCheckedIn  = "boujee.ticket.checkedin"
	TopicEmailRequests    = "boujee.notifications.email"
)

// RequiredTopics lists every topic the service publishes to.
func RequiredTopics() []string {
	return []string{
		TopicBookingCreated,
		TopicBookingCancelled,
		TopicTicketCheckedIn,
		TopicEmailRequests,
	}
}

// EnsureTopicsExist creates the topics if they don't already exist.
func EnsureTopicsExist(brokers []string, topics []string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err = controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			log.Printf("Error creating topic %s: %v", topic, err)
			// Keep going; a single failed topic should not block the rest
		} else {
			log.Printf("Created topic: %s", topic)
		}
	}

	// Give the brokers a moment to settle newly created topics
	time.Sleep(1 * time.Second)
	return nil
}
