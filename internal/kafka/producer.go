package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jetemi/ng-pycon/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

func (p *Producer) publish(key string, payload interface{}) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// EventPublisher fans ticketing events out to their topics. Order events are
// keyed by order code, attendee events by attendee ID.
type EventPublisher struct {
	Orders    *Producer
	Attendees *Producer
}

func NewEventPublisher(brokers []string, orderTopic, attendeeTopic string) *EventPublisher {
	return &EventPublisher{
		Orders:    NewProducer(brokers, orderTopic),
		Attendees: NewProducer(brokers, attendeeTopic),
	}
}

// PublishOrderIssued streams a freshly assembled basket to Kafka
func (e *EventPublisher) PublishOrderIssued(event models.OrderEvent) error {
	event.Type = models.EventOrderIssued
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	fmt.Printf("Publishing to Kafka [%s]: order %s\n", event.Type, event.OrderCode)
	return e.Orders.publish(event.OrderCode, event)
}

// PublishOrderSettled streams a confirmed payment to Kafka
func (e *EventPublisher) PublishOrderSettled(event models.OrderEvent) error {
	event.Type = models.EventOrderSettled
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	fmt.Printf("Publishing to Kafka [%s]: order %s\n", event.Type, event.OrderCode)
	return e.Orders.publish(event.OrderCode, event)
}

// PublishAttendeeAssigned streams an attendee assignment to Kafka
func (e *EventPublisher) PublishAttendeeAssigned(event models.AttendeeEvent) error {
	event.Type = models.EventAttendeeAssigned
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	fmt.Printf("Publishing to Kafka [%s]: attendee %s\n", event.Type, event.AttendeeID)
	return e.Attendees.publish(event.AttendeeID, event)
}

// PublishAttendeeTransferred streams an attendee hand-over to Kafka
func (e *EventPublisher) PublishAttendeeTransferred(event models.AttendeeEvent) error {
	event.Type = models.EventAttendeeTransferred
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	fmt.Printf("Publishing to Kafka [%s]: attendee %s\n", event.Type, event.AttendeeID)
	return e.Attendees.publish(event.AttendeeID, event)
}

func (e *EventPublisher) Close() error {
	if err := e.Orders.Close(); err != nil {
		return err
	}
	return e.Attendees.Close()
}
