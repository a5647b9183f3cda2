// Package events publishes booking lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/studio-booking/internal/logger"
	"github.com/Shivanand-hulikatti/studio-booking/internal/model"
	"github.com/segmentio/kafka-go"
)

// TypeBookingCreated is the event type of a committed booking.
const TypeBookingCreated = "booking.created"

// Kafka header keys set on every message.
const (
	HeaderEventType = "event-type"
	HeaderReference = "booking-reference"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// Publisher emits events for committed bookings.
type Publisher interface {
	BookingCreated(ctx context.Context, b model.Booking) error
	Close() error
}

// BookingEvent is the message body.
type BookingEvent struct {
	Type       string        `json:"type"`
	OccurredAt time.Time     `json:"occurred_at"`
	Booking    model.Booking `json:"booking"`
}

// messageWriter is satisfied by *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single topic, keyed by class id so all
// events for one class land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

// NewKafkaPublisher builds a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error(fmt.Sprintf(msg, args...), "component", "kafka")
		}),
	}
	return newKafkaPublisher(w), nil
}

func newKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, now: time.Now}
}

// BookingCreated publishes a booking.created event. The write is abandoned
// when ctx is done.
func (p *KafkaPublisher) BookingCreated(ctx context.Context, b model.Booking) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	msg, err := bookingMessage(b, p.now().UTC())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write booking event: %w", err)
	}
	return nil
}

// Close flushes pending writes and releases the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

func bookingMessage(b model.Booking, at time.Time) (kafka.Message, error) {
	body, err := json.Marshal(BookingEvent{
		Type:       TypeBookingCreated,
		OccurredAt: at,
		Booking:    b,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode booking event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(b.ClassID, 10)),
		Value: body,
		Time:  at,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(TypeBookingCreated)},
			{Key: HeaderReference, Value: []byte(b.Reference.String())},
		},
	}, nil
}

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

// BookingCreated drops the event.
func (Noop) BookingCreated(context.Context, model.Booking) error { return nil }

// Close is a no-op.
func (Noop) Close() error { return nil }
