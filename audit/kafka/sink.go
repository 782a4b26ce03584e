// Package kafka publishes engine audit events to a Kafka topic.
//
// Events are JSON encoded and keyed by identity, so one account's events stay
// ordered within a partition. The writer runs in async mode: Emit only queues
// the message, and kafka-go batches and publishes it in the background.
// Publish failures are reported through the writer's completion callback,
// logged and counted.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	goBank "github.com/MrEthical07/goBank"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives audit events when no topic is configured.
const DefaultTopic = "bank_audit"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink is a goBank.AuditSink backed by a kafka-go Writer.
type Sink struct {
	writer messageWriter
	logger *slog.Logger
	failed atomic.Uint64
}

var _ goBank.AuditSink = (*Sink)(nil)

// NewSink returns a Sink writing to topic on brokers.
func NewSink(brokers []string, topic string, logger *slog.Logger) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers")
	}
	if topic == "" {
		topic = DefaultTopic
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}
	s := newSink(w, logger)
	w.Completion = s.completed
	return s, nil
}

// completed receives the outcome of each async batch.
func (s *Sink) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	s.failed.Add(uint64(len(msgs)))
	s.logger.Warn("audit publish failed", "messages", len(msgs), "err", err)
}

func newSink(w messageWriter, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sink{writer: w, logger: logger}
}

// Emit queues event for publishing. It does not wait for the broker.
func (s *Sink) Emit(ctx context.Context, event goBank.AuditEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		s.failed.Add(1)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.Identity),
		Value: data,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.failed.Add(1)
		s.logger.WarnContext(ctx, "audit publish failed", "event_id", event.ID, "event_type", event.EventType, "err", err)
	}
}

// Failed returns the number of events that could not be published.
func (s *Sink) Failed() uint64 {
	return s.failed.Load()
}

// Close flushes queued messages and closes the writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}
