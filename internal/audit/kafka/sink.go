// Package kafka publishes audit events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"neokyc/internal/audit"
)

// DefaultTopic receives audit events when no topic is configured.
const DefaultTopic = "neokyc.audit"

// Message is the JSON body of a published audit event.
type Message struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Device     string    `json:"device,omitempty"`
	ClientIP   string    `json:"client_ip,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewMessage converts an audit event to its wire form.
func NewMessage(event audit.Event) Message {
	return Message{
		ID:         event.ID.String(),
		Action:     string(event.Action),
		Actor:      event.Actor,
		CustomerID: event.CustomerID,
		Detail:     event.Detail,
		RequestID:  event.RequestID,
		Device:     event.Device,
		ClientIP:   event.ClientIP,
		Timestamp:  event.Timestamp,
	}
}

// Sink implements audit.Sink with a franz-go producer. Records are keyed
// by customer ID so one customer's events stay ordered.
type Sink struct {
	client *kgo.Client
	topic  string
}

// NewSink connects a producer to the given seed brokers.
func NewSink(brokers []string, topic string) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no seed brokers")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordRetries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// EnsureTopic creates the audit topic, treating an existing topic as success.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replicas int16) error {
	admin := kadm.NewClient(s.client)
	resp, err := admin.CreateTopics(ctx, partitions, replicas, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", s.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(NewMessage(event))
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.CustomerID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Topic returns the destination topic.
func (s *Sink) Topic() string {
	return s.topic
}

// Close flushes buffered records and closes the client.
func (s *Sink) Close(ctx context.Context) {
	_ = s.client.Flush(ctx)
	s.client.Close()
}
