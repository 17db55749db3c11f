// Package kafka ships audit events to a Kafka topic with franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "numerano/pkg/platform/audit"
)

// Producer is the subset of *kgo.Client the store needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Store publishes each event as a JSON record keyed by registration id, so
// a registration's events stay ordered within one partition. Kafka is
// write-only here; ListByRegistration reads from the fallback store.
type Store struct {
	producer Producer
	topic    string
	reader   audit.Store
}

// New builds a Kafka audit store. reader serves ListByRegistration and also
// receives every appended event.
func New(producer Producer, topic string, reader audit.Store) *Store {
	return &Store{producer: producer, topic: topic, reader: reader}
}

// NewClient opens a franz-go client for the given brokers.
func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.RegistrationID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	if s.reader != nil {
		return s.reader.Append(ctx, event)
	}
	return nil
}

func (s *Store) ListByRegistration(ctx context.Context, registrationID string) ([]audit.Event, error) {
	if s.reader == nil {
		return nil, nil
	}
	return s.reader.ListByRegistration(ctx, registrationID)
}
