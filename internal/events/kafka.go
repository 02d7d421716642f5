package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"certledger/internal/ledger"
	"certledger/internal/registry/models"
)

// Topic per event type. Keys are the certificate ID (or the identity for
// authorization events) so per-record ordering is preserved within a topic.
const (
	TopicCertificateIssued  = "certledger.cert.issued"
	TopicCertificateRevoked = "certledger.cert.revoked"
	TopicIssuerAuthorized   = "certledger.issuer.authorized"
)

// KafkaPublisher produces event envelopes to Kafka-compatible brokers.
type KafkaPublisher struct {
	client *kgo.Client
}

// NewKafkaPublisher connects to the brokers and ensures the event topics
// exist.
func NewKafkaPublisher(ctx context.Context, brokers []string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopics(ctx, client); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaPublisher{client: client}, nil
}

// Publish produces the event to its type's topic and waits for the ack.
func (p *KafkaPublisher) Publish(ctx context.Context, notice ledger.Notice) error {
	topic, key := route(notice.Event)
	payload, err := json.Marshal(NewEnvelope(notice))
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: payload}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}

func route(event models.Event) (topic, key string) {
	switch event.Type {
	case models.EventCertificateRevoked:
		return TopicCertificateRevoked, strconv.FormatUint(event.CertificateID, 10)
	case models.EventIssuerAuthorized:
		return TopicIssuerAuthorized, event.Identity
	default:
		return TopicCertificateIssued, strconv.FormatUint(event.CertificateID, 10)
	}
}

func ensureTopics(ctx context.Context, client *kgo.Client) error {
	admin := kadm.NewClient(client)
	topics := []string{TopicCertificateIssued, TopicCertificateRevoked, TopicIssuerAuthorized}
	responses, err := admin.CreateTopics(ctx, 1, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, response := range responses.Sorted() {
		if response.Err != nil && !errors.Is(response.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", response.Topic, response.Err)
		}
	}
	return nil
}
