package ledgerlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Kafka publishes log entries to a Kafka topic. The entry reference is
// "<topic>/<partition>/<offset>", which is stable and replayable but still
// opaque to callers.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects a producer to the given brokers. The caller owns the
// returned appender's lifecycle and must Close it on shutdown.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

func (k *Kafka) Append(ctx context.Context, key string, payload any) (string, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal log payload: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(key),
		Value: value,
	}
	results := k.client.ProduceSync(ctx, record)
	if err := results.FirstErr(); err != nil {
		return "", fmt.Errorf("produce log entry: %w", err)
	}
	produced, err := results.First()
	if err != nil {
		return "", fmt.Errorf("read produce result: %w", err)
	}
	return fmt.Sprintf("%s/%d/%d", produced.Topic, produced.Partition, produced.Offset), nil
}

func (k *Kafka) Close() {
	k.client.Close()
}
