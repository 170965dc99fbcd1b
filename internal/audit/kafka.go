package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"claimguard/internal/claims/models"
)

// Record headers on the audit topic.
const (
	HeaderEntryID = "entry_id"
	HeaderAction  = "action"
)

// KafkaStore produces entries as JSON to the audit topic, keyed by claim ID so
// a claim's entries stay ordered within one partition.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafkaStore uses client's default produce topic when topic is empty.
func NewKafkaStore(client *kgo.Client, topic string) *KafkaStore {
	return &KafkaStore{client: client, topic: topic}
}

func (s *KafkaStore) Append(ctx context.Context, entries ...models.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	records := make([]*kgo.Record, 0, len(entries))
	for _, e := range entries {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal audit entry %s: %w", e.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(e.ClaimID),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: HeaderEntryID, Value: []byte(e.ID)},
				{Key: HeaderAction, Value: []byte(e.Action)},
			},
		})
	}
	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit entries: %w", err)
	}
	return nil
}

// Health pings the brokers.
func (s *KafkaStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx)
}
