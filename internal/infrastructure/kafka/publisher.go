// Package kafka publishes advisory projection sync signals for external
// subscribers. The signal is a hint, not a delivery guarantee: consumers
// always re-read the query services for actual state.
package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// SyncSignal is the message body published when a projection's checkpoint
// advances.
type SyncSignal struct {
	Projection string    `json:"projection"`
	Position   int64     `json:"position"`
	SyncedAt   time.Time `json:"synced_at"`
}

// SyncPublisher writes sync signals to a Kafka topic. It implements
// projection.SyncListener.
type SyncPublisher struct {
	writer *kafka.Writer
}

func NewSyncPublisher(brokers []string, topic string) *SyncPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &SyncPublisher{writer: writer}
}

// ProjectionSynced publishes one signal, keyed by projection name so signals
// for the same projection stay ordered within a partition. Publish failures
// are logged and dropped; the checkpoint is already durable.
func (p *SyncPublisher) ProjectionSynced(name string, position int64) {
	signal := SyncSignal{
		Projection: name,
		Position:   position,
		SyncedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(signal)
	if err != nil {
		log.Printf("[Kafka] Failed to marshal sync signal for %s: %v", name, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(name),
		Value: data,
		Time:  signal.SyncedAt,
	})
	if err != nil {
		log.Printf("[Kafka] Failed to publish sync signal for %s at %d: %v", name, position, err)
	}
}

func (p *SyncPublisher) Close() error {
	return p.writer.Close()
}
