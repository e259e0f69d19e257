// Package publisher pushes reconciled ownership changes to Kafka for
// downstream consumers (web map, alerting, statistics).
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"ps2map-controller/internal/domain"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Notification is the wire payload for a single reconciled ownership
// change. The ID is unique per message and lets consumers deduplicate.
type Notification struct {
	ID           string    `json:"id"`
	ServerID     int       `json:"server_id"`
	ContinentID  int       `json:"continent_id"`
	BaseID       int       `json:"base_id"`
	OldFactionID int       `json:"old_faction_id"`
	NewFactionID int       `json:"new_faction_id"`
	Timestamp    time.Time `json:"timestamp"`
}

type ControlPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewControlPublisher(bootstrapServers, topic string) (*ControlPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": bootstrapServers})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("Ownership-change Kafka producer created successfully")

	return &ControlPublisher{producer: p, topic: topic}, nil
}

// NotifyControl publishes one ownership change, keyed by server ID so
// that each server's changes stay ordered within a partition.
func (p *ControlPublisher) NotifyControl(ctx context.Context, change domain.BaseControl) error {
	payload, err := json.Marshal(Notification{
		ID:           uuid.NewString(),
		ServerID:     change.ServerID,
		ContinentID:  change.ContinentID,
		BaseID:       change.BaseID,
		OldFactionID: change.OldFactionID,
		NewFactionID: change.NewFactionID,
		Timestamp:    change.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)
	defer close(deliveryChan)

	if err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(strconv.Itoa(change.ServerID)),
		Value:          payload,
	}, deliveryChan); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	select {
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected event type: %T", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("delivery failed: %w", msg.TopicPartition.Error)
		}
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("delivery timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *ControlPublisher) Close() {
	log.Info("Closing ownership-change Kafka producer...")
	p.producer.Flush(15 * 1000)
	p.producer.Close()
}
