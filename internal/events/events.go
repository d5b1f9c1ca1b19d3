// Package events publishes ledger activity to Kafka so downstream
// consumers (reporting, notifications) can react without polling.
// Publishing is best-effort and happens after the database commit.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

const Topic = "ledger.transactions"

const (
	TypeCompleted = "transaction.completed"
	TypeAmended   = "transaction.amended"
	TypeReversed  = "transaction.reversed"
)

type TransactionEvent struct {
	Type          string    `json:"type"`
	TransactionID string    `json:"transaction_id"`
	AccountID     string    `json:"account_id"`
	UserID        string    `json:"user_id"`
	AmountMinor   int64     `json:"amount_minor"`
	CurrencyID    string    `json:"currency_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event TransactionEvent) error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event TransactionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AccountID),
		Value: data,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TransactionEvent) error { return nil }
