// Package events публикует доменные события магазина в Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

const (
	envelopeVersion = 1
	producerName    = "perfume-shop"
)

// Envelope описывает сообщение, отправляемое в брокер.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Key          string          `json:"key,omitempty"`
	Payload      json.RawMessage `json:"payload"`
}

// NewEnvelope оборачивает запись исходящего события в конверт.
func NewEnvelope(e model.Event) Envelope {
	payload := json.RawMessage(e.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	return Envelope{
		EventID:      e.ID,
		EventType:    e.Topic,
		EventVersion: envelopeVersion,
		OccurredAt:   e.CreatedAt.UTC(),
		Producer:     producerName,
		Key:          e.Key,
		Payload:      payload,
	}
}

// Message формирует сообщение Kafka. Топик сообщения совпадает с типом события.
func Message(e model.Event) (kafka.Message, error) {
	data, err := json.Marshal(NewEnvelope(e))
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal envelope: %w", err)
	}

	return kafka.Message{
		Topic: e.Topic,
		Key:   []byte(e.Key),
		Value: data,
		Time:  e.CreatedAt.UTC(),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(e.ID)},
		},
	}, nil
}

// ParseBrokers разбирает список брокеров, перечисленных через запятую.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Publisher отправляет события в Kafka синхронно, чтобы ретранслятор
// отмечал запись отправленной только после подтверждения брокера.
type Publisher struct {
	w *kafka.Writer
}

// NewPublisher создаёт публикатор для указанных брокеров.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish отправляет одно событие.
func (p *Publisher) Publish(ctx context.Context, e model.Event) error {
	msg, err := Message(e)
	if err != nil {
		return err
	}

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", e.Topic, err)
	}
	return nil
}

// Close закрывает соединения с брокером.
func (p *Publisher) Close() error {
	return p.w.Close()
}
