package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/perfume-shop/internal/model"
)

func TestMessage(t *testing.T) {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.FixedZone("IST", 19800))
	e := model.Event{
		ID:        "0b7c6f8e-5c55-4a36-9d43-1f0f8d1a2b3c",
		Topic:     model.TopicOrderPlaced,
		Key:       "ORD1700000000000ABCDEF",
		Payload:   []byte(`{"orderNumber":"ORD1700000000000ABCDEF","totalAmount":1300}`),
		CreatedAt: created,
	}

	msg, err := Message(e)
	require.NoError(t, err)

	assert.Equal(t, "order.placed", msg.Topic)
	assert.Equal(t, []byte(e.Key), msg.Key)
	assert.True(t, msg.Time.Equal(created))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, e.ID, string(msg.Headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, e.ID, env.EventID)
	assert.Equal(t, model.TopicOrderPlaced, env.EventType)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "perfume-shop", env.Producer)
	assert.Equal(t, time.UTC, env.OccurredAt.Location())
	assert.JSONEq(t, string(e.Payload), string(env.Payload))
}

func TestNewEnvelopeEmptyPayload(t *testing.T) {
	env := NewEnvelope(model.Event{ID: "1", Topic: model.TopicInventoryChanged})

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"payload":null`)
}

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: []string{}},
		{name: "single", in: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "spaces and gaps", in: " k1:9092, ,k2:9092 ", want: []string{"k1:9092", "k2:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBrokers(tt.in))
		})
	}
}
