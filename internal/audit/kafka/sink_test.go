package kafka

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neokyc/internal/audit"
)

func TestNewMessage(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	msg := NewMessage(audit.Event{
		ID:         id,
		Action:     audit.ActionCustomerDeleted,
		Actor:      "admin",
		CustomerID: "cust",
		Timestamp:  ts,
	})

	assert.Equal(t, id.String(), msg.ID)
	assert.Equal(t, "customer_deleted", msg.Action)
	assert.Equal(t, "cust", msg.CustomerID)
	assert.Equal(t, ts, msg.Timestamp)
}

func TestNewSink_RequiresBrokers(t *testing.T) {
	_, err := NewSink(nil, "")
	require.Error(t, err)
}

func TestNewSink_DefaultTopic(t *testing.T) {
	sink, err := NewSink([]string{"localhost:9092"}, "")
	require.NoError(t, err)
	defer sink.client.Close()
	assert.Equal(t, DefaultTopic, sink.Topic())
}
