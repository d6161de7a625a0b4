package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	body, err := Encode(OrderStatusChanged, map[string]string{"order_id": "o-1", "to": "paid"})
	require.NoError(t, err)

	var env struct {
		ID   string            `json:"id"`
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, OrderStatusChanged, env.Type)
	assert.Equal(t, "paid", env.Data["to"])
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), PaymentStatusChanged, nil))
	assert.NoError(t, p.Close())
}
