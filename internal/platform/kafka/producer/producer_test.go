package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"credo/internal/platform/kafka"
)

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(kafka.ProducerConfig{Brokers: " "}, nil)
	assert.Error(t, err)
}

func TestToRecord(t *testing.T) {
	r := toRecord(&Message{Topic: "t", Key: []byte("k"), Value: []byte("v"), Headers: map[string]string{"h": "1"}})
	assert.Equal(t, "t", r.Topic)
	assert.Equal(t, "k", string(r.Key))
	assert.Len(t, r.Headers, 1)
	assert.Equal(t, "1", string(r.Headers[0].Value))
}

func TestNoopProducer(t *testing.T) {
	var p Publisher = NewNoopProducer()
	assert.NoError(t, p.Produce(context.Background(), &Message{Topic: "t"}))
	assert.NoError(t, p.ProduceAsync(&Message{Topic: "t"}))
	assert.True(t, p.Healthy(context.Background()))
	assert.NoError(t, p.Close())
}
