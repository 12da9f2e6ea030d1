package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, SplitBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, SplitBrokers(""))
}

func TestHealthCheckerUnconfigured(t *testing.T) {
	h := NewHealthChecker(" , ")
	assert.Equal(t, "kafka", h.Name())
	assert.ErrorContains(t, h.Check(context.Background()), "not configured")
}
