package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// SplitBrokers turns a comma separated broker list into seed addresses.
func SplitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// HealthChecker reports whether the event brokers answer a metadata ping.
type HealthChecker struct {
	brokers []string
	timeout time.Duration
}

func NewHealthChecker(brokers string) *HealthChecker {
	return &HealthChecker{
		brokers: SplitBrokers(brokers),
		timeout: 5 * time.Second,
	}
}

// Check returns nil if at least one broker is reachable.
func (h *HealthChecker) Check(ctx context.Context) error {
	if len(h.brokers) == 0 {
		return fmt.Errorf("kafka brokers not configured")
	}

	client, err := kgo.NewClient(kgo.SeedBrokers(h.brokers...), kgo.DialTimeout(h.timeout))
	if err != nil {
		return fmt.Errorf("create kafka health client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("no kafka brokers reachable: %w", err)
	}
	return nil
}

func (h *HealthChecker) Name() string {
	return "kafka"
}
