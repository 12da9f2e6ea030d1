package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"CREDO_ADDR", "JWT_SIGNING_KEY", "IPFS_GATEWAY_URL", "CONTENT_FETCH_TIMEOUT",
		"REDIS_URL", "DATABASE_URL", "KAFKA_BROKERS", "CHAIN_RPC_URL", "PINATA_JWT",
		"GEMINI_MODEL", "HASH_SERIALIZATION", "SESSION_TTL", "VERIFY_ALL_CONCURRENCY",
		"ADMIN_API_TOKEN", "DATABASE_AUTO_MIGRATE", "RATE_LIMIT_ENABLED", "RATE_LIMIT_VERIFY_PER_MINUTE",
		"CONTENT_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DevSigningKey, cfg.Server.JWTSigningKey)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs", cfg.Content.GatewayURL)
	assert.Equal(t, 10*time.Second, cfg.Content.FetchTimeout)
	assert.Equal(t, time.Minute, cfg.Content.CacheTTL)
	assert.Equal(t, "credential.verifications", cfg.Kafka.VerificationTopic)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "ecmascript", cfg.Credential.HashSerialization)
	assert.Equal(t, 30*time.Minute, cfg.Credential.SessionTTL)
	assert.Equal(t, 4, cfg.Credential.VerifyAllConcurrency)
	assert.False(t, cfg.Chain.Configured())
	assert.False(t, cfg.Pinata.Configured())
	assert.Empty(t, cfg.Server.AdminToken)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 120, cfg.RateLimit.VerifyPerMinute)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CREDO_ADDR", ":9000")
	t.Setenv("IPFS_GATEWAY_URL", "http://localhost:8081/ipfs/")
	t.Setenv("CONTENT_FETCH_TIMEOUT", "3s")
	t.Setenv("HASH_SERIALIZATION", "JCS")
	t.Setenv("VERIFY_ALL_CONCURRENCY", "16")
	t.Setenv("CHAIN_RPC_URL", "http://localhost:8545")
	t.Setenv("CHAIN_ID", "31337")
	t.Setenv("PINATA_JWT", "secret")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")
	t.Setenv("DATABASE_AUTO_MIGRATE", "true")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_EXTRACT_PER_MINUTE", "3")

	cfg := FromEnv()
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8081/ipfs", cfg.Content.GatewayURL)
	assert.Equal(t, 3*time.Second, cfg.Content.FetchTimeout)
	assert.Equal(t, "jcs", cfg.Credential.HashSerialization)
	assert.Equal(t, 16, cfg.Credential.VerifyAllConcurrency)
	assert.Equal(t, int64(31337), cfg.Chain.ChainID)
	assert.True(t, cfg.Chain.Configured())
	assert.True(t, cfg.Pinata.Configured())
	assert.Equal(t, "10.0.0.0/8", cfg.Server.TrustedProxies)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 3, cfg.RateLimit.ExtractPerMinute)
}

func TestFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("VERIFY_ALL_CONCURRENCY", "-2")
	t.Setenv("DATABASE_AUTO_MIGRATE", "maybe")

	cfg := FromEnv()
	assert.Equal(t, 30*time.Minute, cfg.Credential.SessionTTL)
	assert.Equal(t, 4, cfg.Credential.VerifyAllConcurrency)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestContentCacheTTL(t *testing.T) {
	for value, want := range map[string]time.Duration{
		"0":     0,
		"0s":    0,
		"15s":   15 * time.Second,
		"-1m":   time.Minute,
		"never": time.Minute,
	} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("CONTENT_CACHE_TTL", value)
			assert.Equal(t, want, FromEnv().Content.CacheTTL)
		})
	}
}
