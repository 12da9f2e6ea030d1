package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DevSigningKey signs issuer tokens when JWT_SIGNING_KEY is unset.
const DevSigningKey = "dev-secret-key-change-in-production"

// Config is the full runtime configuration, read once at startup.
type Config struct {
	Server     Server
	Content    Content
	Redis      RedisConfig
	Database   DatabaseConfig
	Kafka      KafkaConfig
	Chain      Chain
	Pinata     Pinata
	Gemini     Gemini
	Credential Credential
	RateLimit  RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	Environment    string
	JWTSigningKey  string
	TokenTTL       time.Duration
	TokenDenylist  string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	TrustedProxies string
	AdminToken     string
}

// Content configures reads from the IPFS gateway.
type Content struct {
	GatewayURL         string
	FallbackGatewayURL string
	FetchTimeout       time.Duration
	MaxBytes           int64
	// CacheTTL bounds how long a fetched document is reused. Zero disables
	// the content cache.
	CacheTTL           time.Duration
}

// RedisConfig configures the optional content cache backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig configures the optional verification log database.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type KafkaConfig struct {
	Brokers           string
	VerificationTopic string
	Acks              string
}

// Chain configures the contracts. An empty RPCURL selects the in-memory ledger.
type Chain struct {
	RPCURL                string
	ChainID               int64
	RegistryAddress       string
	TrustRegistryAddress  string
	InteractionHubAddress string
	IssuerPrivateKey      string
	IssuerAccount         string
	ReceiptTimeout        time.Duration
}

// Pinata configures uploads. An empty JWT selects the in-memory store.
type Pinata struct {
	APIURL  string
	JWT     string
	Timeout time.Duration
}

type Gemini struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Credential tunes verification behavior.
type Credential struct {
	HashSerialization    string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	VerifyAllConcurrency int
}

// RateLimit sets per-IP request budgets per minute for each route class.
type RateLimit struct {
	Enabled          bool
	VerifyPerMinute  int
	IssuePerMinute   int
	ExtractPerMinute int
}

// Configured reports whether a chain endpoint was supplied.
func (c Chain) Configured() bool { return c.RPCURL != "" }

// Configured reports whether pinning credentials were supplied.
func (p Pinata) Configured() bool { return p.JWT != "" }

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = DevSigningKey
	}

	return Config{
		Server: Server{
			Addr:           getEnv("CREDO_ADDR", ":8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			JWTSigningKey:  jwtSigningKey,
			TokenTTL:       getDuration("TOKEN_TTL", 12*time.Hour),
			TokenDenylist:  os.Getenv("ISSUER_TOKEN_DENYLIST"),
			RequestTimeout: getDuration("REQUEST_TIMEOUT", 30*time.Second),
			MaxBodyBytes:   getInt64("MAX_BODY_BYTES", 10<<20),
			TrustedProxies: os.Getenv("TRUSTED_PROXIES"),
			AdminToken:     os.Getenv("ADMIN_API_TOKEN"),
		},
		Content: Content{
			GatewayURL:         strings.TrimRight(getEnv("IPFS_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs"), "/"),
			FallbackGatewayURL: strings.TrimRight(os.Getenv("IPFS_FALLBACK_GATEWAY_URL"), "/"),
			FetchTimeout:       getDuration("CONTENT_FETCH_TIMEOUT", 10*time.Second),
			MaxBytes:           getInt64("CONTENT_MAX_BYTES", 1<<20),
			CacheTTL:           getDurationOrZero("CONTENT_CACHE_TTL", time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:     getBool("DATABASE_AUTO_MIGRATE", false),
		},
		Kafka: KafkaConfig{
			Brokers:           os.Getenv("KAFKA_BROKERS"),
			VerificationTopic: getEnv("KAFKA_VERIFICATION_TOPIC", "credential.verifications"),
			Acks:              getEnv("KAFKA_ACKS", "all"),
		},
		Chain: Chain{
			RPCURL:                os.Getenv("CHAIN_RPC_URL"),
			ChainID:               getInt64("CHAIN_ID", 0),
			RegistryAddress:       os.Getenv("CREDENTIAL_REGISTRY_ADDRESS"),
			TrustRegistryAddress:  os.Getenv("TRUST_REGISTRY_ADDRESS"),
			InteractionHubAddress: os.Getenv("INTERACTION_HUB_ADDRESS"),
			IssuerPrivateKey:      os.Getenv("ISSUER_PRIVATE_KEY"),
			IssuerAccount:         os.Getenv("ISSUER_ACCOUNT"),
			ReceiptTimeout:        getDuration("CHAIN_RECEIPT_TIMEOUT", 2*time.Minute),
		},
		Pinata: Pinata{
			APIURL:  strings.TrimRight(getEnv("PINATA_API_URL", "https://api.pinata.cloud"), "/"),
			JWT:     os.Getenv("PINATA_JWT"),
			Timeout: getDuration("PINATA_TIMEOUT", 30*time.Second),
		},
		Gemini: Gemini{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout: getDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Credential: Credential{
			HashSerialization:    strings.ToLower(getEnv("HASH_SERIALIZATION", "ecmascript")),
			SessionTTL:           getDuration("SESSION_TTL", 30*time.Minute),
			SessionSweepInterval: getDuration("SESSION_SWEEP_INTERVAL", time.Minute),
			VerifyAllConcurrency: getInt("VERIFY_ALL_CONCURRENCY", 4),
		},
		RateLimit: RateLimit{
			Enabled:          getBool("RATE_LIMIT_ENABLED", true),
			VerifyPerMinute:  getInt("RATE_LIMIT_VERIFY_PER_MINUTE", 120),
			IssuePerMinute:   getInt("RATE_LIMIT_ISSUE_PER_MINUTE", 30),
			ExtractPerMinute: getInt("RATE_LIMIT_EXTRACT_PER_MINUTE", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// getDurationOrZero is getDuration that also accepts an explicit zero.
func getDurationOrZero(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
