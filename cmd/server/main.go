package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"

	"credo/internal/contentstore"
	"credo/internal/credential/canonical"
	"credo/internal/credential/device"
	"credo/internal/credential/disclosure"
	"credo/internal/credential/events"
	credhandler "credo/internal/credential/handler"
	"credo/internal/credential/metrics"
	"credo/internal/credential/service"
	"credo/internal/credential/session"
	"credo/internal/credential/store"
	"credo/internal/credential/verifier"
	"credo/internal/extract"
	"credo/internal/issuance"
	"credo/internal/issuertoken"
	"credo/internal/ledger"
	"credo/internal/platform/config"
	"credo/internal/platform/database"
	"credo/internal/platform/health"
	"credo/internal/platform/httpserver"
	"credo/internal/platform/kafka"
	"credo/internal/platform/kafka/producer"
	"credo/internal/platform/logger"
	"credo/internal/platform/redis"
	"credo/internal/platform/tracer"
	ratelimitcfg "credo/internal/ratelimit/config"
	ratelimit "credo/internal/ratelimit/middleware"
	"credo/internal/ratelimit/store/bucket"
	httptransport "credo/internal/transport/http"
	id "credo/pkg/domain"
	"credo/pkg/platform/circuit"
	"credo/pkg/platform/middleware/metadata"
	"credo/pkg/platform/middleware/request"
)

// devIssuer signs in-memory issuance when neither ISSUER_PRIVATE_KEY nor
// ISSUER_ACCOUNT is set.
const devIssuer = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

// chainLedger is satisfied by both ledger implementations.
type chainLedger interface {
	ledger.Reader
	ledger.Writer
	ledger.TrustRegistry
	ledger.InteractionHub
}

// main wires dependencies, exposes the HTTP router, and keeps the server
// lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.Environment)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Config, log *slog.Logger) error {
	log.Info("initializing credo",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"hash_serialization", cfg.Credential.HashSerialization,
		"chain_configured", cfg.Chain.Configured(),
		"pinning_configured", cfg.Pinata.Configured(),
	)
	if cfg.Server.JWTSigningKey == config.DevSigningKey {
		log.Warn("using development signing key for issuer tokens")
	}

	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	serializer, err := canonical.SerializerFor(cfg.Credential.HashSerialization)
	if err != nil {
		return err
	}
	trc := tracer.NewOTel()
	healthHandler := health.New(cfg.Server.Environment)

	// Infrastructure

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // shutdown
		healthHandler.RegisterCheck("redis", redisClient.Health)
		log.Info("redis connected")
	}

	pool, err := database.New(bgCtx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if pool != nil {
		defer pool.Close() //nolint:errcheck // shutdown
		healthHandler.RegisterCheck("postgres", pool.Health)
		log.Info("database connected", "auto_migrate", cfg.Database.AutoMigrate)
	}

	var prod producer.Publisher = producer.NewNoopProducer()
	if cfg.Kafka.Brokers != "" {
		kcfg := kafka.DefaultProducerConfig()
		kcfg.Brokers = cfg.Kafka.Brokers
		kcfg.Acks = cfg.Kafka.Acks
		p, err := producer.New(kcfg, log)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		prod = p
		healthHandler.RegisterCheck("kafka", kafka.NewHealthChecker(cfg.Kafka.Brokers).Check)
		log.Info("kafka producer ready", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.VerificationTopic)
	}
	defer prod.Close() //nolint:errcheck // flushes buffered events

	chain, err := buildLedger(bgCtx, cfg.Chain, trc, log, healthHandler)
	if err != nil {
		return err
	}

	// Content

	contentMetrics := contentstore.NewMetrics()
	fetcher, pinner := buildContent(bgCtx, cfg, redisClient, contentMetrics, trc, log)

	// Credential verification

	credMetrics := metrics.New()
	var logStore service.LogStore = store.NewInMemoryStore()
	if pool != nil {
		logStore = store.NewPostgres(pool.DB())
	}

	credentials := service.New(chain,
		verifier.New(fetcher,
			verifier.WithSerializer(serializer),
			verifier.WithMetrics(credMetrics),
			verifier.WithTracer(trc),
			verifier.WithLogger(log),
		),
		disclosure.New(fetcher,
			disclosure.WithMetrics(credMetrics),
			disclosure.WithTracer(trc),
			disclosure.WithLogger(log),
		),
		service.WithLogStore(logStore),
		service.WithEvents(events.NewPublisher(prod,
			events.WithTopic(cfg.Kafka.VerificationTopic),
			events.WithLogger(log),
		)),
		service.WithMetrics(credMetrics),
		service.WithTracer(trc),
		service.WithLogger(log),
		service.WithConcurrency(cfg.Credential.VerifyAllConcurrency),
	)

	sessions := session.NewManager(
		session.NewInMemoryStore(cfg.Credential.SessionTTL, credMetrics),
		credentials,
		session.WithMetrics(credMetrics),
		session.WithLogger(log),
	)
	go func() {
		if err := sessions.StartSweeper(bgCtx, cfg.Credential.SessionSweepInterval); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("session sweeper stopped", "error", err)
		}
	}()

	// Issuance

	issuer, err := issuance.New(pinner, chain,
		issuance.WithSerializer(serializer),
		issuance.WithTrustRegistry(chain),
		issuance.WithInteractionHub(chain),
		issuance.WithMetrics(issuance.NewMetrics()),
		issuance.WithTracer(trc),
		issuance.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("create issuance service: %w", err)
	}
	tokens := issuertoken.NewService(cfg.Server.JWTSigningKey, "", "", cfg.Server.TokenTTL)

	// Document extraction

	var model extract.Model
	if cfg.Gemini.APIKey != "" {
		gemini, err := extract.NewGemini(bgCtx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return fmt.Errorf("create gemini client: %w", err)
		}
		defer gemini.Close() //nolint:errcheck // shutdown
		model = gemini
	} else {
		log.Info("GEMINI_API_KEY not set, document extraction disabled")
	}
	extractor := extract.New(model,
		extract.WithMetrics(extract.NewMetrics()),
		extract.WithTracer(trc),
		extract.WithLogger(log),
	)

	// HTTP

	trusted, err := metadata.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}
	limiter := buildRateLimiter(bgCtx, cfg.RateLimit, redisClient, log)

	router := httptransport.NewRouter(
		httptransport.Handlers{
			Credential: credhandler.New(credentials, sessions, log),
			Issuance:   issuance.NewHandler(issuer, log),
			Extract:    extract.NewHandler(extractor, cfg.Server.MaxBodyBytes, log),
			Health:     healthHandler,
		},
		httptransport.Auth{
			Validator:  issuertoken.NewAdapter(tokens),
			Revocation: issuertoken.NewDenylist(cfg.Server.TokenDenylist),
		},
		httptransport.Options{
			RequestTimeout: cfg.Server.RequestTimeout,
			ExtractTimeout: cfg.Gemini.Timeout,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			TrustedProxies: trusted,
			AdminToken:     cfg.Server.AdminToken,
			DeviceLabel:    device.Label,
			Metrics:        request.NewMetrics(),
			RateLimiter:    limiter,
		},
		log,
	)

	go recordPoolStats(bgCtx, redisClient, pool)

	srv := httpserver.New(cfg.Server.Addr, router)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
	}

	log.Info("shutting down server gracefully")
	cancelBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// buildLedger dials the contracts when a chain is configured and falls back
// to an in-memory ledger otherwise.
func buildLedger(ctx context.Context, cfg config.Chain, trc tracer.Tracer, log *slog.Logger, hh *health.Handler) (chainLedger, error) {
	key, err := issuerKey(cfg)
	if err != nil {
		return nil, err
	}

	if !cfg.Configured() {
		issuer, err := memoryIssuer(cfg, key)
		if err != nil {
			return nil, err
		}
		log.Warn("CHAIN_RPC_URL not set, using in-memory ledger", "issuer", issuer)
		return ledger.NewMemoryLedger(issuer), nil
	}

	ethCfg := ledger.EthConfig{
		PrivateKey:     key,
		ReceiptTimeout: cfg.ReceiptTimeout,
		Tracer:         trc,
		Logger:         log,
	}
	if cfg.ChainID > 0 {
		ethCfg.ChainID = big.NewInt(cfg.ChainID)
	}
	for _, a := range []struct {
		env  string
		raw  string
		dest *common.Address
	}{
		{"CREDENTIAL_REGISTRY_ADDRESS", cfg.RegistryAddress, &ethCfg.RegistryAddress},
		{"TRUST_REGISTRY_ADDRESS", cfg.TrustRegistryAddress, &ethCfg.TrustRegistryAddress},
		{"INTERACTION_HUB_ADDRESS", cfg.InteractionHubAddress, &ethCfg.InteractionHubAddress},
	} {
		if a.raw == "" {
			continue
		}
		if !common.IsHexAddress(a.raw) {
			return nil, fmt.Errorf("%s is not a valid address", a.env)
		}
		*a.dest = common.HexToAddress(a.raw)
	}

	eth, client, err := ledger.Dial(ctx, cfg.RPCURL, ethCfg)
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		client.Close()
	}()
	hh.RegisterCheck("chain", eth.Health)
	if key == nil {
		log.Warn("ISSUER_PRIVATE_KEY not set, ledger is read-only")
	}
	log.Info("ledger connected", "registry", ethCfg.RegistryAddress.Hex(), "issuer", eth.Issuer())
	return eth, nil
}

func issuerKey(cfg config.Chain) (*ecdsa.PrivateKey, error) {
	if cfg.IssuerPrivateKey == "" {
		return nil, nil
	}
	key, err := ledger.ParsePrivateKey(cfg.IssuerPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("ISSUER_PRIVATE_KEY: %w", err)
	}
	return key, nil
}

func memoryIssuer(cfg config.Chain, key *ecdsa.PrivateKey) (id.Account, error) {
	if key != nil {
		return id.AccountFromAddress(crypto.PubkeyToAddress(key.PublicKey)), nil
	}
	raw := cfg.IssuerAccount
	if raw == "" {
		raw = devIssuer
	}
	account, err := id.ParseAccount(raw)
	if err != nil {
		return "", fmt.Errorf("ISSUER_ACCOUNT: %w", err)
	}
	return account, nil
}

// buildContent assembles the read path (gateway, optional fallback gateway,
// cache) and the write path (pinning service or in-memory store).
func buildContent(ctx context.Context, cfg config.Config, redisClient *redis.Client, m *contentstore.Metrics, trc tracer.Tracer, log *slog.Logger) (contentstore.Fetcher, contentstore.Pinner) {
	var fetcher contentstore.Fetcher = contentstore.NewGatewayFetcher(contentstore.GatewayConfig{
		BaseURL:  cfg.Content.GatewayURL,
		Timeout:  cfg.Content.FetchTimeout,
		MaxBytes: cfg.Content.MaxBytes,
		Metrics:  m,
		Tracer:   trc,
		Logger:   log,
	})
	if cfg.Content.FallbackGatewayURL != "" {
		fallback := contentstore.NewGatewayFetcher(contentstore.GatewayConfig{
			BaseURL:  cfg.Content.FallbackGatewayURL,
			Timeout:  cfg.Content.FetchTimeout,
			MaxBytes: cfg.Content.MaxBytes,
			Metrics:  m,
			Tracer:   trc,
			Logger:   log,
		})
		fetcher = contentstore.NewFailoverFetcher(fetcher, fallback, circuit.New("content_gateway"), log)
	}

	// Primary and fallback gateway may both run inside one shared fetch.
	bound := contentstore.WithFetchTimeout(2 * cfg.Content.FetchTimeout)
	switch {
	case cfg.Content.CacheTTL <= 0:
		log.Info("content cache disabled")
	case redisClient != nil:
		cache := contentstore.NewRedisCache(redisClient.Client, cfg.Content.CacheTTL, m)
		fetcher = contentstore.NewCachingFetcher(fetcher, cache, log, bound)
	default:
		cache := contentstore.NewMemoryCache(cfg.Content.CacheTTL, m)
		go cache.StartSweeper(ctx, cfg.Content.CacheTTL)
		fetcher = contentstore.NewCachingFetcher(fetcher, cache, log, bound)
	}

	if cfg.Pinata.Configured() {
		return fetcher, contentstore.NewPinataPinner(contentstore.PinataConfig{
			APIURL:  cfg.Pinata.APIURL,
			JWT:     cfg.Pinata.JWT,
			Timeout: cfg.Pinata.Timeout,
			Metrics: m,
			Tracer:  trc,
			Logger:  log,
		})
	}

	log.Warn("PINATA_JWT not set, pinning to in-memory store")
	local := contentstore.NewMemoryStore()
	remote := fetcher
	return contentstore.FetcherFunc(func(ctx context.Context, contentID string) ([]byte, error) {
		data, err := local.Fetch(ctx, contentID)
		if err == nil || contentstore.GetCategory(err) != contentstore.ErrorNotFound {
			return data, err
		}
		return remote.Fetch(ctx, contentID)
	}), local
}

func recordPoolStats(ctx context.Context, redisClient *redis.Client, pool *database.Pool) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if redisClient != nil {
				redisClient.RecordPoolStats()
			}
			pool.RecordPoolStats()
		}
	}
}

// buildRateLimiter shares budgets through Redis when it is configured and
// otherwise keeps them per instance.
func buildRateLimiter(ctx context.Context, cfg config.RateLimit, redisClient *redis.Client, log *slog.Logger) *ratelimit.Middleware {
	if !cfg.Enabled {
		log.Info("rate limiting disabled")
		return nil
	}
	limits := ratelimitcfg.WithPerMinute(cfg.VerifyPerMinute, cfg.IssuePerMinute, cfg.ExtractPerMinute)
	if redisClient != nil {
		return ratelimit.New(bucket.NewRedisBucketStore(redisClient.Client), limits, prometheus.DefaultRegisterer, log)
	}
	mem := bucket.NewInMemoryBucketStore()
	go mem.StartSweeper(ctx, time.Minute)
	return ratelimit.New(mem, limits, prometheus.DefaultRegisterer, log)
}
