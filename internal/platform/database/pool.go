package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"credo/internal/platform/config"
	"credo/migrations"
)

var (
	dbPoolOpenConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "credo_db_pool_open_connections",
		Help: "Open connections in the verification log pool",
	})
	dbPoolInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "credo_db_pool_in_use_connections",
		Help: "Connections currently in use",
	})
	dbPoolWaitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credo_db_pool_wait_total",
		Help: "Total number of connections waited for",
	})
)

// Pool wraps a *sql.DB for the verification log.
type Pool struct {
	db        *sql.DB
	lastWaits int64
}

// New opens and pings the database. Returns nil if the URL is empty.
// Migrations are applied when cfg.AutoMigrate is set.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			db.Close() //nolint:errcheck // best-effort cleanup on init failure
			return nil, err
		}
	}

	return &Pool{db: db}, nil
}

func (p *Pool) DB() *sql.DB {
	return p.db
}

func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("database not configured")
	}
	return p.db.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// RecordPoolStats updates the pool gauges. Call it periodically from one goroutine.
func (p *Pool) RecordPoolStats() {
	if p == nil || p.db == nil {
		return
	}
	stats := p.db.Stats()
	dbPoolOpenConns.Set(float64(stats.OpenConnections))
	dbPoolInUse.Set(float64(stats.InUse))
	if stats.WaitCount > p.lastWaits {
		dbPoolWaitTotal.Add(float64(stats.WaitCount - p.lastWaits))
	}
	p.lastWaits = stats.WaitCount
}
