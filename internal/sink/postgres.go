package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marketlens/price-intel-scraper/internal/models"
)

// PostgresConfig describes the connection for the Postgres sink.
type PostgresConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	MaxConns    int32
	MaxConnLife time.Duration
}

// PostgresSink stores canonical records in a product_records table. It is an
// optional delivery target satisfying the same Sink contract as HTTP
// ingestion.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects, pings, and ensures the target table exists.
func NewPostgresSink(ctx context.Context, cfg PostgresConfig) (*PostgresSink, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLife > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLife
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresSink{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS product_records (
			id BIGSERIAL PRIMARY KEY,
			product_name TEXT NOT NULL,
			platform TEXT NOT NULL,
			price NUMERIC(12,2),
			rating NUMERIC(2,1),
			url TEXT NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Send inserts one record. Absent price or rating stores as NULL, never 0.
func (s *PostgresSink) Send(ctx context.Context, record *models.CanonicalRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO product_records (product_name, platform, price, rating, url, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, record.ProductName, record.Platform, record.Price, record.Rating, record.URL, record.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func (s *PostgresSink) Close() {
	s.pool.Close()
}
