// Package clickhouse provides the ClickHouse search-history store
// Every completed search is recorded as one row for later analysis
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SearchRecord represents one completed search
type SearchRecord struct {
	ID             uuid.UUID       `ch:"id"`
	RequestedItems []string        `ch:"requested_items"`
	Restaurant     string          `ch:"restaurant"`
	Price          decimal.Decimal `ch:"price"`
	Feasible       bool            `ch:"feasible"`
	Source         string          `ch:"source"` // file, postgres, api
	SearchedAt     time.Time       `ch:"searched_at"`
}

// Config holds ClickHouse connection configuration
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "menucost",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// Store implements the search-history store using ClickHouse
type Store struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewStore creates a new ClickHouse search-history store
func NewStore(cfg *Config) (*Store, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	return &Store{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the search history table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS search_history (
			id UUID,
			requested_items Array(String),
			restaurant String,
			price Decimal(18, 4),
			feasible UInt8,
			source String,
			searched_at DateTime
		) ENGINE = MergeTree()
		ORDER BY searched_at
	`
	return s.conn.Exec(ctx, query)
}

// InsertSearch records one completed search
func (s *Store) InsertSearch(ctx context.Context, rec *SearchRecord) error {
	query := `
		INSERT INTO search_history (
			id, requested_items, restaurant, price, feasible, source, searched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	return s.conn.Exec(ctx, query,
		rec.ID,
		rec.RequestedItems,
		rec.Restaurant,
		rec.Price,
		boolToUInt8(rec.Feasible),
		rec.Source,
		rec.SearchedAt,
	)
}

// RecentSearches returns the most recent searches, newest first
func (s *Store) RecentSearches(ctx context.Context, limit int) ([]*SearchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, requested_items, restaurant, price, feasible, source, searched_at
		FROM search_history
		ORDER BY searched_at DESC
		LIMIT ?
	`
	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var records []*SearchRecord
	for rows.Next() {
		var rec SearchRecord
		var feasible uint8
		if err := rows.Scan(
			&rec.ID, &rec.RequestedItems, &rec.Restaurant, &rec.Price,
			&feasible, &rec.Source, &rec.SearchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search record: %w", err)
		}
		rec.Feasible = feasible == 1
		records = append(records, &rec)
	}
	return records, nil
}

// GetSearch retrieves one search by ID
func (s *Store) GetSearch(ctx context.Context, id uuid.UUID) (*SearchRecord, error) {
	query := `
		SELECT id, requested_items, restaurant, price, feasible, source, searched_at
		FROM search_history
		WHERE id = ?
	`
	row := s.conn.QueryRow(ctx, query, id)

	var rec SearchRecord
	var feasible uint8
	err := row.Scan(
		&rec.ID, &rec.RequestedItems, &rec.Restaurant, &rec.Price,
		&feasible, &rec.Source, &rec.SearchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search record: %w", err)
	}
	rec.Feasible = feasible == 1
	return &rec, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
