package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps records in a filings table with the analysis result
// as a JSONB column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool for the given DSN and pings it so DSN
// problems surface at startup rather than on the first save.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// InitSchema creates the filings table and its index when missing. Safe to
// run on every startup.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	// One statement per Exec: pgx's extended protocol rejects batches.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS filings (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			doc_type TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			result JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS filings_created_at_idx ON filings (created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	query := `
		INSERT INTO filings (id, filename, doc_type, content_hash, created_at, result)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			doc_type = EXCLUDED.doc_type,
			content_hash = EXCLUDED.content_hash,
			created_at = EXCLUDED.created_at,
			result = EXCLUDED.result`

	if _, err := s.pool.Exec(ctx, query, rec.ID, rec.Filename, rec.DocType, rec.ContentHash, rec.CreatedAt, payload); err != nil {
		return fmt.Errorf("save filing %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	query := `SELECT filename, doc_type, content_hash, created_at, result FROM filings WHERE id = $1`

	rec := &Record{ID: id}
	var payload []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(&rec.Filename, &rec.DocType, &rec.ContentHash, &rec.CreatedAt, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load filing %s: %w", id, err)
	}
	if err := json.Unmarshal(payload, &rec.Result); err != nil {
		return nil, fmt.Errorf("decode filing %s: %w", id, err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `
		SELECT id, filename, doc_type, content_hash, created_at, result
		FROM filings ORDER BY created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list filings: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec := &Record{}
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.DocType, &rec.ContentHash, &rec.CreatedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan filing: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.Result); err != nil {
			return nil, fmt.Errorf("decode filing %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list filings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM filings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete filing %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
