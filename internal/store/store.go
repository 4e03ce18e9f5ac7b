// Package store persists analysis records. Two backends exist: an
// in-memory map for development and a Postgres table for real deployments.
package store

import (
	"context"
	"time"

	"github.com/dmorhan/filingsift/internal/filing"
)

// defaultListLimit caps List when the caller passes no usable limit.
const defaultListLimit = 200

// Record is one stored filing together with its analysis result.
type Record struct {
	ID          string                 `json:"id"`
	Filename    string                 `json:"filename"`
	DocType     string                 `json:"doc_type"`
	ContentHash string                 `json:"content_hash"`
	CreatedAt   time.Time              `json:"created_at"`
	Result      *filing.AnalysisResult `json:"result"`
}

// ResultStore persists analysis records. Get returns nil without an error
// when the id is unknown. List returns records newest first, at most limit
// of them; a non-positive limit falls back to defaultListLimit.
type ResultStore interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, limit int) ([]*Record, error)
	Delete(ctx context.Context, id string) error
	Close()
}
