// Package snapshot persists the reconciled payload of a query so operators
// can audit what the engine served and when.
package snapshot

import (
	"context"
	"time"
)

// Snapshot is one reconciled response: the canonical JSON payload served
// for a query key, with its provenance.
type Snapshot struct {
	ID        int64     `db:"id"`
	Category  string    `db:"category"`
	QueryKey  string    `db:"query_key"`
	Payload   []byte    `db:"payload"`
	Sources   []string  `db:"-"`
	Synthetic bool      `db:"synthetic"`
	CreatedAt time.Time `db:"created_at"`
}

type Repository interface {
	// Upsert stores the latest snapshot for (category, query_key),
	// replacing any previous one.
	Upsert(ctx context.Context, snap Snapshot) error
	// Latest returns the most recent snapshot for the pair, reporting
	// existence separately from failure.
	Latest(ctx context.Context, category, queryKey string) (Snapshot, bool, error)
	// ListKeys returns the distinct query keys stored under a category.
	ListKeys(ctx context.Context, category string) ([]string, error)
}
