// Package postgres persists reconciled response snapshots. The database is
// an audit trail, never a read-path dependency: every method failure is
// tolerated by callers.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/tcastillov/futbol-data/internal/domain/snapshot"
)

type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Upsert(ctx context.Context, snap snapshot.Snapshot) error {
	const query = `
		INSERT INTO snapshots (category, query_key, payload, sources, synthetic, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (category, query_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			sources = EXCLUDED.sources,
			synthetic = EXCLUDED.synthetic,
			created_at = EXCLUDED.created_at`

	_, err := r.db.ExecContext(ctx, query,
		snap.Category,
		snap.QueryKey,
		snap.Payload,
		joinSources(snap.Sources),
		snap.Synthetic,
		snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepository) Latest(ctx context.Context, category, queryKey string) (snapshot.Snapshot, bool, error) {
	const query = `
		SELECT id, category, query_key, payload, sources, synthetic, created_at
		FROM snapshots
		WHERE category = $1 AND query_key = $2`

	var row snapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, category, queryKey); err != nil {
		if isNotFound(err) {
			return snapshot.Snapshot{}, false, nil
		}
		return snapshot.Snapshot{}, false, fmt.Errorf("get snapshot: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *SnapshotRepository) ListKeys(ctx context.Context, category string) ([]string, error) {
	const query = `
		SELECT query_key FROM snapshots
		WHERE category = $1
		ORDER BY query_key`

	var keys []string
	if err := r.db.SelectContext(ctx, &keys, query, category); err != nil {
		return nil, fmt.Errorf("list snapshot keys: %w", err)
	}
	return keys, nil
}

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

func joinSources(sources []string) string {
	return strings.Join(sources, ",")
}

func splitSources(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
