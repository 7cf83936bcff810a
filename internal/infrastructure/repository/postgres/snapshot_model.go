package postgres

import (
	"time"

	"github.com/tcastillov/futbol-data/internal/domain/snapshot"
)

type snapshotTableModel struct {
	ID        int64     `db:"id"`
	Category  string    `db:"category"`
	QueryKey  string    `db:"query_key"`
	Payload   []byte    `db:"payload"`
	Sources   string    `db:"sources"`
	Synthetic bool      `db:"synthetic"`
	CreatedAt time.Time `db:"created_at"`
}

func (m snapshotTableModel) toDomain() snapshot.Snapshot {
	return snapshot.Snapshot{
		ID:        m.ID,
		Category:  m.Category,
		QueryKey:  m.QueryKey,
		Payload:   m.Payload,
		Sources:   splitSources(m.Sources),
		Synthetic: m.Synthetic,
		CreatedAt: m.CreatedAt,
	}
}
