package record

import "time"

// Entity is what every canonical type provides to reconciliation: a stable
// identity key independent of source, and field-union merging.
type Entity[T any] interface {
	IdentityKey() string
	FillMissing(other T) T
}

// Record wraps one canonical entity as fetched from one source. All
// reconciliation operates on collections of Record; records are discarded
// after being folded into a canonical entity.
type Record[T Entity[T]] struct {
	Entity    T
	Source    string
	FetchedAt time.Time
	Synthetic bool
}

// New builds a real (non-synthetic) record.
func New[T Entity[T]](entity T, sourceName string, fetchedAt time.Time) Record[T] {
	return Record[T]{Entity: entity, Source: sourceName, FetchedAt: fetchedAt}
}

// NewSynthetic builds a placeholder record. Synthetic records are always
// lowest priority in conflict resolution and must never silently overwrite
// a real record.
func NewSynthetic[T Entity[T]](entity T, sourceName string, fetchedAt time.Time) Record[T] {
	return Record[T]{Entity: entity, Source: sourceName, FetchedAt: fetchedAt, Synthetic: true}
}
