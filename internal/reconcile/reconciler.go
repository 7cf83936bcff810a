// Package reconcile folds per-source records into one canonical entity per
// identity key. Synthetic records never outrank real ones regardless of
// policy.
package reconcile

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/tcastillov/futbol-data/internal/domain/record"
)

type Policy string

const (
	// PolicyPriority takes the whole record from the highest-priority source.
	PolicyPriority Policy = "PRIORITY"
	// PolicyCombine starts from the highest-priority record and fills its
	// empty fields from the remaining sources in priority order.
	PolicyCombine Policy = "COMBINE"
	// PolicyMostRecent takes the whole record with the newest FetchedAt.
	PolicyMostRecent Policy = "MOST_RECENT"
)

func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToUpper(strings.TrimSpace(value))) {
	case PolicyPriority:
		return PolicyPriority, nil
	case PolicyCombine, "":
		return PolicyCombine, nil
	case PolicyMostRecent:
		return PolicyMostRecent, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q", value)
	}
}

// Config applies to every entity type: one policy and one source priority
// order shared across the engine.
type Config struct {
	Policy Policy
	// Priority lists source names from most to least trusted. Sources
	// absent from the list rank below every listed one.
	Priority []string
}

func (c Config) rank(sourceName string) int {
	for i, name := range c.Priority {
		if name == sourceName {
			return i
		}
	}
	return len(c.Priority)
}

// Resolved is one canonical entity plus its provenance.
type Resolved[T record.Entity[T]] struct {
	Entity    T
	Sources   []string
	Synthetic bool
}

// Resolve groups records by identity key and folds each group under the
// configured policy. Output is sorted by identity key so repeated calls
// over the same input produce identical slices.
func Resolve[T record.Entity[T]](cfg Config, records []record.Record[T]) []Resolved[T] {
	groups := make(map[string][]record.Record[T])
	keys := make([]string, 0)
	for _, rec := range records {
		key := rec.Entity.IdentityKey()
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], rec)
	}
	sort.Strings(keys)

	out := make([]Resolved[T], 0, len(keys))
	for _, key := range keys {
		out = append(out, resolveGroup(cfg, groups[key]))
	}
	return out
}

func resolveGroup[T record.Entity[T]](cfg Config, group []record.Record[T]) Resolved[T] {
	candidates := dedupe(group)

	// Synthetic records sort after every real one; within each class the
	// policy decides. Stable sort keeps input order as the final tiebreak.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Synthetic != b.Synthetic {
			return !a.Synthetic
		}
		switch cfg.Policy {
		case PolicyMostRecent:
			return a.FetchedAt.After(b.FetchedAt)
		default:
			return cfg.rank(a.Source) < cfg.rank(b.Source)
		}
	})

	winner := candidates[0]
	resolved := Resolved[T]{
		Entity:    winner.Entity,
		Sources:   append([]string(nil), winner.seenBy...),
		Synthetic: winner.Synthetic,
	}

	if cfg.Policy != PolicyCombine {
		return resolved
	}
	for _, other := range candidates[1:] {
		if other.Synthetic && !winner.Synthetic {
			break
		}
		merged := resolved.Entity.FillMissing(other.Entity)
		if !reflect.DeepEqual(merged, resolved.Entity) {
			resolved.Entity = merged
			resolved.Sources = append(resolved.Sources, other.seenBy...)
		}
	}
	return resolved
}

type candidate[T record.Entity[T]] struct {
	record.Record[T]
	seenBy []string
}

// dedupe collapses records whose entities are exactly equal, keeping every
// contributing source name. Agreement across sources is not a conflict.
func dedupe[T record.Entity[T]](group []record.Record[T]) []candidate[T] {
	out := make([]candidate[T], 0, len(group))
	for _, rec := range group {
		merged := false
		for i := range out {
			if out[i].Synthetic == rec.Synthetic && reflect.DeepEqual(out[i].Entity, rec.Entity) {
				out[i].seenBy = appendUnique(out[i].seenBy, rec.Source)
				if rec.FetchedAt.After(out[i].FetchedAt) {
					out[i].FetchedAt = rec.FetchedAt
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, candidate[T]{Record: rec, seenBy: []string{rec.Source}})
		}
	}
	return out
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
