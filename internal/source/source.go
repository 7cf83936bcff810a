// Package source defines the contract every external data provider adapter
// fulfils: six fetch capabilities returning canonical records, and a shared
// error taxonomy the orchestrator uses to treat any single source failure
// as "this source contributed nothing".
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tcastillov/futbol-data/internal/domain/league"
	"github.com/tcastillov/futbol-data/internal/domain/match"
	"github.com/tcastillov/futbol-data/internal/domain/player"
	"github.com/tcastillov/futbol-data/internal/domain/record"
	"github.com/tcastillov/futbol-data/internal/domain/standings"
	"github.com/tcastillov/futbol-data/internal/domain/team"
)

type ErrorKind string

const (
	ErrTimeout           ErrorKind = "timeout"
	ErrRateLimited       ErrorKind = "rate_limited"
	ErrParse             ErrorKind = "parse_error"
	ErrAuth              ErrorKind = "auth_error"
	ErrUnsupportedFilter ErrorKind = "unsupported_filter"
	ErrNotFound          ErrorKind = "not_found"
)

// Error is the failure of one adapter call. It never escalates past the
// orchestrator unless every adapter fails and synthesis is disabled.
type Error struct {
	Source string
	Kind   ErrorKind
	cause  error
}

func NewError(sourceName string, kind ErrorKind, cause error) *Error {
	return &Error{Source: sourceName, Kind: kind, cause: cause}
}

func Errorf(sourceName string, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Source: sourceName, Kind: kind, cause: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("source %s: %s", e.Source, e.Kind)
	}
	return fmt.Sprintf("source %s: %s: %v", e.Source, e.Kind, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extracts the taxonomy kind from any error chain; unknown errors
// map to timeout when the context expired and parse_error otherwise.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrParse
}

// Query carries the domain filters of one logical request. Adapters map
// these onto provider-specific parameters and fail with an
// unsupported_filter error when no mapping exists.
type Query struct {
	LeagueCode string
	Season     string
	TeamID     string
	DateFrom   time.Time
	DateTo     time.Time
}

// Key is the normalized request key used for cache entries and synthesizer
// seeding.
func (q Query) Key() string {
	parts := []string{
		strings.ToUpper(strings.TrimSpace(q.LeagueCode)),
		strings.TrimSpace(q.Season),
		strings.ToLower(strings.TrimSpace(q.TeamID)),
	}
	if !q.DateFrom.IsZero() {
		parts = append(parts, q.DateFrom.UTC().Format("2006-01-02"))
	}
	if !q.DateTo.IsZero() {
		parts = append(parts, q.DateTo.UTC().Format("2006-01-02"))
	}
	return strings.Join(parts, "|")
}

// InRange reports whether a match date falls inside the query's window.
func (q Query) InRange(when time.Time) bool {
	if !q.DateFrom.IsZero() && when.Before(q.DateFrom) {
		return false
	}
	if !q.DateTo.IsZero() && when.After(q.DateTo) {
		return false
	}
	return true
}

// Adapter translates one external data source into canonical records. All
// six capabilities normalize provider-native field names before returning;
// adapters never mutate shared state outside the rate limiter and cache.
type Adapter interface {
	Name() string
	FetchLeagues(ctx context.Context, q Query) ([]record.Record[league.League], error)
	FetchTeams(ctx context.Context, q Query) ([]record.Record[team.Team], error)
	FetchPlayers(ctx context.Context, q Query) ([]record.Record[player.Player], error)
	FetchMatches(ctx context.Context, q Query) ([]record.Record[match.Match], error)
	FetchStandings(ctx context.Context, q Query) ([]record.Record[standings.Row], error)
	FetchTeamStats(ctx context.Context, q Query) ([]record.Record[team.Stats], error)
}

// Limiter is the throttle adapters acquire from before any provider I/O.
type Limiter interface {
	Acquire(ctx context.Context, sourceName string) error
}
