package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sourcegraph/conc/pool"

	"github.com/tcastillov/futbol-data/internal/domain/league"
	"github.com/tcastillov/futbol-data/internal/domain/match"
	"github.com/tcastillov/futbol-data/internal/domain/player"
	"github.com/tcastillov/futbol-data/internal/domain/record"
	"github.com/tcastillov/futbol-data/internal/domain/snapshot"
	"github.com/tcastillov/futbol-data/internal/domain/standings"
	"github.com/tcastillov/futbol-data/internal/domain/team"
	"github.com/tcastillov/futbol-data/internal/platform/cache"
	"github.com/tcastillov/futbol-data/internal/platform/logging"
	"github.com/tcastillov/futbol-data/internal/reconcile"
	"github.com/tcastillov/futbol-data/internal/source"
)

// UnifiedDataConfig tunes the orchestration pipeline, not any single
// source.
type UnifiedDataConfig struct {
	// AdapterTimeout bounds each source call independently of the request
	// deadline.
	AdapterTimeout time.Duration
	// Exhaustive queries every enabled source and reconciles; when false
	// the pipeline stops at the first source that returns records.
	Exhaustive bool
	Reconcile  reconcile.Config
}

func NormalizeUnifiedDataConfig(cfg UnifiedDataConfig) UnifiedDataConfig {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 8 * time.Second
	}
	if cfg.Reconcile.Policy == "" {
		cfg.Reconcile.Policy = reconcile.PolicyCombine
	}
	return cfg
}

// UnifiedDataService is the single entry point consumers use: it hides
// which sources exist, runs the cache -> fetch -> reconcile -> cache
// pipeline, and falls back to synthesis only when no source produced a
// record.
type UnifiedDataService struct {
	adapters  []source.Adapter
	cache     *cache.Store
	synth     *Synthesizer
	snapshots snapshot.Repository
	logger    *logging.Logger
	cfg       UnifiedDataConfig
	now       func() time.Time
}

func NewUnifiedDataService(
	adapters []source.Adapter,
	store *cache.Store,
	synth *Synthesizer,
	snapshots snapshot.Repository,
	logger *logging.Logger,
	cfg UnifiedDataConfig,
) *UnifiedDataService {
	if logger == nil {
		logger = logging.Default()
	}
	return &UnifiedDataService{
		adapters:  adapters,
		cache:     store,
		synth:     synth,
		snapshots: snapshots,
		logger:    logger,
		cfg:       NormalizeUnifiedDataConfig(cfg),
		now:       time.Now,
	}
}

func (s *UnifiedDataService) Sources() []string {
	names := make([]string, 0, len(s.adapters))
	for _, a := range s.adapters {
		names = append(names, a.Name())
	}
	return names
}

func (s *UnifiedDataService) GetLeagues(ctx context.Context, q source.Query) ([]reconcile.Resolved[league.League], error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UnifiedDataService.GetLeagues")
	defer span.End()

	q = normalizeQuery(q)
	return resolve(ctx, s, cache.CategoryLeagues, q,
		func(ctx context.Context, a source.Adapter) ([]record.Record[league.League], error) {
			return a.FetchLeagues(ctx, q)
		},
		synthGen(s.synth, func() []record.Record[league.League] { return s.synth.Leagues(q) }))
}

func (s *UnifiedDataService) GetTeams(ctx context.Context, q source.Query) ([]reconcile.Resolved[team.Team], error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UnifiedDataService.GetTeams")
	defer span.End()

	q = normalizeQuery(q)
	if q.LeagueCode == "" {
		return nil, fmt.Errorf("%w: league code is required", ErrInvalidInput)
	}
	return resolve(ctx, s, cache.CategoryTeams, q,
		func(ctx context.Context, a source.Adapter) ([]record.Record[team.Team], error) {
			return a.FetchTeams(ctx, q)
		},
		synthGen(s.synth, func() []record.Record[team.Team] { return s.synth.Teams(q) }))
}

func (s *UnifiedDataService) GetPlayers(ctx context.Context, q source.Query) ([]reconcile.Resolved[player.Player], error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UnifiedDataService.GetPlayers")
	defer span.End()

	q = normalizeQuery(q)
	if q.TeamID == "" && q.LeagueCode == "" {
		return nil, fmt.Errorf("%w: a team id or league code is required", ErrInvalidInput)
	}
	return resolve(ctx, s, cache.CategoryPlayers, q,
		func(ctx context.Context, a source.Adapter) ([]record.Record[player.Player], error) {
			return a.FetchPlayers(ctx, q)
		},
		synthGen(s.synth, func() []record.Record[player.Player] { return s.synth.Players(q) }))
}

func (s *UnifiedDataService) GetMatches(ctx context.Context, q source.Query) ([]reconcile.Resolved[match.Match], error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UnifiedDataService.GetMatches")
	defer span.End()

	q = normalizeQuery(q)
	if q.LeagueCode == "" {
		return nil, fmt.Errorf("%w: league code is required", ErrInvalidInput)
	}
	return resolve(ctx, s, s.matchCategory(q), q,
		func(ctx context.Context, a source.Adapter) ([]record.Record[match.Match], error) {
			return a.FetchMatches(ctx, q)
		},
		synthGen(s.synth, func() []record.Record[match.Match] { return s.synth.Matches(q) }))
}

// GetStandings prefers provider-published tables; when no source has one it
// derives the table from reconciled finished matches before considering
// synthesis.
func (s *UnifiedDataService) GetStandings(ctx context.Context, q source.Query) ([]reconcile.Resolved[standings.Row], error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UnifiedDataService.GetStandings")
	defer span.End()

	q = normalizeQuery(q)
	if q.LeagueCode == "" {
		return nil, fmt.Errorf("%w: league code is required", ErrInvalidInput)
	}

	rows, err := resolve(ctx, s, cache.CategoryStandings, q,
		func(ctx context.Context, a source.Adapter) ([]record.Record[standings.Row], error) {
			return a.FetchStandings(ctx, q)
		},
		nil)
	if err == nil && len(rows) > 0 {
		return rows, nil
	}
	if err != nil && !errors.Is(err, ErrNoDataAvailable) {
		return nil, err
	}

	// No provider publishes a table for this query; derive one from the
	// reconciled matches before falling back to synthesis.
	if derived, derr := s.standingsFromMatches(ctx, q); derr == nil && len(derived) > 0 {
		return derived, nil
	}

	if !s.synth.Enabled() {
		if err != nil {
			return nil, err
		}
		return rows, nil
	}
	return synthesizeResolved(ctx, s, cache.CategoryStandings, q.Key(), s.synth.Standings(q))
}

func (s *UnifiedDataService) GetTeamStats(ctx context.Context, q source.Query) ([]reconcile.Resolved[team.Stats], error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.UnifiedDataService.GetTeamStats")
	defer span.End()

	q = normalizeQuery(q)
	if q.LeagueCode == "" && q.TeamID == "" {
		return nil, fmt.Errorf("%w: a league code or team id is required", ErrInvalidInput)
	}
	return resolve(ctx, s, cache.CategoryTeamStats, q,
		func(ctx context.Context, a source.Adapter) ([]record.Record[team.Stats], error) {
			return a.FetchTeamStats(ctx, q)
		},
		synthGen(s.synth, func() []record.Record[team.Stats] { return s.synth.TeamStats(q) }))
}

// InvalidateCategory drops every cached entry of one category from both
// tiers.
func (s *UnifiedDataService) InvalidateCategory(ctx context.Context, category string) error {
	cat := cache.Category(strings.TrimSpace(strings.ToLower(category)))
	switch cat {
	case cache.CategoryStatic, cache.CategoryLeagues, cache.CategoryTeams, cache.CategoryPlayers,
		cache.CategoryMatchesFinished, cache.CategoryMatchesLive, cache.CategoryStandings,
		cache.CategoryTeamStats, cache.CategorySynthetic:
	default:
		return fmt.Errorf("%w: unknown cache category %q", ErrInvalidInput, category)
	}
	if s.cache != nil {
		s.cache.InvalidateCategory(ctx, cat)
	}
	return nil
}

func (s *UnifiedDataService) standingsFromMatches(ctx context.Context, q source.Query) ([]reconcile.Resolved[standings.Row], error) {
	resolved, err := s.GetMatches(ctx, q)
	if err != nil {
		return nil, err
	}

	matches := make([]match.Match, 0, len(resolved))
	names := make(map[string]string)
	synthetic := false
	contributing := map[string]bool{}
	for _, r := range resolved {
		if r.Synthetic {
			synthetic = true
		}
		for _, src := range r.Sources {
			contributing[src] = true
		}
		m := r.Entity
		matches = append(matches, m)
		if m.HomeTeamID != "" {
			names[m.HomeTeamID] = m.HomeTeam
		}
		if m.AwayTeamID != "" {
			names[m.AwayTeamID] = m.AwayTeam
		}
	}

	sources := make([]string, 0, len(contributing))
	for src := range contributing {
		sources = append(sources, src)
	}

	rows := standings.Compute(matches, q.LeagueCode, q.Season, names)
	out := make([]reconcile.Resolved[standings.Row], 0, len(rows))
	for _, row := range rows {
		out = append(out, reconcile.Resolved[standings.Row]{
			Entity:    row,
			Sources:   append([]string(nil), sources...),
			Synthetic: synthetic,
		})
	}
	return out, nil
}

// matchCategory keeps live-window queries in the short-TTL partition.
func (s *UnifiedDataService) matchCategory(q source.Query) cache.Category {
	now := s.now()
	if q.DateTo.IsZero() || !q.DateTo.Before(now.Truncate(24*time.Hour)) {
		return cache.CategoryMatchesLive
	}
	return cache.CategoryMatchesFinished
}

// synthGen defers generation so the pipeline only pays for synthesis when
// no source produced a record. A disabled synthesizer turns the fallback
// off.
func synthGen[T record.Entity[T]](s *Synthesizer, gen func() []record.Record[T]) func() []record.Record[T] {
	if !s.Enabled() {
		return nil
	}
	return gen
}

// resolve is the pipeline every read operation shares: cache lookup, source
// fan-out, reconciliation, write-back, synthesis fallback.
func resolve[T record.Entity[T]](
	ctx context.Context,
	s *UnifiedDataService,
	category cache.Category,
	q source.Query,
	fetch func(context.Context, source.Adapter) ([]record.Record[T], error),
	synthesize func() []record.Record[T],
) ([]reconcile.Resolved[T], error) {
	key := q.Key()

	if cached, ok := cacheGet[T](ctx, s, category, key); ok {
		return cached, nil
	}
	if cached, ok := cacheGet[T](ctx, s, cache.CategorySynthetic, syntheticKey(category, key)); ok {
		return cached, nil
	}

	records, answered := fanOut(ctx, s, fetch)
	if len(records) > 0 {
		resolved := reconcile.Resolve(s.cfg.Reconcile, records)
		cacheSet(ctx, s, category, key, resolved)
		sources, synthetic := provenance(resolved)
		s.persistSnapshot(ctx, category, key, resolved, sources, synthetic)
		return resolved, nil
	}

	if synthesize != nil {
		return synthesizeResolved(ctx, s, category, key, synthesize())
	}

	if answered > 0 {
		// Sources answered with empty sets and synthesis is off. An empty
		// answer is still an answer; cache it.
		resolved := []reconcile.Resolved[T]{}
		cacheSet(ctx, s, category, key, resolved)
		return resolved, nil
	}

	return nil, fmt.Errorf("%w: all sources failed for %s %q", ErrNoDataAvailable, category, key)
}

func synthesizeResolved[T record.Entity[T]](
	ctx context.Context,
	s *UnifiedDataService,
	category cache.Category,
	key string,
	records []record.Record[T],
) ([]reconcile.Resolved[T], error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: all sources failed for %s %q", ErrNoDataAvailable, category, key)
	}

	s.logger.InfoContext(ctx, "serving synthesized placeholders",
		"category", string(category), "key", key, "count", len(records))

	resolved := reconcile.Resolve(s.cfg.Reconcile, records)
	cacheSet(ctx, s, cache.CategorySynthetic, syntheticKey(category, key), resolved)
	return resolved, nil
}

// fanOut queries sources under the configured strategy. It returns every
// record collected plus how many sources answered at all; per-source
// failures are logged and swallowed.
func fanOut[T record.Entity[T]](
	ctx context.Context,
	s *UnifiedDataService,
	fetch func(context.Context, source.Adapter) ([]record.Record[T], error),
) ([]record.Record[T], int) {
	if len(s.adapters) == 0 {
		return nil, 0
	}

	results := make([][]record.Record[T], len(s.adapters))
	succeeded := make([]bool, len(s.adapters))

	call := func(ctx context.Context, idx int) {
		adapter := s.adapters[idx]
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.AdapterTimeout)
		defer cancel()

		records, err := fetch(callCtx, adapter)
		if err != nil {
			kind := source.KindOf(err)
			if kind == source.ErrUnsupportedFilter {
				s.logger.DebugContext(ctx, "source does not cover this query", "source", adapter.Name())
			} else {
				s.logger.WarnContext(ctx, "source fetch failed",
					"source", adapter.Name(), "kind", string(kind), "error", err)
			}
			return
		}
		results[idx] = records
		succeeded[idx] = true
	}

	if s.cfg.Exhaustive {
		p := pool.New().WithMaxGoroutines(len(s.adapters))
		for i := range s.adapters {
			i := i
			p.Go(func() { call(ctx, i) })
		}
		p.Wait()
	} else {
		for i := range s.adapters {
			call(ctx, i)
			if succeeded[i] && len(results[i]) > 0 {
				break
			}
		}
	}

	var out []record.Record[T]
	answered := 0
	for i := range s.adapters {
		if succeeded[i] {
			answered++
			out = append(out, results[i]...)
		}
	}
	return out, answered
}

func cacheGet[T record.Entity[T]](ctx context.Context, s *UnifiedDataService, category cache.Category, key string) ([]reconcile.Resolved[T], bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, ok := s.cache.Get(ctx, category, key)
	if !ok {
		return nil, false
	}
	var resolved []reconcile.Resolved[T]
	if err := sonic.Unmarshal(payload, &resolved); err != nil {
		s.logger.WarnContext(ctx, "cached payload undecodable, invalidating",
			"category", string(category), "key", key, "error", err)
		s.cache.Invalidate(ctx, category, key)
		return nil, false
	}
	return resolved, true
}

func cacheSet[T record.Entity[T]](ctx context.Context, s *UnifiedDataService, category cache.Category, key string, resolved []reconcile.Resolved[T]) {
	if s.cache == nil {
		return
	}
	payload, err := sonic.Marshal(resolved)
	if err != nil {
		s.logger.WarnContext(ctx, "cache payload encode failed", "category", string(category), "error", err)
		return
	}
	s.cache.Set(ctx, category, key, payload)
}

// persistSnapshot stores what was served, best effort. Snapshot failures
// never fail the read path.
func (s *UnifiedDataService) persistSnapshot(ctx context.Context, category cache.Category, key string, resolved any, sources []string, synthetic bool) {
	if s.snapshots == nil {
		return
	}
	payload, err := sonic.Marshal(resolved)
	if err != nil {
		return
	}
	snap := snapshot.Snapshot{
		Category:  string(category),
		QueryKey:  key,
		Payload:   payload,
		Sources:   sources,
		Synthetic: synthetic,
		CreatedAt: s.now().UTC(),
	}
	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		s.logger.WarnContext(ctx, "snapshot persist failed", "category", string(category), "key", key, "error", err)
	}
}

// provenance reports the union of contributing sources and whether any
// entity is synthetic.
func provenance[T record.Entity[T]](resolved []reconcile.Resolved[T]) ([]string, bool) {
	seen := make(map[string]bool)
	synthetic := false
	var sources []string
	for _, r := range resolved {
		if r.Synthetic {
			synthetic = true
		}
		for _, src := range r.Sources {
			if !seen[src] {
				seen[src] = true
				sources = append(sources, src)
			}
		}
	}
	sort.Strings(sources)
	return sources, synthetic
}

func syntheticKey(category cache.Category, key string) string {
	return string(category) + "|" + key
}

func normalizeQuery(q source.Query) source.Query {
	q.LeagueCode = strings.ToUpper(strings.TrimSpace(q.LeagueCode))
	q.Season = strings.TrimSpace(q.Season)
	q.TeamID = strings.TrimSpace(q.TeamID)
	return q
}
