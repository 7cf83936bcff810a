package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/tcastillov/futbol-data/internal/platform/logging"
	"github.com/tcastillov/futbol-data/internal/source"
)

type RefreshInput struct {
	// Leagues to warm; empty means every league the refresher is
	// configured with.
	Leagues []string
	Season  string
	// Kinds narrows which datasets are warmed; empty means all.
	Kinds      []string
	MaxWorkers int
}

type RefreshResult struct {
	TaskCount    int                 `json:"task_count"`
	SuccessCount int                 `json:"success_count"`
	FailedCount  int                 `json:"failed_count"`
	WorkerCount  int                 `json:"worker_count"`
	Tasks        []RefreshTaskResult `json:"tasks"`
}

type RefreshTaskResult struct {
	League     string `json:"league"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Records    int    `json:"records"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

type refreshKind string

const (
	refreshStatusSuccess = "success"
	refreshStatusFailed  = "failed"

	refreshKindTeams     refreshKind = "teams"
	refreshKindPlayers   refreshKind = "players"
	refreshKindMatches   refreshKind = "matches"
	refreshKindStandings refreshKind = "standings"
)

var allRefreshKinds = []refreshKind{
	refreshKindTeams, refreshKindPlayers, refreshKindMatches, refreshKindStandings,
}

type refreshTask struct {
	league string
	kind   refreshKind
}

// RefreshService pre-warms the cache for configured leagues so the first
// reader after a cold start or an invalidation does not pay the fan-out.
type RefreshService struct {
	unified       *UnifiedDataService
	logger        *logging.Logger
	leagues       []string
	defaultSeason string
}

func NewRefreshService(unified *UnifiedDataService, logger *logging.Logger, leagues []string, defaultSeason string) *RefreshService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RefreshService{
		unified:       unified,
		logger:        logger,
		leagues:       leagues,
		defaultSeason: defaultSeason,
	}
}

func (s *RefreshService) Refresh(ctx context.Context, input RefreshInput) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.Refresh")
	defer span.End()

	if s.unified == nil {
		return RefreshResult{}, fmt.Errorf("%w: refresh has no data service", ErrDependencyUnavailable)
	}

	leagues := input.Leagues
	if len(leagues) == 0 {
		leagues = s.leagues
	}
	if len(leagues) == 0 {
		return RefreshResult{}, fmt.Errorf("%w: no leagues to refresh", ErrInvalidInput)
	}

	kinds, err := normalizeRefreshKinds(input.Kinds)
	if err != nil {
		return RefreshResult{}, err
	}

	season := strings.TrimSpace(input.Season)
	if season == "" {
		season = s.defaultSeason
	}

	tasks := make([]refreshTask, 0, len(leagues)*len(kinds))
	for _, code := range leagues {
		for _, kind := range kinds {
			tasks = append(tasks, refreshTask{league: strings.ToUpper(strings.TrimSpace(code)), kind: kind})
		}
	}

	workerCount := input.MaxWorkers
	if workerCount <= 0 || workerCount > len(tasks) {
		workerCount = len(tasks)
	}

	result := RefreshResult{
		TaskCount:   len(tasks),
		WorkerCount: workerCount,
		Tasks:       make([]RefreshTaskResult, 0, len(tasks)),
	}

	poolInstance, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer poolInstance.Release()

	rows := make(chan RefreshTaskResult, len(tasks))
	var successCount, failedCount atomic.Int32

	if err := s.dispatch(ctx, poolInstance, tasks, season, rows, &successCount, &failedCount); err != nil {
		return RefreshResult{}, err
	}
	close(rows)

	for row := range rows {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		if result.Tasks[i].League != result.Tasks[j].League {
			return result.Tasks[i].League < result.Tasks[j].League
		}
		return result.Tasks[i].Kind < result.Tasks[j].Kind
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	return result, nil
}

// refreshPool is the slice of the ants pool the dispatcher needs.
type refreshPool interface {
	Submit(task func()) error
}

// dispatch fans the tasks out over the pool and waits for every submitted
// task, including when a later Submit fails; abandoning in-flight tasks
// would let the deferred pool release run under them.
func (s *RefreshService) dispatch(ctx context.Context, pool refreshPool, tasks []refreshTask, season string, rows chan<- RefreshTaskResult, successCount, failedCount *atomic.Int32) error {
	var workers sync.WaitGroup
	var submitErr error
	for _, task := range tasks {
		task := task
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := RefreshTaskResult{League: task.league, Kind: string(task.kind)}

			count, err := s.runRefreshTask(ctx, task, season)
			row.Records = count
			row.DurationMs = time.Since(start).Milliseconds()
			if err != nil {
				row.Status = refreshStatusFailed
				row.Message = err.Error()
				failedCount.Add(1)
			} else {
				row.Status = refreshStatusSuccess
				successCount.Add(1)
			}

			rows <- row
		}); err != nil {
			workers.Done()
			submitErr = fmt.Errorf("submit task to worker pool: %w", err)
			break
		}
	}

	workers.Wait()
	return submitErr
}

func (s *RefreshService) runRefreshTask(ctx context.Context, task refreshTask, season string) (int, error) {
	q := source.Query{LeagueCode: task.league, Season: season}

	switch task.kind {
	case refreshKindTeams:
		items, err := s.unified.GetTeams(ctx, q)
		return len(items), err
	case refreshKindPlayers:
		items, err := s.unified.GetPlayers(ctx, q)
		return len(items), err
	case refreshKindMatches:
		items, err := s.unified.GetMatches(ctx, q)
		return len(items), err
	case refreshKindStandings:
		items, err := s.unified.GetStandings(ctx, q)
		return len(items), err
	default:
		return 0, fmt.Errorf("%w: unknown refresh kind %q", ErrInvalidInput, task.kind)
	}
}

func normalizeRefreshKinds(raw []string) ([]refreshKind, error) {
	if len(raw) == 0 {
		return allRefreshKinds, nil
	}

	seen := make(map[refreshKind]bool, len(raw))
	out := make([]refreshKind, 0, len(raw))
	for _, value := range raw {
		kind := refreshKind(strings.ToLower(strings.TrimSpace(value)))
		switch kind {
		case refreshKindTeams, refreshKindPlayers, refreshKindMatches, refreshKindStandings:
		default:
			return nil, fmt.Errorf("%w: unknown refresh kind %q", ErrInvalidInput, value)
		}
		if !seen[kind] {
			seen[kind] = true
			out = append(out, kind)
		}
	}
	return out, nil
}
