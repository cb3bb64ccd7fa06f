package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/BigLep/roster-sync/internal/platform/logging"
)

const (
	refreshStatusSuccess = "success"
	refreshStatusStale   = "stale"
	refreshStatusFailed  = "failed"
)

const defaultRefreshWorkers = 4

// RefreshTaskResult is one target's outcome in a bulk refresh.
type RefreshTaskResult struct {
	Target     string `json:"target"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// RefreshResult summarizes a bulk refresh run.
type RefreshResult struct {
	TaskCount    int                 `json:"task_count"`
	SuccessCount int                 `json:"success_count"`
	StaleCount   int                 `json:"stale_count"`
	FailedCount  int                 `json:"failed_count"`
	WorkerCount  int                 `json:"worker_count"`
	Tasks        []RefreshTaskResult `json:"tasks"`
}

// RefreshService force-refreshes every configured cache target at once:
// each raw range, the computed integration tier, and the portal index.
// Targets run on a bounded worker pool so a bulk warm cannot stampede the
// provider.
type RefreshService struct {
	sheets      *SheetCacheService
	integration *IntegrationService
	portal      *PortalService
	maxWorkers  int
	logger      *logging.Logger
}

func NewRefreshService(sheets *SheetCacheService, integration *IntegrationService, portal *PortalService, maxWorkers int, logger *logging.Logger) *RefreshService {
	if maxWorkers < 1 {
		maxWorkers = defaultRefreshWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &RefreshService{
		sheets:      sheets,
		integration: integration,
		portal:      portal,
		maxWorkers:  maxWorkers,
		logger:      logger,
	}
}

// RefreshAll force-refreshes every target and reports per-target outcomes.
// A target that fell back to stale data is reported as such, not as a
// success; operators need to tell staleness from outage.
func (s *RefreshService) RefreshAll(ctx context.Context) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.RefreshAll")
	defer span.End()

	type task struct {
		target string
		run    func(context.Context) (bool, error)
	}

	var tasks []task
	for _, name := range s.sheets.Sources() {
		name := name
		tasks = append(tasks, task{
			target: "range:" + name,
			run: func(ctx context.Context) (bool, error) {
				data, err := s.sheets.ForceRefresh(ctx, name, "")
				return data.Stale, err
			},
		})
	}
	tasks = append(tasks, task{
		target: "integrated",
		run: func(ctx context.Context) (bool, error) {
			result, err := s.integration.GetIntegratedData(ctx, true)
			return result.Stale, err
		},
	})
	tasks = append(tasks, task{
		target: "portal",
		run: func(ctx context.Context) (bool, error) {
			s.portal.Invalidate()
			_, err := s.portal.Entries(ctx)
			return false, err
		},
	})

	workers := s.maxWorkers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create refresh worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]RefreshTaskResult, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		i, t := i, t
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			started := time.Now()
			stale, runErr := t.run(ctx)
			out := RefreshTaskResult{
				Target:     t.target,
				Status:     refreshStatusSuccess,
				DurationMs: time.Since(started).Milliseconds(),
			}
			switch {
			case runErr != nil:
				out.Status = refreshStatusFailed
				out.Message = runErr.Error()
			case stale:
				out.Status = refreshStatusStale
				out.Message = "refresh failed, previous value served"
			}
			results[i] = out
		})
		if submitErr != nil {
			wg.Done()
			results[i] = RefreshTaskResult{
				Target:  t.target,
				Status:  refreshStatusFailed,
				Message: submitErr.Error(),
			}
		}
	}
	wg.Wait()

	summary := RefreshResult{
		TaskCount:   len(tasks),
		WorkerCount: workers,
		Tasks:       results,
	}
	for _, r := range results {
		switch r.Status {
		case refreshStatusSuccess:
			summary.SuccessCount++
		case refreshStatusStale:
			summary.StaleCount++
		default:
			summary.FailedCount++
		}
	}

	s.logger.InfoContext(ctx, "bulk refresh complete",
		"tasks", summary.TaskCount,
		"success", summary.SuccessCount,
		"stale", summary.StaleCount,
		"failed", summary.FailedCount,
	)
	return summary, nil
}
