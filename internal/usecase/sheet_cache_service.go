package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BigLep/roster-sync/internal/domain/schema"
	"github.com/BigLep/roster-sync/internal/platform/cache"
	"github.com/BigLep/roster-sync/internal/platform/logging"
)

// SheetSource is one logical cached range. TTLs are configuration, not a
// universal constant: live-editable sheets (attendance) run short TTLs,
// mostly-static ones run long.
type SheetSource struct {
	Name          string
	SpreadsheetID string
	Range         string
	TTL           time.Duration
}

// RangeData is a cached range read. Stale means the rows are a previously
// cached value served because the refresh attempt failed.
type RangeData struct {
	Rows       []schema.Row
	ProducedAt time.Time
	Stale      bool
}

// CacheState is the bookkeeping for a source's configured range entry.
type CacheState struct {
	Cached     bool
	ProducedAt time.Time
	Age        time.Duration
	Refreshing bool
}

// SheetCacheService is the raw cache tier: per-(source, range) entries with
// per-source TTLs, refresh coalescing and staleness fallback.
type SheetCacheService struct {
	fetcher   RangeFetcher
	store     *cache.Store
	sources   map[string]SheetSource
	onRefresh func(source string)
	logger    *logging.Logger
}

func NewSheetCacheService(fetcher RangeFetcher, store *cache.Store, sources []SheetSource, logger *logging.Logger) *SheetCacheService {
	if logger == nil {
		logger = logging.Default()
	}

	byName := make(map[string]SheetSource, len(sources))
	for _, src := range sources {
		byName[src.Name] = src
	}

	return &SheetCacheService{
		fetcher: fetcher,
		store:   store,
		sources: byName,
		logger:  logger,
	}
}

// SetRefreshHook registers a callback invoked after a source is forcibly
// refreshed. The portal index derives from the roster cache and must be
// rebuilt in step with it.
func (s *SheetCacheService) SetRefreshHook(hook func(source string)) {
	s.onRefresh = hook
}

// Sources lists the configured logical source names, sorted.
func (s *SheetCacheService) Sources() []string {
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source returns the configuration for a logical source name.
func (s *SheetCacheService) Source(name string) (SheetSource, bool) {
	src, ok := s.sources[name]
	return src, ok
}

// CacheState reports whether a source's configured range is currently
// cached, how old the entry is and whether a refresh is in flight. An
// unknown source reports the zero state.
func (s *SheetCacheService) CacheState(name string) CacheState {
	src, ok := s.sources[strings.TrimSpace(name)]
	if !ok {
		return CacheState{}
	}

	info, cached := s.store.Info(src.Name + "!" + src.Range)
	return CacheState{
		Cached:     cached,
		ProducedAt: info.ProducedAt,
		Age:        info.Age,
		Refreshing: info.Refreshing,
	}
}

// GetCachedRange returns the cached rows for a logical source, refreshing
// through the transport when the entry is missing or expired. An empty
// rangeA1 uses the source's configured range.
func (s *SheetCacheService) GetCachedRange(ctx context.Context, name, rangeA1 string) (RangeData, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SheetCacheService.GetCachedRange")
	defer span.End()

	src, key, rangeA1, err := s.resolve(name, rangeA1)
	if err != nil {
		return RangeData{}, err
	}

	result, err := s.store.GetOrRefresh(ctx, key, src.TTL, s.loader(src, rangeA1))
	if err != nil {
		return RangeData{}, err
	}
	return toRangeData(result), nil
}

// ForceRefresh refetches a range regardless of TTL. It coalesces with any
// in-flight refresh and falls back to the previous value on fetch failure.
func (s *SheetCacheService) ForceRefresh(ctx context.Context, name, rangeA1 string) (RangeData, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SheetCacheService.ForceRefresh")
	defer span.End()

	src, key, rangeA1, err := s.resolve(name, rangeA1)
	if err != nil {
		return RangeData{}, err
	}

	result, err := s.store.ForceRefresh(ctx, key, src.TTL, s.loader(src, rangeA1))
	if err != nil {
		return RangeData{}, err
	}
	if s.onRefresh != nil {
		s.onRefresh(src.Name)
	}
	return toRangeData(result), nil
}

// Invalidate drops every cached range of a logical source.
func (s *SheetCacheService) Invalidate(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	s.store.InvalidatePrefix(name + "!")
	if s.onRefresh != nil {
		s.onRefresh(name)
	}
}

func (s *SheetCacheService) resolve(name, rangeA1 string) (SheetSource, string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return SheetSource{}, "", "", fmt.Errorf("%w: logical source name is required", ErrInvalidInput)
	}

	src, ok := s.sources[name]
	if !ok {
		return SheetSource{}, "", "", fmt.Errorf("%w: unknown source %q", ErrNotFound, name)
	}

	rangeA1 = strings.TrimSpace(rangeA1)
	if rangeA1 == "" {
		rangeA1 = src.Range
	}

	return src, src.Name + "!" + rangeA1, rangeA1, nil
}

func (s *SheetCacheService) loader(src SheetSource, rangeA1 string) cache.Loader {
	return func(ctx context.Context) (any, error) {
		rows, err := s.fetcher.FetchRange(ctx, src.SpreadsheetID, rangeA1)
		if err != nil {
			s.logger.WarnContext(ctx, "range fetch failed",
				"source", src.Name,
				"range", rangeA1,
				"error", err,
			)
			return nil, fmt.Errorf("fetch range %s %s: %w", src.Name, rangeA1, err)
		}
		return rows, nil
	}
}

func toRangeData(result cache.Result) RangeData {
	rows, _ := result.Value.([]schema.Row)
	return RangeData{
		Rows:       rows,
		ProducedAt: result.ProducedAt,
		Stale:      result.Stale,
	}
}
