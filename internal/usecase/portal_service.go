package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BigLep/roster-sync/internal/domain/portal"
	"github.com/BigLep/roster-sync/internal/domain/roster"
	"github.com/BigLep/roster-sync/internal/domain/schema"
	"github.com/BigLep/roster-sync/internal/platform/cache"
	"github.com/BigLep/roster-sync/internal/platform/logging"
)

const portalCacheKey = "portal-index"

// PortalService derives the portal lookup index from the raw roster cache.
// The index is rebuilt on its own TTL and whenever the roster cache is
// refreshed or invalidated; it is never patched incrementally.
type PortalService struct {
	sheets       *SheetCacheService
	store        *cache.Store
	rosterSource string
	ttl          time.Duration
	logger       *logging.Logger
}

func NewPortalService(sheets *SheetCacheService, store *cache.Store, rosterSource string, ttl time.Duration, logger *logging.Logger) *PortalService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PortalService{
		sheets:       sheets,
		store:        store,
		rosterSource: rosterSource,
		ttl:          ttl,
		logger:       logger,
	}
}

// FindByExternalID returns the entry for an opaque external id, or nil.
func (s *PortalService) FindByExternalID(ctx context.Context, id string) (*portal.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PortalService.FindByExternalID")
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: external id is required", ErrInvalidInput)
	}

	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ExternalID == id {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// FindExternalIDByLookupKey returns the external id for a lookup key, or ""
// when the key is not indexed. Lookup keys compare case-insensitively; they
// are typed by humans.
func (s *PortalService) FindExternalIDByLookupKey(ctx context.Context, key string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PortalService.FindExternalIDByLookupKey")
	defer span.End()

	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: lookup key is required", ErrInvalidInput)
	}

	entries, err := s.entries(ctx)
	if err != nil {
		return "", err
	}
	for i := range entries {
		if strings.EqualFold(entries[i].LookupKey, key) {
			return entries[i].ExternalID, nil
		}
	}
	return "", nil
}

// Entries returns the full derived index.
func (s *PortalService) Entries(ctx context.Context) ([]portal.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PortalService.Entries")
	defer span.End()
	return s.entries(ctx)
}

// Invalidate drops the derived index so the next lookup rebuilds it.
func (s *PortalService) Invalidate() {
	s.store.Invalidate(portalCacheKey)
}

func (s *PortalService) entries(ctx context.Context) ([]portal.Entry, error) {
	result, err := s.store.GetOrRefresh(ctx, portalCacheKey, s.ttl, s.rebuild)
	if err != nil {
		return nil, err
	}
	entries, _ := result.Value.([]portal.Entry)
	return entries, nil
}

// rebuild re-derives the index from the roster cache's current contents. A
// schema validation failure is fatal to the rebuild: serving a stale or
// partial index against an unvalidated sheet is worse than failing.
func (s *PortalService) rebuild(ctx context.Context) (any, error) {
	data, err := s.sheets.GetCachedRange(ctx, s.rosterSource, "")
	if err != nil {
		return nil, err
	}
	if len(data.Rows) == 0 {
		return nil, fmt.Errorf("%w: roster range is empty", ErrNoData)
	}

	header := data.Rows[0].Texts()
	schemaMap, validation := schema.Validate(header, roster.SheetContract())
	if !validation.IsValid {
		return nil, cache.NoFallback(validation.Err())
	}

	keyHeader := validation.PatternMatches[roster.PatternPortalKey]
	idHeader := validation.PatternMatches[roster.PatternPortalID]
	keyIdx, _ := schemaMap.Index(keyHeader)
	idIdx, _ := schemaMap.Index(idHeader)

	entries := make([]portal.Entry, 0, len(data.Rows)-1)
	for i, row := range data.Rows[1:] {
		texts := row.Texts()
		lookupKey := cellAt(texts, keyIdx)
		externalID := cellAt(texts, idIdx)
		if !portal.Usable(lookupKey, externalID, keyHeader, idHeader) {
			continue
		}
		entries = append(entries, portal.Entry{
			LookupKey:  lookupKey,
			ExternalID: externalID,
			RowIndex:   i + 1,
			RawRow:     row,
		})
	}

	s.logger.InfoContext(ctx, "portal index rebuilt",
		"entries", len(entries),
		"rows_scanned", len(data.Rows)-1,
	)
	return entries, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
