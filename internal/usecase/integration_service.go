package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/BigLep/roster-sync/internal/domain/mailinglist"
	"github.com/BigLep/roster-sync/internal/domain/questionnaire"
	"github.com/BigLep/roster-sync/internal/domain/roster"
	"github.com/BigLep/roster-sync/internal/platform/cache"
	"github.com/BigLep/roster-sync/internal/platform/logging"
	"github.com/BigLep/roster-sync/internal/platform/textmatch"
)

const integratedCacheKey = "integrated"

// IntegrationConfig wires the integration engine to its three sources.
type IntegrationConfig struct {
	FinalFormsFolderID  string
	MailingListFolderID string
	QuestionnaireSource string
	TTL                 time.Duration
}

// IntegratedResult is the computed-tier read: the integrated data plus its
// cache bookkeeping.
type IntegratedResult struct {
	Data       roster.IntegratedData
	ProducedAt time.Time
	Stale      bool
}

// IntegrationService joins the three normalized sources into canonical
// per-player profiles and caches the result in the computed tier.
type IntegrationService struct {
	files  FileStore
	sheets *SheetCacheService
	store  *cache.Store
	cfg    IntegrationConfig

	finalFormsCols    roster.FinalFormsColumns
	memberCols        mailinglist.MemberColumns
	questionnaireCols questionnaire.ResponseColumns

	logger *logging.Logger
}

func NewIntegrationService(files FileStore, sheets *SheetCacheService, store *cache.Store, cfg IntegrationConfig, logger *logging.Logger) *IntegrationService {
	if logger == nil {
		logger = logging.Default()
	}

	return &IntegrationService{
		files:             files,
		sheets:            sheets,
		store:             store,
		cfg:               cfg,
		finalFormsCols:    roster.DefaultFinalFormsColumns(),
		memberCols:        mailinglist.DefaultMemberColumns(),
		questionnaireCols: questionnaire.DefaultResponseColumns(),
		logger:            logger,
	}
}

// GetIntegratedData returns the latest integrated profile set, recomputing
// it when the computed tier's TTL has lapsed or force is set. Recomputation
// is coalesced; on failure the previous result is served stale if one
// exists.
func (s *IntegrationService) GetIntegratedData(ctx context.Context, force bool) (IntegratedResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IntegrationService.GetIntegratedData")
	defer span.End()

	var (
		result cache.Result
		err    error
	)
	if force {
		result, err = s.store.ForceRefresh(ctx, integratedCacheKey, s.cfg.TTL, s.rebuild)
	} else {
		result, err = s.store.GetOrRefresh(ctx, integratedCacheKey, s.cfg.TTL, s.rebuild)
	}
	if err != nil {
		return IntegratedResult{}, err
	}

	data, ok := result.Value.(roster.IntegratedData)
	if !ok {
		return IntegratedResult{}, fmt.Errorf("%w: integrated cache holds unexpected payload", ErrNoData)
	}

	return IntegratedResult{Data: data, ProducedAt: result.ProducedAt, Stale: result.Stale}, nil
}

// Invalidate drops the computed tier entry.
func (s *IntegrationService) Invalidate() {
	s.store.Invalidate(integratedCacheKey)
}

// rebuild loads the three sources concurrently, then integrates them. Any
// source-level failure fails the whole rebuild; the cache layer decides
// whether a stale previous result can cover for it.
func (s *IntegrationService) rebuild(ctx context.Context) (any, error) {
	started := time.Now()

	var (
		forms     []roster.FinalFormsRecord
		members   []mailinglist.Member
		responses []questionnaire.Response
	)

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		forms, err = s.loadFinalForms(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		members, err = s.loadMailingList(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		responses, err = s.loadQuestionnaire(ctx)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	data := integrate(forms, members, responses)
	s.logger.InfoContext(ctx, "integration pass complete",
		"players", data.Statistics.Players,
		"questionnaire_matched", data.Statistics.Questionnaire,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return data, nil
}

func (s *IntegrationService) loadFinalForms(ctx context.Context) ([]roster.FinalFormsRecord, error) {
	file, err := s.files.MostRecentFile(ctx, s.cfg.FinalFormsFolderID)
	if err != nil {
		return nil, fmt.Errorf("locate final forms export: %w", err)
	}
	blob, err := s.files.DownloadBlob(ctx, file.ID)
	if err != nil {
		return nil, fmt.Errorf("download final forms export %s: %w", file.Name, err)
	}
	return roster.ParseFinalFormsCSV(string(blob), s.finalFormsCols)
}

func (s *IntegrationService) loadMailingList(ctx context.Context) ([]mailinglist.Member, error) {
	file, err := s.files.MostRecentFile(ctx, s.cfg.MailingListFolderID)
	if err != nil {
		return nil, fmt.Errorf("locate mailing list export: %w", err)
	}
	blob, err := s.files.DownloadBlob(ctx, file.ID)
	if err != nil {
		return nil, fmt.Errorf("download mailing list export %s: %w", file.Name, err)
	}
	return mailinglist.ParseMemberCSV(string(blob), s.memberCols)
}

func (s *IntegrationService) loadQuestionnaire(ctx context.Context) ([]questionnaire.Response, error) {
	data, err := s.sheets.GetCachedRange(ctx, s.cfg.QuestionnaireSource, "")
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(data.Rows))
	for i, row := range data.Rows {
		rows[i] = row.Texts()
	}
	return questionnaire.ParseRows(rows, s.questionnaireCols)
}

// integrate is the pure join: FinalForms anchors identity, the questionnaire
// is matched fuzzily, mailing-list membership is exact email equality. Given
// the same inputs it emits the same profiles in the same order.
func integrate(forms []roster.FinalFormsRecord, members []mailinglist.Member, responses []questionnaire.Response) roster.IntegratedData {
	candidates := make([]textmatch.Name, len(responses))
	for i, r := range responses {
		candidates[i] = textmatch.Name{First: r.FirstName, Last: r.LastName}
	}

	profiles := make([]roster.IntegratedProfile, 0, len(forms))
	var stats roster.Statistics

	for _, form := range forms {
		match := textmatch.BestMatch(textmatch.Name{First: form.FirstName, Last: form.LastName}, candidates)

		profile := roster.IntegratedProfile{
			FirstName:       form.FirstName,
			LastName:        form.LastName,
			Grade:           form.Grade,
			GuardianEmail1:  form.GuardianEmail1,
			GuardianEmail2:  form.GuardianEmail2,
			GuardianSigned:  form.GuardianSigned,
			PlayerSigned:    form.PlayerSigned,
			PhysicalCleared: form.PhysicalCleared,
			Questionnaire:   match.IsMatch,
			Guardian1OnList: mailinglist.ContainsEmail(members, form.GuardianEmail1),
			Guardian2OnList: mailinglist.ContainsEmail(members, form.GuardianEmail2),
		}
		profiles = append(profiles, profile)

		stats.Players++
		countFlag(&stats.GuardianSigned, profile.GuardianSigned)
		countFlag(&stats.PlayerSigned, profile.PlayerSigned)
		countFlag(&stats.PhysicalCleared, profile.PhysicalCleared)
		countFlag(&stats.Questionnaire, profile.Questionnaire)
		countFlag(&stats.Guardian1OnList, profile.Guardian1OnList)
		countFlag(&stats.Guardian2OnList, profile.Guardian2OnList)
		if profile.GuardianSigned && profile.PlayerSigned && profile.PhysicalCleared && profile.Questionnaire {
			stats.FullyComplete++
		}
	}

	return roster.IntegratedData{Profiles: profiles, Statistics: stats}
}

func countFlag(counter *int, flag bool) {
	if flag {
		*counter++
	}
}
