// Package app wires configuration, the provider client, cache tiers and
// services into a runnable HTTP server.
package app

import (
	"fmt"
	"net/http"

	"github.com/BigLep/roster-sync/external/googleapi"
	"github.com/BigLep/roster-sync/external/notify"
	"github.com/BigLep/roster-sync/internal/config"
	"github.com/BigLep/roster-sync/internal/interfaces/httpapi"
	"github.com/BigLep/roster-sync/internal/platform/cache"
	"github.com/BigLep/roster-sync/internal/platform/logging"
	"github.com/BigLep/roster-sync/internal/platform/resilience"
	"github.com/BigLep/roster-sync/internal/usecase"
)

const (
	SourceRoster        = "roster"
	SourceQuestionnaire = "questionnaire"
	SourceAttendance    = "attendance"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	client := googleapi.NewClient(googleapi.ClientConfig{
		SheetsBaseURL: cfg.GoogleSheetsBaseURL,
		DriveBaseURL:  cfg.GoogleDriveBaseURL,
		Token:         cfg.GoogleAPIToken,
		Timeout:       cfg.GoogleAPITimeout,
		MaxRetries:    cfg.GoogleAPIMaxRetries,
		Logger:        logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.GoogleCircuitEnabled,
			FailureThreshold: cfg.GoogleCircuitFailureCount,
			OpenTimeout:      cfg.GoogleCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.GoogleCircuitHalfOpenMaxReq,
		},
	})

	rawStore := cache.NewStore()
	computedStore := cache.NewStore()

	sources := []usecase.SheetSource{
		{Name: SourceRoster, SpreadsheetID: cfg.RosterSheetID, Range: cfg.RosterSheetRange, TTL: cfg.RosterTTL},
		{Name: SourceQuestionnaire, SpreadsheetID: cfg.QuestionnaireSheetID, Range: cfg.QuestionnaireRange, TTL: cfg.QuestionnaireTTL},
		{Name: SourceAttendance, SpreadsheetID: cfg.AttendanceSheetID, Range: cfg.AttendanceRange, TTL: cfg.AttendanceTTL},
	}

	sheetSvc := usecase.NewSheetCacheService(client, rawStore, sources, logger)

	integrationSvc := usecase.NewIntegrationService(client, sheetSvc, computedStore, usecase.IntegrationConfig{
		FinalFormsFolderID:  cfg.FinalFormsFolderID,
		MailingListFolderID: cfg.MailingListFolderID,
		QuestionnaireSource: SourceQuestionnaire,
		TTL:                 cfg.IntegratedTTL,
	}, logger)

	portalSvc := usecase.NewPortalService(sheetSvc, computedStore, SourceRoster, cfg.PortalTTL, logger)

	// A roster re-read means the derived portal index may be out of date.
	sheetSvc.SetRefreshHook(func(source string) {
		if source == SourceRoster {
			portalSvc.Invalidate()
		}
	})

	var notifier usecase.SynthesisNotifier
	if cfg.WebhookEnabled {
		notifier = notify.NewWebhookPublisher(notify.WebhookPublisherConfig{
			URL:     cfg.WebhookURL,
			Token:   cfg.WebhookToken,
			Timeout: cfg.WebhookTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.WebhookCircuitEnabled,
				FailureThreshold: cfg.WebhookCircuitFailureCount,
				OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	synthesisSvc := usecase.NewSynthesisService(integrationSvc, sheetSvc, client, notifier, usecase.SynthesisConfig{
		RosterSource: SourceRoster,
		BatchSize:    cfg.SynthesisBatchSize,
		BatchDelay:   cfg.SynthesisBatchDelay,
		RowDelay:     cfg.SynthesisRowDelay,
	}, logger)

	refreshSvc := usecase.NewRefreshService(sheetSvc, integrationSvc, portalSvc, cfg.RefreshWorkers, logger)

	handler := httpapi.NewHandler(sheetSvc, integrationSvc, portalSvc, synthesisSvc, refreshSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
