package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BigLep/roster-sync/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                       string
	ServiceName                  string
	ServiceVersion               string
	HTTPAddr                     string
	ReadTimeout                  time.Duration
	WriteTimeout                 time.Duration
	ShutdownTimeout              time.Duration
	CORSAllowedOrigins           []string
	LogLevel                     logging.Level
	PprofEnabled                 bool
	PprofAddr                    string
	PyroscopeEnabled             bool
	PyroscopeServerAddress       string
	PyroscopeAppName             string
	PyroscopeAuthToken           string
	PyroscopeBasicAuthUser       string
	PyroscopeBasicAuthPassword   string
	PyroscopeUploadRate          time.Duration
	UptraceEnabled               bool
	UptraceDSN                   string
	GoogleSheetsBaseURL          string
	GoogleDriveBaseURL           string
	GoogleAPIToken               string
	GoogleAPITimeout             time.Duration
	GoogleAPIMaxRetries          int
	GoogleCircuitEnabled         bool
	GoogleCircuitFailureCount    int
	GoogleCircuitOpenTimeout     time.Duration
	GoogleCircuitHalfOpenMaxReq  int
	RosterSheetID                string
	RosterSheetRange             string
	RosterTTL                    time.Duration
	QuestionnaireSheetID         string
	QuestionnaireRange           string
	QuestionnaireTTL             time.Duration
	AttendanceSheetID            string
	AttendanceRange              string
	AttendanceTTL                time.Duration
	IntegratedTTL                time.Duration
	PortalTTL                    time.Duration
	FinalFormsFolderID           string
	MailingListFolderID          string
	SynthesisBatchSize           int
	SynthesisBatchDelay          time.Duration
	SynthesisRowDelay            time.Duration
	RefreshWorkers               int
	WebhookEnabled               bool
	WebhookURL                   string
	WebhookToken                 string
	WebhookTimeout               time.Duration
	WebhookCircuitEnabled        bool
	WebhookCircuitFailureCount   int
	WebhookCircuitOpenTimeout    time.Duration
	WebhookCircuitHalfOpenMaxReq int
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	googleAPITimeout, err := time.ParseDuration(getEnv("GOOGLE_API_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GOOGLE_API_TIMEOUT: %w", err)
	}
	if googleAPITimeout <= 0 {
		return Config{}, fmt.Errorf("GOOGLE_API_TIMEOUT must be > 0")
	}
	googleAPIMaxRetries, err := getEnvAsInt("GOOGLE_API_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse GOOGLE_API_MAX_RETRIES: %w", err)
	}
	if googleAPIMaxRetries < 0 {
		return Config{}, fmt.Errorf("GOOGLE_API_MAX_RETRIES must be >= 0")
	}
	googleCircuitEnabled, err := strconv.ParseBool(getEnv("GOOGLE_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GOOGLE_CIRCUIT_ENABLED: %w", err)
	}
	googleCircuitFailureCount, err := getEnvAsInt("GOOGLE_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse GOOGLE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if googleCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("GOOGLE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	googleCircuitOpenTimeout, err := time.ParseDuration(getEnv("GOOGLE_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GOOGLE_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if googleCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("GOOGLE_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	googleCircuitHalfOpenMaxReq, err := getEnvAsInt("GOOGLE_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse GOOGLE_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if googleCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("GOOGLE_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	rosterSheetID := strings.TrimSpace(getEnv("ROSTER_SHEET_ID", ""))
	if rosterSheetID == "" {
		return Config{}, fmt.Errorf("ROSTER_SHEET_ID is required")
	}
	questionnaireSheetID := strings.TrimSpace(getEnv("QUESTIONNAIRE_SHEET_ID", ""))
	if questionnaireSheetID == "" {
		return Config{}, fmt.Errorf("QUESTIONNAIRE_SHEET_ID is required")
	}
	attendanceSheetID := strings.TrimSpace(getEnv("ATTENDANCE_SHEET_ID", rosterSheetID))
	finalFormsFolderID := strings.TrimSpace(getEnv("FINALFORMS_FOLDER_ID", ""))
	if finalFormsFolderID == "" {
		return Config{}, fmt.Errorf("FINALFORMS_FOLDER_ID is required")
	}
	mailingListFolderID := strings.TrimSpace(getEnv("MAILING_LIST_FOLDER_ID", ""))
	if mailingListFolderID == "" {
		return Config{}, fmt.Errorf("MAILING_LIST_FOLDER_ID is required")
	}

	rosterTTL, err := time.ParseDuration(getEnv("ROSTER_TTL", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_TTL: %w", err)
	}
	if rosterTTL <= 0 {
		return Config{}, fmt.Errorf("ROSTER_TTL must be > 0")
	}
	questionnaireTTL, err := time.ParseDuration(getEnv("QUESTIONNAIRE_TTL", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse QUESTIONNAIRE_TTL: %w", err)
	}
	if questionnaireTTL <= 0 {
		return Config{}, fmt.Errorf("QUESTIONNAIRE_TTL must be > 0")
	}
	attendanceTTL, err := time.ParseDuration(getEnv("ATTENDANCE_TTL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ATTENDANCE_TTL: %w", err)
	}
	if attendanceTTL <= 0 {
		return Config{}, fmt.Errorf("ATTENDANCE_TTL must be > 0")
	}
	integratedTTL, err := time.ParseDuration(getEnv("INTEGRATED_TTL", "15m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse INTEGRATED_TTL: %w", err)
	}
	if integratedTTL <= 0 {
		return Config{}, fmt.Errorf("INTEGRATED_TTL must be > 0")
	}
	portalTTL, err := time.ParseDuration(getEnv("PORTAL_TTL", "30m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PORTAL_TTL: %w", err)
	}
	if portalTTL <= 0 {
		return Config{}, fmt.Errorf("PORTAL_TTL must be > 0")
	}

	synthesisBatchSize, err := getEnvAsInt("SYNTHESIS_BATCH_SIZE", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNTHESIS_BATCH_SIZE: %w", err)
	}
	if synthesisBatchSize < 1 {
		return Config{}, fmt.Errorf("SYNTHESIS_BATCH_SIZE must be >= 1")
	}
	synthesisBatchDelay, err := time.ParseDuration(getEnv("SYNTHESIS_BATCH_DELAY", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNTHESIS_BATCH_DELAY: %w", err)
	}
	if synthesisBatchDelay < 0 {
		return Config{}, fmt.Errorf("SYNTHESIS_BATCH_DELAY must be >= 0")
	}
	synthesisRowDelay, err := time.ParseDuration(getEnv("SYNTHESIS_ROW_DELAY", "100ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNTHESIS_ROW_DELAY: %w", err)
	}
	if synthesisRowDelay < 0 {
		return Config{}, fmt.Errorf("SYNTHESIS_ROW_DELAY must be >= 0")
	}

	refreshWorkers, err := getEnvAsInt("REFRESH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_WORKERS: %w", err)
	}
	if refreshWorkers < 1 {
		return Config{}, fmt.Errorf("REFRESH_WORKERS must be >= 1")
	}

	webhookEnabled, err := strconv.ParseBool(getEnv("WEBHOOK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_ENABLED: %w", err)
	}
	webhookURL := strings.TrimSpace(getEnv("WEBHOOK_URL", ""))
	if webhookEnabled && webhookURL == "" {
		return Config{}, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_ENABLED=true")
	}
	webhookTimeout, err := time.ParseDuration(getEnv("WEBHOOK_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_TIMEOUT: %w", err)
	}
	if webhookTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_TIMEOUT must be > 0")
	}
	webhookCircuitEnabled, err := strconv.ParseBool(getEnv("WEBHOOK_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_ENABLED: %w", err)
	}
	webhookCircuitFailureCount, err := getEnvAsInt("WEBHOOK_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if webhookCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	webhookCircuitOpenTimeout, err := time.ParseDuration(getEnv("WEBHOOK_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if webhookCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	webhookCircuitHalfOpenMaxReq, err := getEnvAsInt("WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if webhookCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("WEBHOOK_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}
	shutdownTimeout, err := time.ParseDuration(getEnv("APP_SHUTDOWN_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg := Config{
		AppEnv:                       appEnv,
		ServiceName:                  getEnv("APP_SERVICE_NAME", "roster-sync-api"),
		ServiceVersion:               getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                     getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                  readTimeout,
		WriteTimeout:                 writeTimeout,
		ShutdownTimeout:              shutdownTimeout,
		CORSAllowedOrigins:           splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:                     parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		PprofEnabled:                 pprofEnabled,
		PprofAddr:                    pprofAddr,
		PyroscopeEnabled:             pyroscopeEnabled,
		PyroscopeServerAddress:       pyroscopeServerAddress,
		PyroscopeAuthToken:           strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:       strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:   strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:          pyroscopeUploadRate,
		UptraceEnabled:               uptraceEnabled,
		UptraceDSN:                   uptraceDSN,
		GoogleSheetsBaseURL:          getEnv("GOOGLE_SHEETS_BASE_URL", "https://sheets.googleapis.com/v4"),
		GoogleDriveBaseURL:           getEnv("GOOGLE_DRIVE_BASE_URL", "https://www.googleapis.com/drive/v3"),
		GoogleAPIToken:               strings.TrimSpace(getEnv("GOOGLE_API_TOKEN", "")),
		GoogleAPITimeout:             googleAPITimeout,
		GoogleAPIMaxRetries:          googleAPIMaxRetries,
		GoogleCircuitEnabled:         googleCircuitEnabled,
		GoogleCircuitFailureCount:    googleCircuitFailureCount,
		GoogleCircuitOpenTimeout:     googleCircuitOpenTimeout,
		GoogleCircuitHalfOpenMaxReq:  googleCircuitHalfOpenMaxReq,
		RosterSheetID:                rosterSheetID,
		RosterSheetRange:             getEnv("ROSTER_SHEET_RANGE", "Players!A1:Z"),
		RosterTTL:                    rosterTTL,
		QuestionnaireSheetID:         questionnaireSheetID,
		QuestionnaireRange:           getEnv("QUESTIONNAIRE_RANGE", "Form Responses 1!A1:D"),
		QuestionnaireTTL:             questionnaireTTL,
		AttendanceSheetID:            attendanceSheetID,
		AttendanceRange:              getEnv("ATTENDANCE_RANGE", "Attendance!A1:Z"),
		AttendanceTTL:                attendanceTTL,
		IntegratedTTL:                integratedTTL,
		PortalTTL:                    portalTTL,
		FinalFormsFolderID:           finalFormsFolderID,
		MailingListFolderID:          mailingListFolderID,
		SynthesisBatchSize:           synthesisBatchSize,
		SynthesisBatchDelay:          synthesisBatchDelay,
		SynthesisRowDelay:            synthesisRowDelay,
		RefreshWorkers:               refreshWorkers,
		WebhookEnabled:               webhookEnabled,
		WebhookURL:                   webhookURL,
		WebhookToken:                 strings.TrimSpace(getEnv("WEBHOOK_TOKEN", "")),
		WebhookTimeout:               webhookTimeout,
		WebhookCircuitEnabled:        webhookCircuitEnabled,
		WebhookCircuitFailureCount:   webhookCircuitFailureCount,
		WebhookCircuitOpenTimeout:    webhookCircuitOpenTimeout,
		WebhookCircuitHalfOpenMaxReq: webhookCircuitHalfOpenMaxReq,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
