// Package notify posts synthesis run summaries to an operator webhook
// (Slack-compatible incoming webhook or any JSON endpoint).
package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/BigLep/roster-sync/internal/domain/synthesis"
	"github.com/BigLep/roster-sync/internal/platform/logging"
	"github.com/BigLep/roster-sync/internal/platform/resilience"
)

var errWebhookTransient = crerr.New("webhook transient failure")

type WebhookPublisherConfig struct {
	URL            string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookPublisher implements usecase.SynthesisNotifier.
type WebhookPublisher struct {
	client         *fasthttp.Client
	url            string
	token          string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewWebhookPublisher(cfg WebhookPublisherConfig, logger *logging.Logger) *WebhookPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &WebhookPublisher{
		client:         &fasthttp.Client{ReadTimeout: timeout, WriteTimeout: timeout},
		url:            strings.TrimSpace(cfg.URL),
		token:          strings.TrimSpace(cfg.Token),
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type runPayload struct {
	RunID    string   `json:"runId"`
	Added    int      `json:"added"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   int      `json:"errors"`
	Orphaned []string `json:"orphaned,omitempty"`
	Text     string   `json:"text"`
}

func (p *WebhookPublisher) PublishSynthesis(ctx context.Context, result synthesis.Result) error {
	if p.url == "" {
		return nil
	}
	if _, err := validateHTTPURL(p.url); err != nil {
		return crerr.Wrap(err, "invalid webhook url")
	}

	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "webhook circuit breaker rejected request", "state", p.breaker.State())
			return fmt.Errorf("webhook is temporarily unavailable: %w", err)
		}
	}

	payload := runPayload{
		RunID:    result.RunID,
		Added:    result.Added,
		Updated:  result.Updated,
		Skipped:  result.Skipped,
		Errors:   result.WriteErrors,
		Orphaned: result.Orphaned,
		Text:     summaryText(result),
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "marshal webhook payload")
	}

	callErr := p.post(ctx, body)
	p.recordCircuitResult(callErr)
	if callErr != nil {
		return callErr
	}
	p.logger.InfoContext(ctx, "synthesis run notification delivered", "run_id", result.RunID)
	return nil
}

func (p *WebhookPublisher) post(ctx context.Context, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.SetBody(body)

	if err := p.client.DoTimeout(req, resp, p.timeout); err != nil {
		return fmt.Errorf("%w: post webhook: %v", errWebhookTransient, err)
	}

	status := resp.StatusCode()
	if status/100 != 2 {
		preview := truncateForLog(string(resp.Body()), 1024)
		if isRetryableStatus(status) {
			return fmt.Errorf("%w: post webhook status=%d body=%s", errWebhookTransient, status, preview)
		}
		return fmt.Errorf("post webhook status=%d body=%s", status, preview)
	}
	return nil
}

func summaryText(result synthesis.Result) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = fmt.Fprintf(buf, "Roster synthesis %s: %d added, %d updated, %d unchanged",
		result.RunID, result.Added, result.Updated, result.Skipped)
	if result.WriteErrors > 0 {
		_, _ = fmt.Fprintf(buf, ", %d write failures", result.WriteErrors)
	}
	if len(result.Orphaned) > 0 {
		_, _ = fmt.Fprintf(buf, ". Rows without a source record: %s", strings.Join(result.Orphaned, ", "))
	}
	return buf.String()
}

func validateHTTPURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", raw, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", raw)
	}
	return raw, nil
}

func (p *WebhookPublisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err != nil && stderrors.Is(err, errWebhookTransient) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == fasthttp.StatusRequestTimeout ||
		statusCode == fasthttp.StatusTooManyRequests ||
		statusCode >= fasthttp.StatusInternalServerError
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
