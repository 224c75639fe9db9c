package unsubscribe

import (
	"context"
	"io"
	"net/http"
	"time"

	"mail-unsubscriber/internal/logging"
	"mail-unsubscriber/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	meterName        = "mail-unsubscriber/unsubscribe"
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; mail-unsubscriber/1.0)"

	// response bodies are drained up to this size so the connection can be reused
	maxDrainBytes = 1 << 20
)

type HTTPDispatcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	meter     metric.Meter
	outcomes  metric.Int64Counter
}

type Option func(*HTTPDispatcher)

// WithHTTPClient replaces the underlying client. Its Timeout is left untouched;
// the per-request timeout is applied through the request context.
func WithHTTPClient(client *http.Client) Option {
	return func(d *HTTPDispatcher) {
		d.client = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(d *HTTPDispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(d *HTTPDispatcher) {
		if userAgent != "" {
			d.userAgent = userAgent
		}
	}
}

// WithMeter records outcomes on the given meter instead of the global provider
func WithMeter(meter metric.Meter) Option {
	return func(d *HTTPDispatcher) {
		d.meter = meter
	}
}

// NewHTTPDispatcher creates a dispatcher issuing a single GET per URL with a 10 second default timeout
func NewHTTPDispatcher(opts ...Option) *HTTPDispatcher {
	d := &HTTPDispatcher{
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		d.client = &http.Client{}
	}
	if d.meter == nil {
		d.meter = otel.Meter(meterName)
	}

	counter, err := d.meter.Int64Counter("unsubscribe.dispatch",
		metric.WithDescription("Unsubscribe requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logging.Log.WithError(err).Warn("Failed to create dispatch counter")
		counter = noop.Int64Counter{}
	}
	d.outcomes = counter

	return d
}

// Attempt issues a GET to url without retrying and classifies the outcome
func (d *HTTPDispatcher) Attempt(ctx context.Context, url string) models.DispatchResult {
	locallog := logging.Log.WithField("url", url)

	result := d.do(ctx, url)
	if result.Outcome == models.OutcomeNetworkError && ctx.Err() != nil {
		locallog.Warnf("Unsubscribe request interrupted: %s", result.Message)
		return result
	}
	d.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", result.Outcome.String())))

	switch result.Outcome {
	case models.OutcomeSuccess:
		locallog.Infof("Unsubscribed link (status %d)", result.StatusCode)
	case models.OutcomeHTTPFailure:
		locallog.Warnf("Unable to unsubscribe link with status %d", result.StatusCode)
	default:
		locallog.Errorf("Unsubscribe request failed: %s", result.Message)
	}

	return result
}

func (d *HTTPDispatcher) do(ctx context.Context, url string) models.DispatchResult {
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return networkError(url, err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return networkError(url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return models.DispatchResult{URL: url, Outcome: models.OutcomeSuccess, StatusCode: resp.StatusCode}
	}
	return models.DispatchResult{URL: url, Outcome: models.OutcomeHTTPFailure, StatusCode: resp.StatusCode}
}

func networkError(url string, err error) models.DispatchResult {
	return models.DispatchResult{URL: url, Outcome: models.OutcomeNetworkError, Message: err.Error()}
}
