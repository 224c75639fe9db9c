package emailprocessor

import (
	"context"

	"mail-unsubscriber/internal/logging"
	"mail-unsubscriber/internal/mailparse"
	"mail-unsubscriber/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"
)

const meterName = "mail-unsubscriber/emailprocessor"

// Fetcher retrieves raw messages over the mailbox session
type Fetcher interface {
	FetchRaw(id models.MessageID) (*models.RawMessage, error)
}

type Processor struct {
	fetcher  Fetcher
	workers  int
	messages metric.Int64Counter
}

// ScanResult holds every link found, in message order then document order, duplicates included
type ScanResult struct {
	Links   []models.UnsubscribeLink
	Scanned int
	Skipped int
}

type Option func(*Processor)

// WithMeter records message counts on the given meter instead of the global provider
func WithMeter(meter metric.Meter) Option {
	return func(p *Processor) {
		p.messages = newCounter(meter)
	}
}

// NewProcessor creates a new Processor that fetches through fetcher and parses with up to workers goroutines
func NewProcessor(fetcher Fetcher, workers int, opts ...Option) *Processor {
	if workers <= 0 {
		workers = 1
	}
	p := &Processor{
		fetcher: fetcher,
		workers: workers,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.messages == nil {
		p.messages = newCounter(otel.Meter(meterName))
	}
	return p
}

func newCounter(meter metric.Meter) metric.Int64Counter {
	counter, err := meter.Int64Counter("scan.messages",
		metric.WithDescription("Candidate messages by processing result"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		logging.Log.WithError(err).Warn("Failed to create message counter")
		return noop.Int64Counter{}
	}
	return counter
}

// ProcessAll fetches every message sequentially and decodes/extracts on the worker pool:
// fetch → decode → find HTML → extract links.
// Per-message failures are logged and skipped; only cancellation returns an error.
func (p *Processor) ProcessAll(ctx context.Context, ids []models.MessageID) (*ScanResult, error) {
	perMessage := make([][]models.UnsubscribeLink, len(ids))
	skipped := make([]bool, len(ids))

	var g errgroup.Group
	g.SetLimit(p.workers)

	var cancelErr error
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}

		raw, err := p.fetcher.FetchRaw(id)
		if err != nil {
			logging.Log.WithField("uid", id).Warnf("Skipping message: %v", err)
			skipped[i] = true
			continue
		}

		i, id := i, id
		g.Go(func() error {
			links, err := p.ExtractLinks(raw)
			if err != nil {
				logging.Log.WithField("uid", id).Warnf("Skipping message: %v", err)
				skipped[i] = true
				return nil
			}
			perMessage[i] = links
			return nil
		})
	}
	_ = g.Wait()

	if cancelErr != nil {
		return nil, cancelErr
	}

	result := &ScanResult{}
	for i := range ids {
		if skipped[i] {
			result.Skipped++
			continue
		}
		result.Scanned++
		result.Links = append(result.Links, perMessage[i]...)
	}

	p.messages.Add(ctx, int64(result.Scanned), metric.WithAttributes(attribute.String("result", "processed")))
	p.messages.Add(ctx, int64(result.Skipped), metric.WithAttributes(attribute.String("result", "skipped")))

	return result, nil
}

// ExtractLinks decodes a single message and returns the unsubscribe links of its HTML body.
// A message without HTML yields no links and no error.
func (p *Processor) ExtractLinks(raw *models.RawMessage) ([]models.UnsubscribeLink, error) {
	msg, err := mailparse.Decode(raw)
	if err != nil {
		return nil, err
	}

	locallog := logging.Log.WithField("trace_id", uuid.New().String()).WithField("uid", raw.ID)

	html, ok := mailparse.ExtractHTMLBody(msg.Body)
	if !ok {
		locallog.Debugf("No HTML part in message from %s, skipping", msg.From)
		return nil, nil
	}

	hrefs := mailparse.ExtractUnsubscribeLinks(html)
	if len(hrefs) == 0 {
		locallog.Debugf("No unsubscribe link found in %q", msg.Subject)
		return nil, nil
	}

	links := make([]models.UnsubscribeLink, 0, len(hrefs))
	for _, href := range hrefs {
		links = append(links, models.UnsubscribeLink{URL: href, SourceMessageID: raw.ID})
	}
	locallog.Infof("Found %d unsubscribe link(s) in %q from %s", len(links), msg.Subject, msg.From)

	return links, nil
}
