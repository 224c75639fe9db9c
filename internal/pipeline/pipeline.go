package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mail-unsubscriber/internal/emailprocessor"
	imapclient "mail-unsubscriber/internal/imap"
	"mail-unsubscriber/internal/logging"
	"mail-unsubscriber/internal/models"
	"mail-unsubscriber/internal/record"
	"mail-unsubscriber/internal/unsubscribe"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyRun is returned when Run is called on a pipeline that has left the idle state
var ErrAlreadyRun = errors.New("pipeline has already been run")

// Pipeline drives one scan → extract → dispatch → record run over an owned session
type Pipeline struct {
	session   imapclient.Session
	creds     models.Credentials
	folder    string
	processor *emailprocessor.Processor
	service   *unsubscribe.Service
	recorder  record.Recorder
	dryRun    bool

	mu    sync.Mutex
	state State
}

// New creates a Pipeline for cfg. The pipeline takes ownership of session and closes it when Run returns.
func New(cfg *models.Config, session imapclient.Session, dispatcher unsubscribe.Dispatcher, recorder record.Recorder) *Pipeline {
	return &Pipeline{
		session:   session,
		creds:     cfg.Credentials(),
		folder:    cfg.Email.MailBox,
		processor: emailprocessor.NewProcessor(session, cfg.Scan.Workers),
		service:   unsubscribe.NewService(dispatcher, cfg.Dispatch.Concurrency),
		recorder:  recorder,
		dryRun:    cfg.Dispatch.DryRun,
		state:     StateIdle,
	}
}

// State returns the current lifecycle state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) transition(log *logrus.Entry, to State) {
	p.mu.Lock()
	from := p.state
	p.state = to
	p.mu.Unlock()
	log.Debugf("Pipeline state %s -> %s", from, to)
}

func (p *Pipeline) fail(log *logrus.Entry, err error) error {
	p.transition(log, StateFailed)
	log.Errorf("Run failed: %v", err)
	return err
}

// Run executes the pipeline once. The returned report holds whatever was gathered
// before a failure. Only mailbox-level failures, cancellation and record failures
// produce an error; per-message and per-link failures do not.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	p.mu.Unlock()

	report := &Report{RunID: uuid.New().String(), DryRun: p.dryRun}
	runlog := logging.Log.WithField("run_id", report.RunID)

	defer func() {
		if err := p.session.Close(); err != nil {
			runlog.Warnf("Error closing mailbox session: %v", err)
		}
	}()

	// Connect
	if err := p.session.Open(ctx, p.creds); err != nil {
		return report, p.fail(runlog, err)
	}
	if err := p.session.SelectFolder(p.folder); err != nil {
		return report, p.fail(runlog, err)
	}
	p.transition(runlog, StateConnected)
	runlog.Infof("Connected to %s, folder %s", p.creds.Host, p.folder)

	// Scan
	p.transition(runlog, StateScanning)
	ids, err := p.session.SearchUnsubscribeCandidates()
	if err != nil {
		return report, p.fail(runlog, fmt.Errorf("search failed: %w", err))
	}
	report.MessagesFound = len(ids)
	runlog.Infof("Found %d candidate message(s)", len(ids))

	scan, err := p.processor.ProcessAll(ctx, ids)
	if err != nil {
		return report, p.fail(runlog, fmt.Errorf("scan interrupted: %w", err))
	}
	report.MessagesScanned = scan.Scanned
	report.MessagesSkipped = scan.Skipped
	report.LinksExtracted = len(scan.Links)
	report.Links = Dedup(scan.Links)
	runlog.Infof("Extracted %d link(s), %d distinct", report.LinksExtracted, len(report.Links))

	if err := ctx.Err(); err != nil {
		return report, p.fail(runlog, fmt.Errorf("cancelled before dispatch: %w", err))
	}

	// Dispatch
	p.transition(runlog, StateDispatching)
	urls := report.URLs()
	var dispatchErr error
	if p.dryRun {
		for _, url := range urls {
			runlog.Infof("Dry run, not visiting %s", url)
		}
	} else {
		report.Results, dispatchErr = p.service.DispatchAll(ctx, urls)
		report.NotDispatched = len(urls) - len(report.Results)
		runlog.Infof("Dispatched %d link(s), %d failed", len(report.Results), report.Failures())
	}

	// Record the links even if the run was cancelled while dispatching
	saveErr := p.recorder.Save(context.WithoutCancel(ctx), urls)
	if saveErr != nil {
		saveErr = fmt.Errorf("saving links: %w", saveErr)
	}
	if dispatchErr != nil {
		err := fmt.Errorf("dispatch interrupted, %d of %d link(s) not visited: %w", report.NotDispatched, len(urls), dispatchErr)
		return report, p.fail(runlog, errors.Join(err, saveErr))
	}
	if saveErr != nil {
		return report, p.fail(runlog, saveErr)
	}

	p.transition(runlog, StateCompleted)
	return report, nil
}
