// ABOUTME: Background company enrichment worker pool
// ABOUTME: Summarizes newly created companies and records the result as a note activity
package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/models"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

// Recorder stores the note produced for a company.
type Recorder interface {
	RecordActivity(ctx context.Context, a models.Activity) error
}

type Options struct {
	Workers   int
	QueueSize int
	// Timeout bounds each completion call.
	Timeout time.Duration
	Logger  *log.Logger
}

// Worker runs enrichment jobs on a fixed pool of goroutines.
type Worker struct {
	completer Completer
	recorder  Recorder
	logger    *log.Logger
	timeout   time.Duration

	jobs   chan models.Company
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
	workers sync.WaitGroup
	done    chan struct{}

	outcomes *prometheus.CounterVec
}

func NewWorker(completer Completer, recorder Recorder, opts Options) *Worker {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		completer: completer,
		recorder:  recorder,
		logger:    opts.Logger.WithPrefix("enrich"),
		timeout:   opts.Timeout,
		jobs:      make(chan models.Company, opts.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crmd",
			Subsystem: "enrichment",
			Name:      "jobs_total",
			Help:      "Company enrichment jobs by outcome.",
		}, []string{"outcome"}),
	}
	for i := 0; i < opts.Workers; i++ {
		w.workers.Add(1)
		go w.run()
	}
	return w
}

// Register exposes the job outcome counter on reg.
func (w *Worker) Register(reg prometheus.Registerer) error {
	return reg.Register(w.outcomes)
}

// Schedule queues company for enrichment without blocking the caller.
func (w *Worker) Schedule(company models.Company) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		w.logger.Warn("enrichment worker closed, dropping job", "company", company.ID)
		w.outcomes.WithLabelValues(OutcomeDropped).Inc()
		return
	}

	select {
	case w.jobs <- company:
		return
	default:
	}

	// Queue is full: hand off so the caller never waits.
	w.pending.Add(1)
	go func() {
		defer w.pending.Done()
		select {
		case w.jobs <- company:
		case <-w.ctx.Done():
			w.logger.Warn("enrichment cancelled before start", "company", company.ID)
			w.outcomes.WithLabelValues(OutcomeDropped).Inc()
		}
	}()
}

// Close stops intake and waits for queued and in-flight jobs. When ctx
// expires first, outstanding completions are cancelled.
func (w *Worker) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		go func() {
			w.pending.Wait()
			close(w.jobs)
			w.workers.Wait()
			close(w.done)
		}()
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-w.done
		return ctx.Err()
	}
}

func (w *Worker) run() {
	defer w.workers.Done()
	for company := range w.jobs {
		w.process(company)
	}
}

func (w *Worker) process(company models.Company) {
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	summary, err := w.completer.Complete(ctx, summaryPrompt(company))
	cancel()

	note := models.Activity{
		Type:      models.ActivityNote,
		CompanyID: company.ID,
	}
	outcome := OutcomeSucceeded
	if err != nil {
		outcome = OutcomeFailed
		note.Subject = fmt.Sprintf("AI enrichment failed for %s: %v", company.Name, err)
		w.logger.Warn("enrichment failed", "company", company.ID, "err", err)
	} else {
		note.Subject = fmt.Sprintf("AI summary for %s: %s", company.Name, summary)
	}

	// The note must land even after Close cancelled the completion context.
	recordCtx, cancelRecord := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelRecord()
	if err := w.recorder.RecordActivity(recordCtx, note); err != nil {
		w.logger.Error("failed to record enrichment note", "company", company.ID, "err", err)
		outcome = OutcomeFailed
	}
	w.outcomes.WithLabelValues(outcome).Inc()
}

func summaryPrompt(c models.Company) string {
	return fmt.Sprintf(
		"Write a two-sentence summary of the company %q (website: %s, industry: %s). "+
			"Describe what they sell and who their customers are.",
		c.Name, c.Website, c.Industry)
}
