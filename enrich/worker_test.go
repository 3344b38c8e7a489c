// ABOUTME: Tests for the enrichment worker pool
// ABOUTME: Covers note wording, non-blocking scheduling, shutdown draining and outcome metrics
package enrich

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
	gate    chan struct{}
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.reply, s.err
}

type memoryRecorder struct {
	mu    sync.Mutex
	notes []models.Activity
	err   error
}

func (r *memoryRecorder) RecordActivity(_ context.Context, a models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.notes = append(r.notes, a)
	return nil
}

func (r *memoryRecorder) recorded() []models.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Activity(nil), r.notes...)
}

func quietOptions() Options {
	return Options{Workers: 2, QueueSize: 4, Timeout: time.Second, Logger: log.New(io.Discard)}
}

func closeWorker(t *testing.T, w *Worker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))
}

var acme = models.Company{ID: "comp-9", Name: "Acme", Website: "https://acme.com", Industry: "Technology"}

func TestWorkerRecordsSummary(t *testing.T) {
	completer := &stubCompleter{reply: "Acme builds robots for warehouses."}
	recorder := &memoryRecorder{}
	w := NewWorker(completer, recorder, quietOptions())

	w.Schedule(acme)
	closeWorker(t, w)

	notes := recorder.recorded()
	require.Len(t, notes, 1)
	assert.Equal(t, models.ActivityNote, notes[0].Type)
	assert.Equal(t, "comp-9", notes[0].CompanyID)
	assert.Equal(t, "AI summary for Acme: Acme builds robots for warehouses.", notes[0].Subject)
	assert.Contains(t, completer.prompts[0], "https://acme.com")
	assert.Equal(t, float64(1), testutil.ToFloat64(w.outcomes.WithLabelValues(OutcomeSucceeded)))
}

func TestWorkerRecordsFailure(t *testing.T) {
	completer := &stubCompleter{err: errors.New("rate limited")}
	recorder := &memoryRecorder{}
	w := NewWorker(completer, recorder, quietOptions())

	w.Schedule(acme)
	closeWorker(t, w)

	notes := recorder.recorded()
	require.Len(t, notes, 1)
	assert.Equal(t, "AI enrichment failed for Acme: rate limited", notes[0].Subject)
	assert.Equal(t, float64(1), testutil.ToFloat64(w.outcomes.WithLabelValues(OutcomeFailed)))
}

func TestWorkerRecordErrorCountsAsFailure(t *testing.T) {
	recorder := &memoryRecorder{err: errors.New("disk full")}
	w := NewWorker(&stubCompleter{reply: "ok"}, recorder, quietOptions())

	w.Schedule(acme)
	closeWorker(t, w)

	assert.Empty(t, recorder.recorded())
	assert.Equal(t, float64(1), testutil.ToFloat64(w.outcomes.WithLabelValues(OutcomeFailed)))
}

func TestScheduleNeverBlocksWhenQueueIsFull(t *testing.T) {
	completer := &stubCompleter{reply: "summary", gate: make(chan struct{})}
	recorder := &memoryRecorder{}
	opts := quietOptions()
	opts.Workers = 1
	opts.QueueSize = 0
	w := NewWorker(completer, recorder, opts)

	scheduled := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			w.Schedule(acme)
		}
		close(scheduled)
	}()

	select {
	case <-scheduled:
	case <-time.After(2 * time.Second):
		t.Fatal("Schedule blocked while workers were busy")
	}

	close(completer.gate)
	closeWorker(t, w)
	assert.Len(t, recorder.recorded(), 5)
}

func TestScheduleAfterCloseIsDropped(t *testing.T) {
	recorder := &memoryRecorder{}
	w := NewWorker(&stubCompleter{reply: "summary"}, recorder, quietOptions())
	closeWorker(t, w)

	w.Schedule(acme)
	assert.Empty(t, recorder.recorded())
	assert.Equal(t, float64(1), testutil.ToFloat64(w.outcomes.WithLabelValues(OutcomeDropped)))

	// Closing twice is harmless
	closeWorker(t, w)
}

func TestCloseDeadlineCancelsCompletions(t *testing.T) {
	completer := &stubCompleter{reply: "never", gate: make(chan struct{})}
	recorder := &memoryRecorder{}
	w := NewWorker(completer, recorder, quietOptions())
	w.Schedule(acme)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := w.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	notes := recorder.recorded()
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Subject, "AI enrichment failed for Acme")
}

func TestRegisterExposesOutcomes(t *testing.T) {
	w := NewWorker(&stubCompleter{reply: "x"}, &memoryRecorder{}, quietOptions())
	defer closeWorker(t, w)

	reg := prometheus.NewRegistry()
	require.NoError(t, w.Register(reg))
	w.outcomes.WithLabelValues(OutcomeSucceeded).Add(0)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "crmd_enrichment_jobs_total", families[0].GetName())
}
