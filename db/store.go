// ABOUTME: Single-writer entity store over one workspace snapshot
// ABOUTME: Lazy hydration, demo seeding, and clone-persist-swap mutations under one mutex
package db

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/crmd/models"
	"github.com/oklog/ulid/v2"
)

// Extra verbs reported through Change for the workflow actions.
const (
	VerbConvert  models.Verb = "convert"
	VerbGenerate models.Verb = "generate"
	VerbMarkRead models.Verb = "read"
)

// Change describes one persisted mutation.
type Change struct {
	Kind models.Kind `json:"kind"`
	Verb models.Verb `json:"verb"`
	ID   string      `json:"id,omitempty"`
	At   time.Time   `json:"at"`
}

// Enricher receives newly created companies. Schedule must not block.
type Enricher interface {
	Schedule(company models.Company)
}

type Options struct {
	Logger   *log.Logger
	Now      func() time.Time
	Enricher Enricher
	// Observer is called after every successful persist, with the store
	// lock held. It must not block or call back into the store.
	Observer func(Change)
}

// Store serializes every operation on the workspace with a single mutex.
type Store struct {
	mu        sync.Mutex
	backend   StateBackend
	state     *Snapshot
	logger    *log.Logger
	now       func() time.Time
	enricher  Enricher
	observer  func(Change)
	validator *Validator
	entropy   io.Reader
}

func NewStore(backend StateBackend, opts Options) (*Store, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		backend:   backend,
		logger:    opts.Logger,
		now:       opts.Now,
		enricher:  opts.Enricher,
		observer:  opts.Observer,
		validator: validator,
		entropy:   ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// SetEnricher installs the enrichment hook once the worker exists.
func (s *Store) SetEnricher(e Enricher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enricher = e
}

// SetObserver installs the change observer.
func (s *Store) SetObserver(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Hydrate loads or seeds the workspace without performing any other operation.
func (s *Store) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded(ctx)
}

// Snapshot returns a copy of the current workspace state.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return s.state.Clone(), nil
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// ensureLoaded hydrates the state on first use. Caller holds s.mu.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.state != nil {
		return nil
	}

	snap, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load snapshot", "err", err)
		return &StorageError{Op: "load", Err: err}
	}

	seed := Seed(s.now())
	if snap == nil || snap.Contacts.Len() == 0 {
		s.logger.Info("seeding workspace with demo data")
		if err := s.backend.Save(ctx, seed); err != nil {
			s.logger.Error("failed to persist seed snapshot", "err", err)
			return &StorageError{Op: "save", Err: err}
		}
		s.state = seed
		return nil
	}

	snap.fillMissing(seed)
	s.state = snap
	return nil
}

// commit persists next and swaps it in. Caller holds s.mu. A failed save
// leaves the in-memory state untouched.
func (s *Store) commit(ctx context.Context, change Change, next *Snapshot) error {
	if err := s.backend.Save(ctx, next); err != nil {
		s.logger.Error("failed to persist snapshot",
			"kind", change.Kind, "verb", change.Verb, "id", change.ID, "err", err)
		return &StorageError{Op: "save", Err: err}
	}
	s.state = next

	change.At = s.now()
	if s.observer != nil {
		s.observer(change)
	}
	return nil
}

func (s *Store) newID(prefix string) string {
	return prefix + "-" + ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// RecordActivity appends an activity, filling in id and date when empty.
func (s *Store) RecordActivity(ctx context.Context, a models.Activity) error {
	if a.ID == "" {
		s.mu.Lock()
		a.ID = s.newID("activity")
		s.mu.Unlock()
	}
	if a.Date.IsZero() {
		a.Date = s.now()
	}
	_, err := s.Activities().Create(ctx, a)
	return err
}
