// ABOUTME: Typed CRUD over one collection plus the raw-JSON Resource used by transports
// ABOUTME: ResourceFor switches exhaustively over the closed set of entity kinds
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/crmd/models"
)

// Resource is the kind-erased CRUD surface spoken by the HTTP and MCP layers.
type Resource interface {
	Kind() models.Kind
	ListJSON(ctx context.Context) (json.RawMessage, error)
	CreateJSON(ctx context.Context, body []byte) (json.RawMessage, error)
	UpdateJSON(ctx context.Context, id string, body []byte) (json.RawMessage, error)
	DeleteJSON(ctx context.Context, id string) (json.RawMessage, error)
}

// Table is the typed CRUD surface for one kind.
type Table[T models.Record] struct {
	store *Store
	kind  models.Kind
	col   func(*Snapshot) *Collection[T]

	// decorate fills derived fields on list results.
	decorate func(snap *Snapshot, items []T, now time.Time)
	// strip clears derived fields before a record is stored.
	strip func(T) T
	// created runs after a create has been persisted, with the lock held.
	created func(s *Store, rec T)
}

func (t *Table[T]) Kind() models.Kind {
	return t.kind
}

// List returns every record, newest first.
func (t *Table[T]) List(ctx context.Context) ([]T, error) {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	items := t.col(s.state).All()
	if t.decorate != nil {
		t.decorate(s.state, items, s.now())
	}
	return items, nil
}

// Get returns the first record with a matching id.
func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if err := s.ensureLoaded(ctx); err != nil {
		return zero, err
	}
	rec, ok := t.col(s.state).Find(id)
	if !ok {
		return zero, &NotFoundError{Kind: t.kind, ID: id}
	}
	return rec, nil
}

// Create prepends rec as-is. Duplicate ids are not rejected.
func (t *Table[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if !t.kind.Allows(models.VerbCreate) {
		return zero, unsupported(t.kind, models.VerbCreate)
	}
	if rec.RecordID() == "" {
		return zero, malformed("%s record requires an id", t.kind)
	}
	if t.strip != nil {
		rec = t.strip(rec)
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return zero, err
	}

	next := s.state.Clone()
	t.col(next).Prepend(rec)
	if err := s.commit(ctx, Change{Kind: t.kind, Verb: models.VerbCreate, ID: rec.RecordID()}, next); err != nil {
		return zero, err
	}

	if t.created != nil {
		t.created(s, rec)
	}
	return rec, nil
}

// Update replaces the record stored under id wholesale.
func (t *Table[T]) Update(ctx context.Context, id string, rec T) (T, error) {
	var zero T
	if !t.kind.Allows(models.VerbUpdate) {
		return zero, unsupported(t.kind, models.VerbUpdate)
	}
	if t.strip != nil {
		rec = t.strip(rec)
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return zero, err
	}

	next := s.state.Clone()
	if !t.col(next).Replace(id, rec) {
		return zero, &NotFoundError{Kind: t.kind, ID: id}
	}
	if err := s.commit(ctx, Change{Kind: t.kind, Verb: models.VerbUpdate, ID: id}, next); err != nil {
		return zero, err
	}
	return rec, nil
}

// Delete removes the first record stored under id.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	if !t.kind.Allows(models.VerbDelete) {
		return unsupported(t.kind, models.VerbDelete)
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	next := s.state.Clone()
	if !t.col(next).Remove(id) {
		return &NotFoundError{Kind: t.kind, ID: id}
	}
	return s.commit(ctx, Change{Kind: t.kind, Verb: models.VerbDelete, ID: id}, next)
}

func (t *Table[T]) ListJSON(ctx context.Context) (json.RawMessage, error) {
	items, err := t.List(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(items)
}

func (t *Table[T]) CreateJSON(ctx context.Context, body []byte) (json.RawMessage, error) {
	if !t.kind.Allows(models.VerbCreate) {
		return nil, unsupported(t.kind, models.VerbCreate)
	}
	rec, err := t.decode(body)
	if err != nil {
		return nil, err
	}
	created, err := t.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	return json.Marshal(created)
}

func (t *Table[T]) UpdateJSON(ctx context.Context, id string, body []byte) (json.RawMessage, error) {
	if !t.kind.Allows(models.VerbUpdate) {
		return nil, unsupported(t.kind, models.VerbUpdate)
	}
	rec, err := t.decode(body)
	if err != nil {
		return nil, err
	}
	updated, err := t.Update(ctx, id, rec)
	if err != nil {
		return nil, err
	}
	return json.Marshal(updated)
}

func (t *Table[T]) DeleteJSON(ctx context.Context, id string) (json.RawMessage, error) {
	if err := t.Delete(ctx, id); err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{"id": id})
}

func (t *Table[T]) decode(body []byte) (T, error) {
	var rec T
	if err := t.store.validator.Validate(t.kind, body); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(body, &rec); err != nil {
		return rec, malformed("%s body: %v", t.kind, err)
	}
	return rec, nil
}

// ResourceFor returns the raw-JSON surface for kind.
func (s *Store) ResourceFor(kind models.Kind) (Resource, error) {
	switch kind {
	case models.KindContacts:
		return s.Contacts(), nil
	case models.KindCompanies:
		return s.Companies(), nil
	case models.KindDeals:
		return s.Deals(), nil
	case models.KindLeads:
		return s.Leads(), nil
	case models.KindActivities:
		return s.Activities(), nil
	case models.KindNotifications:
		return s.Notifications(), nil
	case models.KindComments:
		return s.Comments(), nil
	case models.KindUsers:
		return s.Users(), nil
	case models.KindTasks:
		return s.Tasks(), nil
	case models.KindGoals:
		return s.Goals(), nil
	case models.KindICPs:
		return s.ICPs(), nil
	case models.KindArticles:
		return s.Articles(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (s *Store) Contacts() *Table[models.Contact] {
	return &Table[models.Contact]{
		store: s,
		kind:  models.KindContacts,
		col:   func(snap *Snapshot) *Collection[models.Contact] { return &snap.Contacts },
		decorate: func(snap *Snapshot, items []models.Contact, now time.Time) {
			for i := range items {
				score := models.RelationshipStrength(items[i].ID, models.SubjectContact, snap.Activities.items, now)
				items[i].RelationshipStrength = &score
			}
		},
		strip: func(c models.Contact) models.Contact {
			c.RelationshipStrength = nil
			return c
		},
	}
}

func (s *Store) Companies() *Table[models.Company] {
	return &Table[models.Company]{
		store: s,
		kind:  models.KindCompanies,
		col:   func(snap *Snapshot) *Collection[models.Company] { return &snap.Companies },
		decorate: func(snap *Snapshot, items []models.Company, now time.Time) {
			for i := range items {
				score := models.RelationshipStrength(items[i].ID, models.SubjectCompany, snap.Activities.items, now)
				items[i].RelationshipStrength = &score
			}
		},
		strip: func(c models.Company) models.Company {
			c.RelationshipStrength = nil
			return c
		},
		created: func(s *Store, c models.Company) {
			if s.enricher != nil && c.Website != "" {
				s.enricher.Schedule(c)
			}
		},
	}
}

func (s *Store) Deals() *Table[models.Deal] {
	return &Table[models.Deal]{store: s, kind: models.KindDeals,
		col: func(snap *Snapshot) *Collection[models.Deal] { return &snap.Deals }}
}

func (s *Store) Leads() *Table[models.Lead] {
	return &Table[models.Lead]{store: s, kind: models.KindLeads,
		col: func(snap *Snapshot) *Collection[models.Lead] { return &snap.Leads }}
}

func (s *Store) Activities() *Table[models.Activity] {
	return &Table[models.Activity]{store: s, kind: models.KindActivities,
		col: func(snap *Snapshot) *Collection[models.Activity] { return &snap.Activities }}
}

func (s *Store) Notifications() *Table[models.Notification] {
	return &Table[models.Notification]{store: s, kind: models.KindNotifications,
		col: func(snap *Snapshot) *Collection[models.Notification] { return &snap.Notifications }}
}

func (s *Store) Comments() *Table[models.Comment] {
	return &Table[models.Comment]{store: s, kind: models.KindComments,
		col: func(snap *Snapshot) *Collection[models.Comment] { return &snap.Comments }}
}

func (s *Store) Users() *Table[models.User] {
	return &Table[models.User]{store: s, kind: models.KindUsers,
		col: func(snap *Snapshot) *Collection[models.User] { return &snap.Users }}
}

func (s *Store) Tasks() *Table[models.Task] {
	return &Table[models.Task]{store: s, kind: models.KindTasks,
		col: func(snap *Snapshot) *Collection[models.Task] { return &snap.Tasks }}
}

func (s *Store) Goals() *Table[models.Goal] {
	return &Table[models.Goal]{store: s, kind: models.KindGoals,
		col: func(snap *Snapshot) *Collection[models.Goal] { return &snap.Goals }}
}

func (s *Store) ICPs() *Table[models.ICP] {
	return &Table[models.ICP]{store: s, kind: models.KindICPs,
		col: func(snap *Snapshot) *Collection[models.ICP] { return &snap.ICPs }}
}

func (s *Store) Articles() *Table[models.Article] {
	return &Table[models.Article]{store: s, kind: models.KindArticles,
		col: func(snap *Snapshot) *Collection[models.Article] { return &snap.Articles }}
}
