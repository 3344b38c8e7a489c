// ABOUTME: Store-level relationship strength lookup
// ABOUTME: Scores one contact or company against the current activity log
package db

import (
	"context"

	"github.com/harperreed/crmd/models"
)

// Strength is a scored contact or company.
type Strength struct {
	Subject    models.Subject `json:"subject"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Score      int            `json:"score"`
	Activities int            `json:"activities"`
}

// RelationshipStrength scores the named contact or company as of the store clock.
func (s *Store) RelationshipStrength(ctx context.Context, subject models.Subject, id string) (Strength, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return Strength{}, err
	}

	result := Strength{Subject: subject, ID: id}
	switch subject {
	case models.SubjectContact:
		c, ok := s.state.Contacts.Find(id)
		if !ok {
			return Strength{}, &NotFoundError{Kind: models.KindContacts, ID: id}
		}
		result.Name = c.Name
	case models.SubjectCompany:
		c, ok := s.state.Companies.Find(id)
		if !ok {
			return Strength{}, &NotFoundError{Kind: models.KindCompanies, ID: id}
		}
		result.Name = c.Name
	default:
		return Strength{}, malformed("unknown strength subject %q", subject)
	}

	activities := s.state.Activities.items
	for _, a := range activities {
		if subject.Matches(a, id) {
			result.Activities++
		}
	}
	result.Score = models.RelationshipStrength(id, subject, activities, s.now())
	return result, nil
}
