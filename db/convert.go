// ABOUTME: Lead conversion workflow
// ABOUTME: Turns one lead into a company, contact and deal in a single persisted step
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/crmd/models"
)

const (
	convertedDealValue = 10000
	convertedDealTerm  = 30 * 24 * time.Hour
)

// Conversion is the company, contact and deal produced from a lead.
type Conversion struct {
	Company models.Company `json:"company"`
	Contact models.Contact `json:"contact"`
	Deal    models.Deal    `json:"deal"`
	// CompanyCreated is false when an existing company was reused.
	CompanyCreated bool `json:"companyCreated"`
}

// ConvertLead removes the lead and creates its contact and deal, reusing a
// company whose name matches case-insensitively or synthesizing a new one.
// Enrichment is scheduled only for a new company and only after the save.
func (s *Store) ConvertLead(ctx context.Context, leadID string) (Conversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return Conversion{}, err
	}

	lead, ok := s.state.Leads.Find(leadID)
	if !ok {
		return Conversion{}, &NotFoundError{Kind: models.KindLeads, ID: leadID}
	}

	now := s.now()
	stamp := now.UnixMilli()
	next := s.state.Clone()

	var result Conversion
	company, found := findCompanyByName(next.Companies.items, lead.CompanyName)
	if !found {
		slug := companySlug(lead.CompanyName)
		company = models.Company{
			ID:        fmt.Sprintf("comp-%d", stamp),
			Name:      lead.CompanyName,
			Industry:  "Unknown",
			Employees: 1,
			Location:  lead.Location,
			Website:   "https://" + slug + ".com",
			LogoURL:   "https://logo.clearbit.com/" + slug + ".com",
		}
		next.Companies.Prepend(company)
		result.CompanyCreated = true
	}

	contact := models.Contact{
		ID:            fmt.Sprintf("contact-%d", stamp),
		Name:          lead.Name,
		Email:         lead.Email,
		Title:         lead.Title,
		CompanyID:     company.ID,
		LastContacted: now,
		AvatarURL:     avatarURL(lead.Name),
	}
	next.Contacts.Prepend(contact)

	var ownerID string
	if users := next.Users.items; len(users) > 0 {
		ownerID = users[0].ID
	}
	deal := models.Deal{
		ID:        fmt.Sprintf("deal-%d", stamp),
		Title:     lead.CompanyName + " - Initial Deal",
		Value:     convertedDealValue,
		Stage:     models.StageQualified,
		ContactID: contact.ID,
		CompanyID: company.ID,
		OwnerID:   ownerID,
		CloseDate: now.Add(convertedDealTerm),
	}
	next.Deals.Prepend(deal)

	next.Leads.Remove(leadID)

	if err := s.commit(ctx, Change{Kind: models.KindLeads, Verb: VerbConvert, ID: leadID}, next); err != nil {
		return Conversion{}, err
	}

	if result.CompanyCreated && s.enricher != nil {
		s.enricher.Schedule(company)
	}

	result.Company = company
	result.Contact = contact
	result.Deal = deal
	return result, nil
}

func findCompanyByName(companies []models.Company, name string) (models.Company, bool) {
	for _, c := range companies {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return models.Company{}, false
}

// companySlug lowercases the name and drops spaces: "Acme Corp" -> "acmecorp".
func companySlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "")
}
