// ABOUTME: Tests for the demo dataset
// ABOUTME: Checks counts, determinism and referential consistency of the seed
package db

import (
	"testing"

	"github.com/harperreed/crmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCounts(t *testing.T) {
	snap := Seed(testNow)

	want := map[models.Kind]int{
		models.KindCompanies:     15,
		models.KindContacts:      50,
		models.KindDeals:         30,
		models.KindActivities:    100,
		models.KindLeads:         10,
		models.KindICPs:          2,
		models.KindArticles:      3,
		models.KindUsers:         4,
		models.KindTasks:         6,
		models.KindGoals:         3,
		models.KindNotifications: 0,
		models.KindComments:      0,
	}
	for kind, n := range want {
		assert.Equal(t, n, snap.Len(kind), kind)
	}
	assert.True(t, snap.Notifications.present())
	assert.True(t, snap.Comments.present())
}

func TestSeedIsDeterministic(t *testing.T) {
	a, err := EncodeSnapshot(Seed(testNow))
	require.NoError(t, err)
	b, err := EncodeSnapshot(Seed(testNow))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSeedReferencesResolve(t *testing.T) {
	snap := Seed(testNow)

	companies := map[string]bool{}
	for _, c := range snap.Companies.All() {
		companies[c.ID] = true
	}
	contacts := map[string]bool{}
	for _, c := range snap.Contacts.All() {
		contacts[c.ID] = true
		assert.True(t, companies[c.CompanyID], c.ID)
		assert.False(t, c.LastContacted.After(testNow), c.ID)
	}
	for _, c := range snap.Contacts.All() {
		if c.ReferredByID != "" {
			assert.True(t, contacts[c.ReferredByID], c.ID)
		}
	}
	deals := map[string]bool{}
	for _, d := range snap.Deals.All() {
		deals[d.ID] = true
		assert.True(t, contacts[d.ContactID], d.ID)
		assert.True(t, companies[d.CompanyID], d.ID)
	}
	for _, a := range snap.Activities.All() {
		if a.DealID != "" {
			assert.True(t, deals[a.DealID], a.ID)
		}
		assert.False(t, a.Date.After(testNow), a.ID)
	}
}

func TestSeedLeadMatchesExistingCompany(t *testing.T) {
	snap := Seed(testNow)
	var matched int
	for _, lead := range snap.Leads.All() {
		if _, ok := findCompanyByName(snap.Companies.All(), lead.CompanyName); ok {
			matched++
		}
	}
	assert.Equal(t, 1, matched)
}

func TestSeedGoalsSpanCurrentQuarter(t *testing.T) {
	for _, g := range Seed(testNow).Goals.All() {
		assert.False(t, testNow.Before(g.StartDate), g.ID)
		assert.False(t, testNow.After(g.EndDate), g.ID)
	}
}
