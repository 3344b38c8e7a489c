// ABOUTME: Tests for the store-level strength lookup
// ABOUTME: Uses the fixed test clock so scores are exact
package db

import (
	"context"
	"testing"

	"github.com/harperreed/crmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRelationshipStrength(t *testing.T) {
	ctx := context.Background()
	snap := fixtureSnapshot()
	snap.Activities = NewCollection(
		models.Activity{ID: "a1", ContactID: "contact-1", CompanyID: "comp-1", Date: testNow.Add(-2 * day)},
		models.Activity{ID: "a2", ContactID: "contact-1", CompanyID: "comp-1", Date: testNow.Add(-40 * day)},
	)
	store, _ := storeWith(t, snap, Options{})

	got, err := store.RelationshipStrength(ctx, models.SubjectContact, "contact-1")
	require.NoError(t, err)
	assert.Equal(t, Strength{Subject: models.SubjectContact, ID: "contact-1", Name: "Ada Lovelace", Score: 20, Activities: 2}, got)

	got, err = store.RelationshipStrength(ctx, models.SubjectContact, "contact-2")
	require.NoError(t, err)
	assert.Equal(t, models.BaselineStrength, got.Score)
	assert.Zero(t, got.Activities)

	got, err = store.RelationshipStrength(ctx, models.SubjectCompany, "comp-1")
	require.NoError(t, err)
	assert.Equal(t, "ACME", got.Name)
	assert.Equal(t, 20, got.Score)

	_, err = store.RelationshipStrength(ctx, models.SubjectCompany, "comp-404")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.RelationshipStrength(ctx, models.Subject("deal"), "deal-1")
	assert.ErrorIs(t, err, ErrMalformedInput)
}
