// ABOUTME: Relationship strength scoring from the activity log
// ABOUTME: Pure, time-decayed 0-100 score for a contact or company
package models

import (
	"math"
	"time"
)

// Subject selects which activity field a strength score matches on.
type Subject string

const (
	SubjectContact Subject = "contact"
	SubjectCompany Subject = "company"
)

const (
	// BaselineStrength is the score of a known entity with no logged activity.
	BaselineStrength = 10

	recentWindow = 7 * 24 * time.Hour
	monthWindow  = 30 * 24 * time.Hour

	recentWeight = 15
	monthWeight  = 5
	olderWeight  = 1

	volumePerActivity = 2
	volumeCap         = 20
)

// RelationshipStrength scores entityID against the activity log as of now.
func RelationshipStrength(entityID string, subject Subject, activities []Activity, now time.Time) int {
	var total float64
	count := 0

	for _, a := range activities {
		if !subject.Matches(a, entityID) {
			continue
		}
		count++

		age := now.Sub(a.Date)
		switch {
		case age <= recentWindow:
			total += recentWeight
		case age <= monthWindow:
			total += monthWeight
		default:
			total += olderWeight
		}
	}

	if count == 0 {
		return BaselineStrength
	}

	total += math.Min(float64(count*volumePerActivity), volumeCap)
	return int(math.Round(math.Max(0, math.Min(total, 100))))
}

// Matches reports whether a is attributed to id under this subject.
func (s Subject) Matches(a Activity, id string) bool {
	switch s {
	case SubjectContact:
		return a.ContactID == id
	case SubjectCompany:
		return a.CompanyID == id
	default:
		return false
	}
}

// ParseSubject accepts "contact"/"company" and their plural kind names.
func ParseSubject(s string) (Subject, bool) {
	switch s {
	case string(SubjectContact), string(KindContacts):
		return SubjectContact, true
	case string(SubjectCompany), string(KindCompanies):
		return SubjectCompany, true
	default:
		return "", false
	}
}
