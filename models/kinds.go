// ABOUTME: Closed set of entity kinds and the verbs each kind accepts
// ABOUTME: Also names the summary fields each kind shows in listings
package models

import (
	"errors"
	"fmt"
)

// Kind names one collection in the workspace.
type Kind string

const (
	KindContacts      Kind = "contacts"
	KindCompanies     Kind = "companies"
	KindDeals         Kind = "deals"
	KindLeads         Kind = "leads"
	KindActivities    Kind = "activities"
	KindNotifications Kind = "notifications"
	KindComments      Kind = "comments"
	KindUsers         Kind = "users"
	KindTasks         Kind = "tasks"
	KindGoals         Kind = "goals"
	KindICPs          Kind = "icps"
	KindArticles      Kind = "articles"
)

// Kinds lists every entity kind in snapshot order.
var Kinds = []Kind{
	KindContacts,
	KindCompanies,
	KindDeals,
	KindLeads,
	KindActivities,
	KindNotifications,
	KindComments,
	KindUsers,
	KindTasks,
	KindGoals,
	KindICPs,
	KindArticles,
}

// Verb is a generic CRUD operation.
type Verb string

const (
	VerbList   Verb = "list"
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// ErrUnknownKind is returned by ParseKind for names outside the closed set.
var ErrUnknownKind = errors.New("unknown entity kind")

// ParseKind validates an entity name from a URL or tool call.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Allows reports whether the generic CRUD surface accepts v for k.
// Notifications are only listed directly; they change through the
// generate and mark-read actions.
func (k Kind) Allows(v Verb) bool {
	switch v {
	case VerbList:
		return true
	case VerbCreate, VerbUpdate, VerbDelete:
		return k != KindNotifications
	default:
		return false
	}
}

// Derived reports whether list results for k carry a computed relationshipStrength.
func (k Kind) Derived() bool {
	return k == KindContacts || k == KindCompanies
}

// SummaryFields names the JSON fields shown, after the id, when records of k are listed.
func (k Kind) SummaryFields() []string {
	switch k {
	case KindContacts:
		return []string{"name", "email", "title", "relationshipStrength"}
	case KindCompanies:
		return []string{"name", "industry", "location", "relationshipStrength"}
	case KindDeals:
		return []string{"title", "stage", "value", "ownerId"}
	case KindLeads:
		return []string{"name", "companyName", "status", "leadScore"}
	case KindActivities:
		return []string{"type", "subject", "date"}
	case KindNotifications:
		return []string{"type", "message", "isRead"}
	case KindComments:
		return []string{"userName", "content", "createdAt"}
	case KindUsers:
		return []string{"name", "email", "title"}
	case KindTasks:
		return []string{"title", "status", "dueDate"}
	case KindGoals:
		return []string{"title", "currentValue", "targetValue"}
	case KindICPs:
		return []string{"name", "location"}
	case KindArticles:
		return []string{"title", "category"}
	default:
		return nil
	}
}
