// ABOUTME: Whole-workspace snapshot persisted by every state backend
// ABOUTME: Handles cloning, JSON encoding and defaulting of collections missing from older snapshots
package db

import (
	"encoding/json"
	"fmt"

	"github.com/harperreed/crmd/models"
)

// StateKey names the workspace document in key/value backends.
const StateKey = "crm_data"

// Snapshot is the full state of one workspace.
type Snapshot struct {
	Contacts      Collection[models.Contact]      `json:"contacts"`
	Companies     Collection[models.Company]      `json:"companies"`
	Deals         Collection[models.Deal]         `json:"deals"`
	Leads         Collection[models.Lead]         `json:"leads"`
	Activities    Collection[models.Activity]     `json:"activities"`
	Notifications Collection[models.Notification] `json:"notifications"`
	Comments      Collection[models.Comment]      `json:"comments"`
	Users         Collection[models.User]         `json:"users"`
	Tasks         Collection[models.Task]         `json:"tasks"`
	Goals         Collection[models.Goal]         `json:"goals"`
	ICPs          Collection[models.ICP]          `json:"icps"`
	Articles      Collection[models.Article]      `json:"articles"`
}

// Clone copies every collection so the copy can be mutated independently.
func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		Contacts:      s.Contacts.clone(),
		Companies:     s.Companies.clone(),
		Deals:         s.Deals.clone(),
		Leads:         s.Leads.clone(),
		Activities:    s.Activities.clone(),
		Notifications: s.Notifications.clone(),
		Comments:      s.Comments.clone(),
		Users:         s.Users.clone(),
		Tasks:         s.Tasks.clone(),
		Goals:         s.Goals.clone(),
		ICPs:          s.ICPs.clone(),
		Articles:      s.Articles.clone(),
	}
}

// Len returns the number of records stored for kind.
func (s *Snapshot) Len(kind models.Kind) int {
	switch kind {
	case models.KindContacts:
		return s.Contacts.Len()
	case models.KindCompanies:
		return s.Companies.Len()
	case models.KindDeals:
		return s.Deals.Len()
	case models.KindLeads:
		return s.Leads.Len()
	case models.KindActivities:
		return s.Activities.Len()
	case models.KindNotifications:
		return s.Notifications.Len()
	case models.KindComments:
		return s.Comments.Len()
	case models.KindUsers:
		return s.Users.Len()
	case models.KindTasks:
		return s.Tasks.Len()
	case models.KindGoals:
		return s.Goals.Len()
	case models.KindICPs:
		return s.ICPs.Len()
	case models.KindArticles:
		return s.Articles.Len()
	default:
		return 0
	}
}

// fillMissing defaults collections absent from an older snapshot. Users,
// tasks and goals come from the demo seed, everything else starts empty.
func (s *Snapshot) fillMissing(seed *Snapshot) {
	fillFrom(&s.Users, seed.Users)
	fillFrom(&s.Tasks, seed.Tasks)
	fillFrom(&s.Goals, seed.Goals)

	fillEmpty(&s.Contacts)
	fillEmpty(&s.Companies)
	fillEmpty(&s.Deals)
	fillEmpty(&s.Leads)
	fillEmpty(&s.Activities)
	fillEmpty(&s.Notifications)
	fillEmpty(&s.Comments)
	fillEmpty(&s.ICPs)
	fillEmpty(&s.Articles)
}

func fillFrom[T models.Record](c *Collection[T], seed Collection[T]) {
	if !c.present() {
		*c = seed.clone()
		fillEmpty(c)
	}
}

func fillEmpty[T models.Record](c *Collection[T]) {
	if !c.present() {
		*c = NewCollection[T]()
	}
}

// EncodeSnapshot serializes a snapshot for a backend.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a stored snapshot document.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}
