// ABOUTME: Data models for CRM entities stored in the workspace snapshot
// ABOUTME: Defines Lead, Company, Contact, Deal, Activity, Notification and the generic-CRUD records
package models

import (
	"time"
)

// Record is implemented by every entity stored in a collection.
type Record interface {
	RecordID() string
}

// Deal stages
const (
	StageLead        = "Lead"
	StageContacted   = "Contacted"
	StageQualified   = "Qualified"
	StageProposal    = "Proposal"
	StageNegotiation = "Negotiation"
	StageClosedWon   = "Closed-Won"
	StageClosedLost  = "Closed-Lost"
)

// Stages lists deal stages in pipeline order.
var Stages = []string{
	StageLead,
	StageContacted,
	StageQualified,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// Lead statuses
const (
	LeadStatusNew       = "New"
	LeadStatusContacted = "Contacted"
	LeadStatusQualified = "Qualified"
)

// Activity types
const (
	ActivityCall    = "Call"
	ActivityEmail   = "Email"
	ActivityMeeting = "Meeting"
	ActivityNote    = "Note"
)

// Notification types
const (
	NotificationReminder   = "reminder"
	NotificationSuggestion = "suggestion"
	NotificationAIAdvice   = "ai_advice"
)

// Task statuses
const (
	TaskStatusTodo       = "To Do"
	TaskStatusInProgress = "In Progress"
	TaskStatusDone       = "Done"
)

type Lead struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
	Location    string `json:"location"`
	Status      string `json:"status"`
	LeadScore   int    `json:"leadScore"`
}

type Company struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Industry             string `json:"industry"`
	Employees            int    `json:"employees"`
	Location             string `json:"location"`
	Website              string `json:"website,omitempty"`
	LogoURL              string `json:"logoUrl,omitempty"`
	RelationshipStrength *int   `json:"relationshipStrength,omitempty"`
}

type Contact struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Title                string    `json:"title"`
	CompanyID            string    `json:"companyId"`
	AvatarURL            string    `json:"avatarUrl,omitempty"`
	LastContacted        time.Time `json:"lastContacted"`
	RelationshipStrength *int      `json:"relationshipStrength,omitempty"`
	ReferredByID         string    `json:"referredById,omitempty"`
}

type Deal struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Value         float64    `json:"value"`
	Stage         string     `json:"stage"`
	ContactID     string     `json:"contactId"`
	CompanyID     string     `json:"companyId"`
	OwnerID       string     `json:"ownerId"`
	CloseDate     time.Time  `json:"closeDate"`
	LastActivity  *time.Time `json:"lastActivity,omitempty"`
	MomentumScore *int       `json:"momentumScore,omitempty"`
}

type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Date      time.Time `json:"date"`
	ContactID string    `json:"contactId"`
	DealID    string    `json:"dealId,omitempty"`
	UserID    string    `json:"userId"`
	CompanyID string    `json:"companyId"`
}

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
	DealID    string    `json:"dealId,omitempty"`
	ContactID string    `json:"contactId,omitempty"`
}

type Comment struct {
	ID         string    `json:"id"`
	DealID     string    `json:"dealId"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	UserAvatar string    `json:"userAvatar"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Title     string `json:"title"`
	AvatarURL string `json:"avatarUrl"`
}

type Task struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"dueDate"`
	Status  string    `json:"status"`
	OwnerID string    `json:"ownerId"`
	DealID  string    `json:"dealId,omitempty"`
}

type Goal struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	TargetValue  float64   `json:"targetValue"`
	CurrentValue float64   `json:"currentValue"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
}

// ICP is an ideal customer profile used when prospecting for leads.
type ICP struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Industries  []string `json:"industries"`
	CompanySize [2]int   `json:"companySize"`
	Location    string   `json:"location"`
	Keywords    []string `json:"keywords"`
}

type Article struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Summary  string `json:"summary"`
	ImageURL string `json:"imageUrl"`
	Content  string `json:"content"`
}

func (r Lead) RecordID() string         { return r.ID }
func (r Company) RecordID() string      { return r.ID }
func (r Contact) RecordID() string      { return r.ID }
func (r Deal) RecordID() string         { return r.ID }
func (r Activity) RecordID() string     { return r.ID }
func (r Notification) RecordID() string { return r.ID }
func (r Comment) RecordID() string      { return r.ID }
func (r User) RecordID() string         { return r.ID }
func (r Task) RecordID() string         { return r.ID }
func (r Goal) RecordID() string         { return r.ID }
func (r ICP) RecordID() string          { return r.ID }
func (r Article) RecordID() string      { return r.ID }

// IsOpen reports whether the deal is still in the pipeline.
func (d Deal) IsOpen() bool {
	return d.Stage != StageClosedWon && d.Stage != StageClosedLost
}

// ReferredBy looks up the contact that referred c. Cycles are allowed.
func (c Contact) ReferredBy(contacts []Contact) (Contact, bool) {
	if c.ReferredByID == "" {
		return Contact{}, false
	}
	for _, other := range contacts {
		if other.ID == c.ReferredByID {
			return other, true
		}
	}
	return Contact{}, false
}
