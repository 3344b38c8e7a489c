// ABOUTME: Deterministic demo dataset used to seed an empty workspace
// ABOUTME: Fixed PRNG seed with every date relative to the supplied clock
package db

import (
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/harperreed/crmd/models"
)

const seedSource = 20240601

const day = 24 * time.Hour

var (
	seedCompanyNames = []string{
		"Acme Robotics", "Globex", "Initech", "Umbrella Health", "Stark Logistics",
		"Wayne Analytics", "Hooli", "Pied Piper", "Soylent Foods", "Vandelay Industries",
		"Wonka Labs", "Tyrell Systems", "Cyberdyne", "Aperture Science", "Massive Dynamic",
	}
	seedIndustries = []string{"Technology", "Healthcare", "Logistics", "Finance", "Manufacturing", "Retail"}
	seedLocations  = []string{"San Francisco, CA", "New York, NY", "Austin, TX", "Chicago, IL", "Seattle, WA", "Boston, MA"}
	seedFirstNames = []string{
		"Ada", "Grace", "Alan", "Linus", "Margaret", "Dennis", "Barbara", "Ken", "Radia", "Tim",
	}
	seedLastNames = []string{"Lovelace", "Hopper", "Turing", "Torvalds", "Hamilton"}
	seedTitles    = []string{"CEO", "CTO", "VP Sales", "Head of Operations", "Procurement Lead", "Engineering Manager"}
	seedProducts  = []string{"Platform License", "Pilot", "Expansion", "Support Renewal", "Analytics Add-on"}
	seedStages    = []string{
		models.StageLead, models.StageContacted, models.StageQualified, models.StageProposal,
		models.StageNegotiation, models.StageClosedWon, models.StageClosedLost,
	}
	seedActivityTypes = []string{models.ActivityCall, models.ActivityEmail, models.ActivityMeeting, models.ActivityNote}
	seedSubjects      = map[string][]string{
		models.ActivityCall:    {"Discovery call", "Pricing follow-up call", "Check-in call"},
		models.ActivityEmail:   {"Sent proposal", "Shared case study", "Intro email"},
		models.ActivityMeeting: {"On-site demo", "Quarterly review", "Kickoff meeting"},
		models.ActivityNote:    {"Budget approved for Q3", "Champion changed roles", "Evaluating competitors"},
	}
)

// Seed builds the demo workspace as of now.
func Seed(now time.Time) *Snapshot {
	rng := rand.New(rand.NewSource(seedSource))
	daysAgo := func(span int) time.Time {
		return now.Add(-time.Duration(rng.Intn(span)) * day).Add(-time.Duration(rng.Intn(24)) * time.Hour)
	}

	users := []models.User{
		{ID: "user-1", Name: "Jordan Reyes", Email: "jordan@momentum.example", Title: "Account Executive"},
		{ID: "user-2", Name: "Sam Patel", Email: "sam@momentum.example", Title: "Sales Manager"},
		{ID: "user-3", Name: "Alex Kim", Email: "alex@momentum.example", Title: "Account Executive"},
		{ID: "user-4", Name: "Riley Chen", Email: "riley@momentum.example", Title: "Sales Development Rep"},
	}
	for i := range users {
		users[i].AvatarURL = avatarURL(users[i].Name)
	}

	companies := make([]models.Company, len(seedCompanyNames))
	for i, name := range seedCompanyNames {
		slug := companySlug(name)
		companies[i] = models.Company{
			ID:        fmt.Sprintf("comp-%d", i+1),
			Name:      name,
			Industry:  seedIndustries[rng.Intn(len(seedIndustries))],
			Employees: 10 + rng.Intn(5000),
			Location:  seedLocations[rng.Intn(len(seedLocations))],
			Website:   "https://" + slug + ".com",
			LogoURL:   "https://logo.clearbit.com/" + slug + ".com",
		}
	}

	contacts := make([]models.Contact, 50)
	for i := range contacts {
		name := seedFirstNames[i%len(seedFirstNames)] + " " + seedLastNames[(i/len(seedFirstNames))%len(seedLastNames)]
		company := companies[i%len(companies)]
		contacts[i] = models.Contact{
			ID:            fmt.Sprintf("contact-%d", i+1),
			Name:          name,
			Email:         emailFor(name, company.Name),
			Title:         seedTitles[rng.Intn(len(seedTitles))],
			CompanyID:     company.ID,
			AvatarURL:     avatarURL(name),
			LastContacted: daysAgo(60),
		}
		if i > 0 && rng.Intn(5) == 0 {
			contacts[i].ReferredByID = contacts[rng.Intn(i)].ID
		}
	}

	deals := make([]models.Deal, 30)
	for i := range deals {
		contact := contacts[rng.Intn(len(contacts))]
		company, _ := findCompanyByID(companies, contact.CompanyID)
		deals[i] = models.Deal{
			ID:        fmt.Sprintf("deal-%d", i+1),
			Title:     company.Name + " - " + seedProducts[rng.Intn(len(seedProducts))],
			Value:     float64(5000 + 500*rng.Intn(500)),
			Stage:     seedStages[rng.Intn(len(seedStages))],
			ContactID: contact.ID,
			CompanyID: company.ID,
			OwnerID:   users[i%len(users)].ID,
			CloseDate: now.Add(time.Duration(rng.Intn(120)-30) * day),
		}
	}

	activities := make([]models.Activity, 100)
	for i := range activities {
		kind := seedActivityTypes[rng.Intn(len(seedActivityTypes))]
		subjects := seedSubjects[kind]
		a := models.Activity{
			ID:      fmt.Sprintf("activity-%d", i+1),
			Type:    kind,
			Subject: subjects[rng.Intn(len(subjects))],
			Date:    daysAgo(60),
			UserID:  users[rng.Intn(len(users))].ID,
		}
		if rng.Intn(2) == 0 {
			deal := deals[rng.Intn(len(deals))]
			a.DealID = deal.ID
			a.ContactID = deal.ContactID
			a.CompanyID = deal.CompanyID
		} else {
			contact := contacts[rng.Intn(len(contacts))]
			a.ContactID = contact.ID
			a.CompanyID = contact.CompanyID
		}
		activities[i] = a
	}

	leadCompanies := []string{"Nakatomi Trading", "Oscorp", "Gringotts", "Acme Robotics", "Blue Sun", "Monarch Solutions", "Dunder Mifflin", "Prestige Worldwide", "Bluth Company", "Sterling Cooper"}
	leadStatuses := []string{models.LeadStatusNew, models.LeadStatusContacted, models.LeadStatusQualified}
	leads := make([]models.Lead, len(leadCompanies))
	for i, companyName := range leadCompanies {
		name := seedFirstNames[(i+3)%len(seedFirstNames)] + " " + seedLastNames[(i+1)%len(seedLastNames)]
		leads[i] = models.Lead{
			ID:          fmt.Sprintf("lead-%d", i+1),
			Name:        name,
			Title:       seedTitles[rng.Intn(len(seedTitles))],
			CompanyName: companyName,
			Email:       emailFor(name, companyName),
			Location:    seedLocations[rng.Intn(len(seedLocations))],
			Status:      leadStatuses[rng.Intn(len(leadStatuses))],
			LeadScore:   40 + rng.Intn(60),
		}
	}

	icps := []models.ICP{
		{
			ID:          "icp-1",
			Name:        "Mid-market SaaS",
			Industries:  []string{"Technology", "Finance"},
			CompanySize: [2]int{50, 500},
			Location:    "United States",
			Keywords:    []string{"cloud", "analytics", "automation"},
		},
		{
			ID:          "icp-2",
			Name:        "Enterprise Healthcare",
			Industries:  []string{"Healthcare"},
			CompanySize: [2]int{1000, 10000},
			Location:    "North America",
			Keywords:    []string{"compliance", "patient data", "interoperability"},
		},
	}

	articles := []models.Article{
		{
			ID:       "article-1",
			Title:    "Running a Tight Discovery Call",
			Category: "Sales Skills",
			Summary:  "A checklist for uncovering pain, budget and timeline in the first conversation.",
			ImageURL: "https://images.unsplash.com/photo-1552664730-d307ca884978",
			Content:  "Open with context, ask about current process, quantify the cost of inaction, and agree on a next step before hanging up.",
		},
		{
			ID:       "article-2",
			Title:    "Keeping Deals Warm",
			Category: "Pipeline",
			Summary:  "Why a weekly touchpoint keeps deals from going stale.",
			ImageURL: "https://images.unsplash.com/photo-1521737604893-d14cc237f11d",
			Content:  "Deals without activity for more than a week close at a fraction of the rate of active ones. Schedule the next touch at the end of every call.",
		},
		{
			ID:       "article-3",
			Title:    "Asking for Referrals",
			Category: "Relationships",
			Summary:  "Turn closed-won customers into your best lead source.",
			ImageURL: "https://images.unsplash.com/photo-1556761175-b413da4baf72",
			Content:  "Ask within two weeks of go-live, be specific about the profile you want, and make the introduction easy to forward.",
		},
	}

	taskTitles := []string{"Send revised proposal", "Book demo with procurement", "Prepare QBR deck", "Follow up on security review", "Draft renewal terms", "Update forecast notes"}
	taskStatuses := []string{models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone}
	tasks := make([]models.Task, len(taskTitles))
	for i, title := range taskTitles {
		tasks[i] = models.Task{
			ID:      fmt.Sprintf("task-%d", i+1),
			Title:   title,
			DueDate: now.Add(time.Duration(rng.Intn(21)-7) * day),
			Status:  taskStatuses[i%len(taskStatuses)],
			OwnerID: users[i%len(users)].ID,
			DealID:  deals[rng.Intn(len(deals))].ID,
		}
	}

	quarterStart := time.Date(now.Year(), ((now.Month()-1)/3)*3+1, 1, 0, 0, 0, 0, now.Location())
	quarterEnd := quarterStart.AddDate(0, 3, 0).Add(-time.Second)
	goals := []models.Goal{
		{ID: "goal-1", UserID: "user-1", Title: "Quarterly revenue", Type: "revenue", TargetValue: 250000, CurrentValue: 120000, StartDate: quarterStart, EndDate: quarterEnd},
		{ID: "goal-2", UserID: "user-1", Title: "Deals closed", Type: "deals", TargetValue: 8, CurrentValue: 3, StartDate: quarterStart, EndDate: quarterEnd},
		{ID: "goal-3", UserID: "user-2", Title: "Team revenue", Type: "revenue", TargetValue: 1000000, CurrentValue: 410000, StartDate: quarterStart, EndDate: quarterEnd},
	}

	return &Snapshot{
		Contacts:      NewCollection(contacts...),
		Companies:     NewCollection(companies...),
		Deals:         NewCollection(deals...),
		Leads:         NewCollection(leads...),
		Activities:    NewCollection(activities...),
		Notifications: NewCollection[models.Notification](),
		Comments:      NewCollection[models.Comment](),
		Users:         NewCollection(users...),
		Tasks:         NewCollection(tasks...),
		Goals:         NewCollection(goals...),
		ICPs:          NewCollection(icps...),
		Articles:      NewCollection(articles...),
	}
}

func findCompanyByID(companies []models.Company, id string) (models.Company, bool) {
	for _, c := range companies {
		if c.ID == id {
			return c, true
		}
	}
	return models.Company{}, false
}

func avatarURL(name string) string {
	return "https://api.dicebear.com/8.x/avataaars/svg?seed=" + url.QueryEscape(name)
}

func emailFor(name, company string) string {
	first := strings.ToLower(strings.Fields(name)[0])
	return first + "@" + companySlug(company) + ".com"
}
