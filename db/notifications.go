// ABOUTME: Notification generator and bulk mark-as-read
// ABOUTME: Three rules over deals and activities, deduplicated against unread notifications
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/crmd/models"
)

const (
	staleDealAfter      = 7 * 24 * time.Hour
	highValueThreshold  = 100000
	momentumClosedCount = 3
)

// GenerateNotifications evaluates the stale-deal, high-value-proposal and
// momentum rules. The new batch is prepended and persisted once; when no
// rule fires nothing is written and an empty slice is returned.
func (s *Store) GenerateNotifications(ctx context.Context) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	unread := unreadIndex(s.state.Notifications.items)

	var batch []models.Notification
	emit := func(n models.Notification) {
		n.ID = s.newID("notif")
		n.CreatedAt = now
		batch = append(batch, n)
	}

	// Stale deal reminders, one per open deal.
	lastActivity := lastActivityByDeal(s.state.Activities.items)
	cutoff := now.Add(-staleDealAfter)
	for _, deal := range s.state.Deals.items {
		if !deal.IsOpen() {
			continue
		}
		if last, ok := lastActivity[deal.ID]; ok && !last.Before(cutoff) {
			continue
		}
		if unread.reminders[deal.ID] {
			continue
		}
		unread.reminders[deal.ID] = true
		emit(models.Notification{
			Type:      models.NotificationReminder,
			Message:   fmt.Sprintf("Deal %q has had no activity in over 7 days. Time to follow up.", deal.Title),
			DealID:    deal.ID,
			ContactID: deal.ContactID,
		})
	}

	// One global suggestion while high-value proposals are waiting.
	highValue := 0
	closedWon := 0
	for _, deal := range s.state.Deals.items {
		if deal.Value > highValueThreshold && deal.Stage == models.StageProposal {
			highValue++
		}
		if deal.Stage == models.StageClosedWon {
			closedWon++
		}
	}
	if highValue > 0 && !unread.suggestion {
		emit(models.Notification{
			Type:    models.NotificationSuggestion,
			Message: fmt.Sprintf("%d high-value deal(s) over $100,000 are sitting in Proposal. Prioritize them to keep them moving.", highValue),
		})
	}

	// Momentum advice once more than three deals are won.
	if closedWon > momentumClosedCount && !unread.advice {
		emit(models.Notification{
			Type:    models.NotificationAIAdvice,
			Message: fmt.Sprintf("Great momentum: %d deals closed-won. Ask these customers for referrals while the relationship is warm.", closedWon),
		})
	}

	if len(batch) == 0 {
		return []models.Notification{}, nil
	}

	next := s.state.Clone()
	next.Notifications.Prepend(batch...)
	if err := s.commit(ctx, Change{Kind: models.KindNotifications, Verb: VerbGenerate}, next); err != nil {
		return nil, err
	}
	return batch, nil
}

// MarkAllNotificationsRead sets isRead on every notification and returns the full list.
func (s *Store) MarkAllNotificationsRead(ctx context.Context) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	next := s.state.Clone()
	next.Notifications.Apply(func(n models.Notification) models.Notification {
		n.IsRead = true
		return n
	})
	if err := s.commit(ctx, Change{Kind: models.KindNotifications, Verb: VerbMarkRead}, next); err != nil {
		return nil, err
	}
	return next.Notifications.All(), nil
}

type unreadKeys struct {
	reminders  map[string]bool
	suggestion bool
	advice     bool
}

func unreadIndex(notifications []models.Notification) unreadKeys {
	keys := unreadKeys{reminders: map[string]bool{}}
	for _, n := range notifications {
		if n.IsRead {
			continue
		}
		switch n.Type {
		case models.NotificationReminder:
			keys.reminders[n.DealID] = true
		case models.NotificationSuggestion:
			keys.suggestion = true
		case models.NotificationAIAdvice:
			keys.advice = true
		}
	}
	return keys
}

func lastActivityByDeal(activities []models.Activity) map[string]time.Time {
	last := make(map[string]time.Time)
	for _, a := range activities {
		if a.DealID == "" {
			continue
		}
		if prev, ok := last[a.DealID]; !ok || a.Date.After(prev) {
			last[a.DealID] = a.Date
		}
	}
	return last
}
