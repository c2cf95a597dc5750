package trends

import (
	"strings"

	"scam-alert-service/models"
)

// Notification pairs a subscriber with the trend chosen for them in one
// dispatch cycle.
type Notification struct {
	Subscription models.AlertSubscription
	Trend        models.TrendAlert
}

// FilterHigh returns only the trends that qualify for push delivery
func FilterHigh(trending []models.TrendAlert) []models.TrendAlert {
	var high []models.TrendAlert
	for _, trend := range trending {
		if trend.Severity == models.SeverityHigh {
			high = append(high, trend)
		}
	}
	return high
}

// SelectNotifications decides which trend, if any, each subscriber is
// notified about. Trends must already be the high-severity subset in
// count-descending order; the first trend matching a subscriber's category
// filter wins, so every subscriber gets at most one notification per cycle.
// An empty filter set matches everything.
func SelectNotifications(trending []models.TrendAlert, subs []models.AlertSubscription) []Notification {
	var selected []Notification
	for _, sub := range subs {
		if !sub.IsActive || sub.FCMToken == nil || *sub.FCMToken == "" {
			continue
		}

		for _, trend := range trending {
			if matchesFilter(sub.Categories, trend.Category) {
				selected = append(selected, Notification{Subscription: sub, Trend: trend})
				break
			}
		}
	}
	return selected
}

// matchesFilter reports whether any filter entry is a case-insensitive
// substring of the trend category. No filter entries means match-all.
func matchesFilter(filters []string, category string) bool {
	if len(filters) == 0 {
		return true
	}

	lowerCategory := strings.ToLower(category)
	for _, filter := range filters {
		if strings.Contains(lowerCategory, strings.ToLower(filter)) {
			return true
		}
	}
	return false
}
