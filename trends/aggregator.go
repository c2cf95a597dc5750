package trends

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"scam-alert-service/models"
)

// Compute aggregates recent public reports into category trend alerts.
// Reports are expected to already be limited to the lookback window; the
// window bounds are only used for the alert id and timeframe label.
//
// Ordering is report count descending, category ascending on ties, so the
// output is deterministic for a given input.
func Compute(reports []models.ScamReport, lookbackHours int, now time.Time) []models.TrendAlert {
	windowStart := now.Add(-time.Duration(lookbackHours) * time.Hour)

	stats := map[string]*models.CategoryTrendStat{}
	for _, report := range reports {
		stat, ok := stats[report.Category]
		if !ok {
			stat = &models.CategoryTrendStat{
				Category: report.Category,
				Latest:   report.CreatedAt,
			}
			stats[report.Category] = stat
		}
		stat.Count++
		if report.VerifyCount > 0 {
			stat.VerifiedCount++
		}
		if report.CreatedAt.After(stat.Latest) {
			stat.Latest = report.CreatedAt
		}
	}

	trending := make([]models.TrendAlert, 0, len(stats))
	for _, stat := range stats {
		title, description := describeCategory(stat.Category)

		trending = append(trending, models.TrendAlert{
			ID:             alertID(stat.Category, windowStart),
			Category:       stat.Category,
			Title:          title,
			Description:    description,
			ReportCount:    stat.Count,
			VerifiedCount:  stat.VerifiedCount,
			Timeframe:      fmt.Sprintf("%dh", lookbackHours),
			Severity:       classifySeverity(stat.Count, stat.VerifiedCount),
			LatestReportAt: stat.Latest,
		})
	}

	sort.Slice(trending, func(i, j int) bool {
		if trending[i].ReportCount != trending[j].ReportCount {
			return trending[i].ReportCount > trending[j].ReportCount
		}
		return trending[i].Category < trending[j].Category
	})

	return trending
}

// classifySeverity maps aggregate counts to a severity level. The high
// checks take precedence over the medium ones.
func classifySeverity(count, verifiedCount int) string {
	if count >= 10 || verifiedCount >= 3 {
		return models.SeverityHigh
	}
	if count >= 3 || verifiedCount >= 1 {
		return models.SeverityMedium
	}
	return models.SeverityLow
}

// alertID builds a deterministic id from the category and window start,
// stable across recomputations of the same window.
func alertID(category string, windowStart time.Time) string {
	slug := strings.Join(strings.Fields(strings.ToLower(category)), "-")
	return fmt.Sprintf("trend-%s-%d", slug, windowStart.Unix())
}

// describeCategory generates the alert title and description. A few known
// scam families get tailored copy; everything else gets the generic surge
// template.
func describeCategory(category string) (string, string) {
	lower := strings.ToLower(category)

	switch {
	case strings.Contains(lower, "job"):
		return "Fake Job Offers Trending",
			`Watch out for "easy money" part-time job offers. Never pay an upfront deposit.`
	case strings.Contains(lower, "investment"):
		return "Investment Scam Warning",
			"High-yield investment groups are highly active right now. Be skeptical of guaranteed returns."
	case strings.Contains(lower, "phishing"):
		return "Phishing Links Surging",
			"Be careful clicking links via SMS or WhatsApp, especially messages claiming your account is blocked."
	default:
		return fmt.Sprintf("%s Surge Detected", category),
			fmt.Sprintf("We've detected an unusually high number of %ss recently.", lower)
	}
}
