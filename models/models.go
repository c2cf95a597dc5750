package models

import "time"

// Severity levels for trend alerts. Only high severity trends trigger
// push delivery; medium and low are visible on the trending endpoint only.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// ScamReport is a community-submitted scam report
type ScamReport struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	IsPublic    bool      `json:"is_public"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	// VerifyCount is the number of community verifications for this report,
	// derived from the verifications table.
	VerifyCount int `json:"verify_count"`
}

// AlertSubscription is a user's stored alert preference. One row per user.
type AlertSubscription struct {
	UserID     string    `json:"user_id"`
	Categories []string  `json:"categories"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	RadiusKm   float64   `json:"radius_km"`
	FCMToken   *string   `json:"fcm_token,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CategoryTrendStat is the per-category aggregate computed for one
// trend window. Never persisted.
type CategoryTrendStat struct {
	Category      string
	Count         int
	VerifiedCount int
	Latest        time.Time
}

// TrendAlert is a category surge signal derived from recent public reports.
// It is a transient projection recomputed on every pass; the ID is
// deterministic for a given category and window start so clients can
// de-duplicate, but no TrendAlert is ever stored.
type TrendAlert struct {
	ID             string    `json:"id"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	ReportCount    int       `json:"reportCount"`
	VerifiedCount  int       `json:"verifiedCount"`
	Timeframe      string    `json:"timeframe"`
	Severity       string    `json:"severity"`
	LatestReportAt time.Time `json:"latestReportAt"`
}

// SubmitReportRequest is the payload for POST /reports
type SubmitReportRequest struct {
	Type        string   `json:"type" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	IsPublic    *bool    `json:"is_public"`
}

// SubscribeRequest is the payload for POST /alerts/subscribe. Nil fields
// keep the existing value on update.
type SubscribeRequest struct {
	Categories *[]string `json:"categories"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	RadiusKm   *float64  `json:"radius_km"`
	FCMToken   *string   `json:"fcm_token"`
	IsActive   *bool     `json:"is_active"`
}

// NearYouSummary is the compact "near you" block on the trending response
type NearYouSummary struct {
	ReportCount  int         `json:"reportCount"`
	Radius       string      `json:"radius"`
	Message      string      `json:"message"`
	LatestReport *ScamReport `json:"latestReport,omitempty"`
}

// TrendingResponse is the response for GET /alerts/trending
type TrendingResponse struct {
	Trending []TrendAlert     `json:"trending"`
	NearYou  []NearYouSummary `json:"nearYou"`
}

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error string `json:"error"`
}
