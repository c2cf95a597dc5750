package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"scam-alert-service/config"
	"scam-alert-service/database"
	"scam-alert-service/models"
	"scam-alert-service/trends"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db  *database.Database
	cfg *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *database.Database, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	status := "healthy"
	dbStatus := "connected"
	code := http.StatusOK

	if err := h.db.Ping(); err != nil {
		status = "unhealthy"
		dbStatus = "disconnected"
		code = http.StatusInternalServerError
	}

	c.JSON(code, gin.H{
		"status":   status,
		"service":  "scam-alert-service",
		"database": dbStatus,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

// GetTrending handles GET /api/v1/alerts/trending.
// Returns the current trend alerts over the requested lookback window and,
// when the caller supplies coordinates, a compact "near you" summary within
// a fixed radius. Read path only; never dispatches.
func (h *Handlers) GetTrending(c *gin.Context) {
	hours := h.cfg.LookbackHours
	if hoursStr := c.Query("hours"); hoursStr != "" {
		if parsed, err := strconv.Atoi(hoursStr); err == nil && parsed > 0 {
			hours = parsed
		}
	}
	// Cap the window so a single request cannot force a full-table scan
	if hours > h.cfg.MaxLookbackHours {
		hours = h.cfg.MaxLookbackHours
	}

	now := time.Now().UTC()
	since := now.Add(-time.Duration(hours) * time.Hour)

	reports, err := h.db.ListPublicReportsSince(c.Request.Context(), since)
	if err != nil {
		log.Errorf("Failed to load reports for trending query: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to compute trends"})
		return
	}

	trending := trends.Compute(reports, hours, now)

	nearYou := []models.NearYouSummary{}
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr == nil && lngErr == nil {
		local, err := h.db.GetReportsNear(c.Request.Context(),
			lat, lng, h.cfg.NearbyRadiusKm, h.cfg.NearbyReportLimit)
		if err != nil {
			log.Errorf("Failed to load nearby reports at (%.6f, %.6f): %v", lat, lng, err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load nearby reports"})
			return
		}

		if len(local) > 0 {
			nearYou = append(nearYou, models.NearYouSummary{
				ReportCount: len(local),
				Radius:      fmt.Sprintf("%.0fkm", h.cfg.NearbyRadiusKm),
				Message: fmt.Sprintf("%d reports logged near your area recently. Stay alert.",
					len(local)),
				LatestReport: &local[0],
			})
		}
	}

	c.JSON(http.StatusOK, models.TrendingResponse{
		Trending: trending,
		NearYou:  nearYou,
	})
}

// Subscribe handles POST /api/v1/alerts/subscribe.
// Creates or partially updates the caller's alert subscription.
func (h *Handlers) Subscribe(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	sub, err := h.db.UpsertSubscription(c.Request.Context(), userID, &req)
	if err != nil {
		log.Errorf("Failed to upsert subscription for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, sub)
}

// GetPreferences handles GET /api/v1/alerts/preferences.
// Returns defaults when the caller has never subscribed.
func (h *Handlers) GetPreferences(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	sub, err := h.db.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("Failed to load subscription for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load preferences"})
		return
	}

	if sub == nil {
		c.JSON(http.StatusOK, gin.H{
			"categories": []string{},
			"is_active":  false,
			"radius_km":  15,
		})
		return
	}

	c.JSON(http.StatusOK, sub)
}

// SubmitReport handles POST /api/v1/reports
func (h *Handlers) SubmitReport(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req models.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if (req.Latitude == nil) != (req.Longitude == nil) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "latitude and longitude must be provided together"})
		return
	}

	report, err := h.db.SaveReport(c.Request.Context(), userID, &req)
	if err != nil {
		log.Errorf("Failed to save report for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save report"})
		return
	}

	c.JSON(http.StatusCreated, report)
}

// GetMyReports handles GET /api/v1/reports
func (h *Handlers) GetMyReports(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	reports, err := h.db.GetUserReports(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("Failed to load reports for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load reports"})
		return
	}

	if reports == nil {
		reports = []models.ScamReport{}
	}
	c.JSON(http.StatusOK, reports)
}

// GetReportDetails handles GET /api/v1/reports/:id, scoped to the owner
func (h *Handlers) GetReportDetails(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	report, err := h.db.GetReportByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "report not found"})
			return
		}
		log.Errorf("Failed to load report %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// VerifyReport handles POST /api/v1/reports/:id/verify
func (h *Handlers) VerifyReport(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	reportID := c.Param("id")
	err := h.db.AddVerification(c.Request.Context(), reportID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "report not found"})
			return
		}
		if errors.Is(err, database.ErrAlreadyVerified) {
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
			return
		}
		log.Errorf("Failed to verify report %s by user %s: %v", reportID, userID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to verify report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report_id": reportID, "verified": true})
}
