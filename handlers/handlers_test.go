package handlers

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scam-alert-service/config"
	"scam-alert-service/database"
	"scam-alert-service/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

var reportColumns = []string{
	"id", "user_id", "type", "category", "description",
	"latitude", "longitude", "is_public", "status", "created_at", "verify_count",
}

func testRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		LookbackHours:     72,
		MaxLookbackHours:  720,
		NearbyRadiusKm:    15,
		NearbyReportLimit: 50,
	}
	h := NewHandlers(database.NewDatabaseFromConn(db), cfg)

	router := gin.New()
	// Stand-in for the auth middleware
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Next()
	})

	api := router.Group("/api/v1")
	api.GET("/alerts/trending", h.GetTrending)
	api.GET("/alerts/preferences", h.GetPreferences)
	api.POST("/alerts/subscribe", h.Subscribe)
	api.POST("/reports", h.SubmitReport)
	api.POST("/reports/:id/verify", h.VerifyReport)

	return router, mock
}

func TestGetTrending(t *testing.T) {
	router, mock := testRouter(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(reportColumns)
	for i := 0; i < 11; i++ {
		rows.AddRow("r", "u", "Message", "Job Scam", "desc", nil, nil, true, "PENDING", now, 0)
	}
	rows.AddRow("r", "u", "Message", "Phishing Scam", "desc", nil, nil, true, "PENDING", now, 1)

	mock.ExpectQuery("SELECT (.+) FROM scam_reports r").WillReturnRows(rows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/trending", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp models.TrendingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Trending) != 2 {
		t.Fatalf("expected 2 trends, got %d", len(resp.Trending))
	}
	if resp.Trending[0].Category != "Job Scam" || resp.Trending[0].Severity != models.SeverityHigh {
		t.Errorf("unexpected top trend: %+v", resp.Trending[0])
	}
	if len(resp.NearYou) != 0 {
		t.Errorf("nearYou should be empty without coordinates, got %v", resp.NearYou)
	}
}

// sinceWithin matches a time argument close to now minus the given lookback.
type sinceWithin struct {
	hours int
	now   time.Time
}

func (m sinceWithin) Match(v driver.Value) bool {
	ts, ok := v.(time.Time)
	if !ok {
		return false
	}
	diff := ts.Sub(m.now.Add(-time.Duration(m.hours) * time.Hour))
	if diff < 0 {
		diff = -diff
	}
	return diff < time.Minute
}

func TestGetTrendingLookbackBounds(t *testing.T) {
	testCases := []struct {
		name      string
		query     string
		wantHours int
	}{
		{name: "oversized window clamps to max", query: "?hours=100000", wantHours: 720},
		{name: "zero falls back to default", query: "?hours=0", wantHours: 72},
		{name: "negative falls back to default", query: "?hours=-5", wantHours: 72},
		{name: "non-numeric falls back to default", query: "?hours=abc", wantHours: 72},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router, mock := testRouter(t)

			mock.ExpectQuery("SELECT (.+) FROM scam_reports r").
				WithArgs(sinceWithin{hours: tc.wantHours, now: time.Now().UTC()}).
				WillReturnRows(sqlmock.NewRows(reportColumns))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/trending"+tc.query, nil)
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", w.Code)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("lookback window not applied: %v", err)
			}
		})
	}
}

func TestGetTrendingWithLocation(t *testing.T) {
	router, mock := testRouter(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM scam_reports r").
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow("r1", "u", "Message", "Job Scam", "desc", nil, nil, true, "PENDING", now, 0))
	mock.ExpectQuery("SELECT (.+) FROM scam_reports r").
		WillReturnRows(sqlmock.NewRows(reportColumns).
			AddRow("r1", "u", "Message", "Job Scam", "desc", 3.148, 101.695, true, "PENDING", now, 0).
			AddRow("r2", "u", "Message", "Job Scam", "desc", 3.149, 101.696, true, "PENDING", now, 0))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/trending?lat=3.1478&lng=101.6940", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp models.TrendingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.NearYou) != 1 {
		t.Fatalf("expected 1 nearYou summary, got %d", len(resp.NearYou))
	}
	summary := resp.NearYou[0]
	if summary.ReportCount != 2 || summary.Radius != "15km" {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.LatestReport == nil || summary.LatestReport.ID != "r1" {
		t.Errorf("expected newest report first in summary, got %+v", summary.LatestReport)
	}
}

func TestGetPreferencesDefaults(t *testing.T) {
	router, mock := testRouter(t)

	mock.ExpectQuery("SELECT (.+) FROM alert_subscriptions").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts/preferences", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["is_active"] != false {
		t.Errorf("default is_active = %v, want false", resp["is_active"])
	}
	if resp["radius_km"] != float64(15) {
		t.Errorf("default radius = %v, want 15", resp["radius_km"])
	}
}

func TestSubmitReportValidation(t *testing.T) {
	router, _ := testRouter(t)

	// Latitude without longitude is rejected before touching the store
	body := `{"type":"Message","category":"Job Scam","description":"d","latitude":3.14}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestVerifyReportNotFound(t *testing.T) {
	router, mock := testRouter(t)

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(0))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/missing/verify", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
