package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"scam-alert-service/models"

	"github.com/google/uuid"
)

// SaveReport inserts a new scam report and returns the stored row
func (d *Database) SaveReport(ctx context.Context, userID string, req *models.SubmitReportRequest) (*models.ScamReport, error) {
	report := &models.ScamReport{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        req.Type,
		Category:    req.Category,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		IsPublic:    true,
		Status:      "PENDING",
		CreatedAt:   time.Now().UTC(),
	}
	if req.IsPublic != nil {
		report.IsPublic = *req.IsPublic
	}

	query := `
		INSERT INTO scam_reports
			(id, user_id, type, category, description, latitude, longitude, is_public, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := d.db.ExecContext(ctx, query,
		report.ID, report.UserID, report.Type, report.Category, report.Description,
		report.Latitude, report.Longitude, report.IsPublic, report.Status, report.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	return report, nil
}

// GetUserReports returns all reports submitted by a user, newest first
func (d *Database) GetUserReports(ctx context.Context, userID string) ([]models.ScamReport, error) {
	query := `
		SELECT r.id, r.user_id, r.type, r.category, r.description,
			r.latitude, r.longitude, r.is_public, r.status, r.created_at,
			COUNT(v.user_id) AS verify_count
		FROM scam_reports r
		LEFT JOIN verifications v ON r.id = v.report_id
		WHERE r.user_id = ?
		GROUP BY r.id
		ORDER BY r.created_at DESC
	`

	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// GetReportByID returns a single report owned by the given user.
// Returns sql.ErrNoRows when no matching row exists.
func (d *Database) GetReportByID(ctx context.Context, id, userID string) (*models.ScamReport, error) {
	query := `
		SELECT r.id, r.user_id, r.type, r.category, r.description,
			r.latitude, r.longitude, r.is_public, r.status, r.created_at,
			COUNT(v.user_id) AS verify_count
		FROM scam_reports r
		LEFT JOIN verifications v ON r.id = v.report_id
		WHERE r.id = ? AND r.user_id = ?
		GROUP BY r.id
	`

	var report models.ScamReport
	err := d.db.QueryRowContext(ctx, query, id, userID).Scan(
		&report.ID, &report.UserID, &report.Type, &report.Category, &report.Description,
		&report.Latitude, &report.Longitude, &report.IsPublic, &report.Status,
		&report.CreatedAt, &report.VerifyCount)
	if err != nil {
		return nil, err
	}

	return &report, nil
}

// AddVerification records a community verification for a report.
// A user can verify a given report only once; the second attempt is a no-op
// reported as ErrAlreadyVerified.
func (d *Database) AddVerification(ctx context.Context, reportID, userID string) error {
	var exists bool
	err := d.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM scam_reports WHERE id = ?)", reportID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check report existence: %w", err)
	}
	if !exists {
		return sql.ErrNoRows
	}

	result, err := d.db.ExecContext(ctx,
		"INSERT IGNORE INTO verifications (report_id, user_id) VALUES (?, ?)",
		reportID, userID)
	if err != nil {
		return fmt.Errorf("failed to add verification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get verification result: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyVerified
	}

	return nil
}

// ErrAlreadyVerified is returned when a user verifies the same report twice
var ErrAlreadyVerified = fmt.Errorf("report already verified by this user")

// ListPublicReportsSince returns all public reports created at or after the
// given time, each with its verification count. This is the aggregation feed.
func (d *Database) ListPublicReportsSince(ctx context.Context, since time.Time) ([]models.ScamReport, error) {
	query := `
		SELECT r.id, r.user_id, r.type, r.category, r.description,
			r.latitude, r.longitude, r.is_public, r.status, r.created_at,
			COUNT(v.user_id) AS verify_count
		FROM scam_reports r
		LEFT JOIN verifications v ON r.id = v.report_id
		WHERE r.is_public = true AND r.created_at >= ?
		GROUP BY r.id
	`

	rows, err := d.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query public reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// GetReportsNear returns public reports inside a bounding box around the
// given point, newest first, capped at limit.
//
// The box approximates a circle: 1 degree latitude is ~111 km, 1 degree
// longitude is ~111*cos(lat) km. Box corners exceed the true radius; that
// imprecision is accepted for this feature.
func (d *Database) GetReportsNear(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]models.ScamReport, error) {
	latDelta := radiusKm / 111.0
	lngDelta := radiusKm / (111.0 * math.Cos(lat*math.Pi/180.0))

	minLat := lat - latDelta
	maxLat := lat + latDelta
	minLng := lng - lngDelta
	maxLng := lng + lngDelta

	query := `
		SELECT r.id, r.user_id, r.type, r.category, r.description,
			r.latitude, r.longitude, r.is_public, r.status, r.created_at,
			COUNT(v.user_id) AS verify_count
		FROM scam_reports r
		LEFT JOIN verifications v ON r.id = v.report_id
		WHERE r.is_public = true
			AND r.latitude BETWEEN ? AND ?
			AND r.longitude BETWEEN ? AND ?
		GROUP BY r.id
		ORDER BY r.created_at DESC
		LIMIT ?
	`

	rows, err := d.db.QueryContext(ctx, query, minLat, maxLat, minLng, maxLng, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

func scanReports(rows *sql.Rows) ([]models.ScamReport, error) {
	var reports []models.ScamReport
	for rows.Next() {
		var report models.ScamReport
		err := rows.Scan(
			&report.ID, &report.UserID, &report.Type, &report.Category, &report.Description,
			&report.Latitude, &report.Longitude, &report.IsPublic, &report.Status,
			&report.CreatedAt, &report.VerifyCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}
