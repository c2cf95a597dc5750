package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"scam-alert-service/models"

	"github.com/apex/log"
)

// UpsertSubscription creates or updates the user's alert subscription.
// Nil fields in the request keep the existing stored values; on first
// creation they fall back to the defaults (all categories, 15 km, active).
func (d *Database) UpsertSubscription(ctx context.Context, userID string, req *models.SubscribeRequest) (*models.AlertSubscription, error) {
	sub, err := d.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		sub = &models.AlertSubscription{
			UserID:     userID,
			Categories: []string{},
			RadiusKm:   15,
			IsActive:   true,
		}
	}

	if req.Categories != nil {
		sub.Categories = *req.Categories
	}
	if req.Latitude != nil {
		sub.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		sub.Longitude = req.Longitude
	}
	if req.RadiusKm != nil {
		sub.RadiusKm = *req.RadiusKm
	}
	if req.FCMToken != nil {
		sub.FCMToken = req.FCMToken
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}

	categoriesJSON, err := json.Marshal(sub.Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal categories: %w", err)
	}

	query := `
		INSERT INTO alert_subscriptions
			(user_id, categories, latitude, longitude, radius_km, fcm_token, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			categories = VALUES(categories),
			latitude = VALUES(latitude),
			longitude = VALUES(longitude),
			radius_km = VALUES(radius_km),
			fcm_token = VALUES(fcm_token),
			is_active = VALUES(is_active)
	`

	_, err = d.db.ExecContext(ctx, query,
		sub.UserID, categoriesJSON, sub.Latitude, sub.Longitude,
		sub.RadiusKm, sub.FCMToken, sub.IsActive)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	// Re-read so the returned record carries the database timestamps.
	stored, err := d.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// GetSubscription returns the user's subscription, or nil when none exists
func (d *Database) GetSubscription(ctx context.Context, userID string) (*models.AlertSubscription, error) {
	query := `
		SELECT user_id, categories, latitude, longitude, radius_km, fcm_token, is_active,
			created_at, updated_at
		FROM alert_subscriptions
		WHERE user_id = ?
	`

	var sub models.AlertSubscription
	var rawCategories []byte
	err := d.db.QueryRowContext(ctx, query, userID).Scan(
		&sub.UserID, &rawCategories, &sub.Latitude, &sub.Longitude,
		&sub.RadiusKm, &sub.FCMToken, &sub.IsActive, &sub.CreatedAt, &sub.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}

	sub.Categories = parseCategories(sub.UserID, rawCategories)
	return &sub, nil
}

// ListActiveSubscriptionsWithToken returns every subscription eligible for
// push dispatch: active and carrying a device token.
func (d *Database) ListActiveSubscriptionsWithToken(ctx context.Context) ([]models.AlertSubscription, error) {
	query := `
		SELECT user_id, categories, latitude, longitude, radius_km, fcm_token, is_active,
			created_at, updated_at
		FROM alert_subscriptions
		WHERE is_active = true AND fcm_token IS NOT NULL
		ORDER BY user_id
	`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.AlertSubscription
	for rows.Next() {
		var sub models.AlertSubscription
		var rawCategories []byte
		err := rows.Scan(
			&sub.UserID, &rawCategories, &sub.Latitude, &sub.Longitude,
			&sub.RadiusKm, &sub.FCMToken, &sub.IsActive, &sub.CreatedAt, &sub.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub.Categories = parseCategories(sub.UserID, rawCategories)
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subs, nil
}

// parseCategories normalizes the stored category filter at the store
// boundary. The column is expected to hold a JSON string array; a
// double-encoded array (a JSON string containing an array) is unwrapped.
// Anything else is treated as "no filter" so one bad row cannot abort a
// dispatch cycle.
func parseCategories(userID string, raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var categories []string
	if err := json.Unmarshal(raw, &categories); err == nil {
		return categories
	}

	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		if err := json.Unmarshal([]byte(nested), &categories); err == nil {
			return categories
		}
	}

	log.Warnf("Malformed categories for subscription %s, treating as match-all: %s", userID, raw)
	return []string{}
}
