package database

import (
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the necessary database tables if they don't exist
func (d *Database) InitSchema() error {
	log.Info("Initializing scam-alert-service database schema...")

	reportsTableSQL := `
	CREATE TABLE IF NOT EXISTS scam_reports(
		id CHAR(36) NOT NULL,
		user_id CHAR(36) NOT NULL,
		type VARCHAR(64) NOT NULL,
		category VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		latitude DOUBLE,
		longitude DOUBLE,
		is_public BOOL NOT NULL DEFAULT true,
		status VARCHAR(32) NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX user_id_index (user_id),
		INDEX category_index (category),
		INDEX created_at_index (created_at),
		INDEX public_created_index (is_public, created_at),
		INDEX latlng_index (latitude, longitude)
	)`

	if _, err := d.db.Exec(reportsTableSQL); err != nil {
		return fmt.Errorf("failed to create scam_reports table: %w", err)
	}
	log.Info("Scam_reports table created/verified")

	verificationsTableSQL := `
	CREATE TABLE IF NOT EXISTS verifications(
		report_id CHAR(36) NOT NULL,
		user_id CHAR(36) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY report_user_unique (report_id, user_id),
		INDEX report_id_index (report_id)
	)`

	if _, err := d.db.Exec(verificationsTableSQL); err != nil {
		return fmt.Errorf("failed to create verifications table: %w", err)
	}
	log.Info("Verifications table created/verified")

	subscriptionsTableSQL := `
	CREATE TABLE IF NOT EXISTS alert_subscriptions(
		user_id CHAR(36) NOT NULL,
		categories JSON,
		latitude DOUBLE,
		longitude DOUBLE,
		radius_km DOUBLE NOT NULL DEFAULT 15,
		fcm_token VARCHAR(512),
		is_active BOOL NOT NULL DEFAULT true,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id),
		INDEX active_token_index (is_active)
	)`

	if _, err := d.db.Exec(subscriptionsTableSQL); err != nil {
		return fmt.Errorf("failed to create alert_subscriptions table: %w", err)
	}
	log.Info("Alert_subscriptions table created/verified")

	return nil
}
