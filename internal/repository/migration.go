package repository

import (
	"fmt"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/domain/message"
	"helpbridge/internal/domain/outbox"
	"helpbridge/internal/domain/request"
	"helpbridge/internal/domain/user"

	"gorm.io/gorm"
)

// Tables lists every migrated table in dependency order.
var Tables = []string{
	"users",
	"helper_profiles",
	"receiver_profiles",
	"help_requests",
	"matches",
	"messages",
	"outbox_events",
}

// InitSchema handles the database schema migration.
// It creates necessary extensions, runs Gorm auto-migration and adds the
// constraints AutoMigrate cannot express.
func InitSchema(db *gorm.DB) error {
	// 1. Extensions
	// Creating extensions usually requires superuser privileges.
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	}

	for _, ext := range extensions {
		if err := db.Exec(ext).Error; err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	// 2. AutoMigrate Tables
	if err := db.AutoMigrate(
		&user.User{},
		&user.HelperProfile{},
		&user.ReceiverProfile{},
		&request.HelpRequest{},
		&match.Match{},
		&message.Message{},
		&outbox.OutboxEvent{},
	); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	// 3. Constraints
	constraints := []struct {
		name string
		sql  string
	}{
		{
			// One pending request per receiver/helper pair.
			name: "ux_help_requests_pending_pair",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS ux_help_requests_pending_pair
				ON help_requests (receiver_id, helper_id)
				WHERE status = 'pending';`,
		},
		{
			name: "ck_help_requests_status",
			sql: `DO $$ BEGIN
				ALTER TABLE help_requests ADD CONSTRAINT ck_help_requests_status
					CHECK (status IN ('pending', 'accepted', 'declined', 'closed'));
			EXCEPTION
				WHEN duplicate_object THEN null;
			END $$;`,
		},
		{
			name: "ck_help_requests_match",
			sql: `DO $$ BEGIN
				ALTER TABLE help_requests ADD CONSTRAINT ck_help_requests_match
					CHECK ((status = 'accepted') = (match_id IS NOT NULL));
			EXCEPTION
				WHEN duplicate_object THEN null;
			END $$;`,
		},
		{
			name: "ck_matches_status",
			sql: `DO $$ BEGIN
				ALTER TABLE matches ADD CONSTRAINT ck_matches_status
					CHECK (status IN ('active', 'completed', 'cancelled'));
			EXCEPTION
				WHEN duplicate_object THEN null;
			END $$;`,
		},
		{
			name: "fk_matches_request",
			sql: `DO $$ BEGIN
				ALTER TABLE matches ADD CONSTRAINT fk_matches_request
					FOREIGN KEY (request_id) REFERENCES help_requests (id);
			EXCEPTION
				WHEN duplicate_object THEN null;
			END $$;`,
		},
		{
			name: "fk_messages_match",
			sql: `DO $$ BEGIN
				ALTER TABLE messages ADD CONSTRAINT fk_messages_match
					FOREIGN KEY (match_id) REFERENCES matches (id) ON DELETE CASCADE;
			EXCEPTION
				WHEN duplicate_object THEN null;
			END $$;`,
		},
	}

	for _, c := range constraints {
		if err := db.Exec(c.sql).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", c.name, err)
		}
	}

	return nil
}
