package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureSchema creates the tables the service owns when they are missing.
// Kept as idempotent DDL so a fresh deployment needs no migration tooling.
func EnsureSchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ddls := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			user_name TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS integrations (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			external_id TEXT NOT NULL,
			external_name TEXT NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT,
			expires_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, platform, external_id)
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			integration_id BIGINT NOT NULL REFERENCES integrations(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			status TEXT NOT NULL,
			scheduled_at TIMESTAMPTZ,
			posted_at TIMESTAMPTZ,
			post_url TEXT,
			fail_count INT NOT NULL DEFAULT 0,
			fail_reason TEXT,
			destination TEXT,
			additional_fields TEXT,
			media_ref TEXT,
			source TEXT NOT NULL DEFAULT 'native',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_due ON posts (status, scheduled_at)`,
		`CREATE TABLE IF NOT EXISTS recent_destinations (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			destination_id TEXT NOT NULL,
			dtype TEXT NOT NULL,
			name TEXT NOT NULL,
			metadata TEXT,
			description TEXT,
			use_count INT NOT NULL DEFAULT 1,
			last_used_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, platform, destination_id)
		)`,
		`CREATE TABLE IF NOT EXISTS app_credentials (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			client_id TEXT NOT NULL,
			client_secret TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, platform)
		)`,
	}
	for _, ddl := range ddls {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
