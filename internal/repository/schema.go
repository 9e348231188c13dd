package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		code VARCHAR(6) NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS swipes (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		restaurant_id TEXT NOT NULL,
		direction TEXT NOT NULL CHECK (direction IN ('like', 'dislike')),
		swiped_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, restaurant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		restaurant_id TEXT NOT NULL,
		restaurant JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, restaurant_id)
	)`,
	`CREATE INDEX IF NOT EXISTS favorites_restaurant_idx ON favorites (restaurant_id)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		friend_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, friend_id),
		CHECK (user_id <> friend_id)
	)`,
	`CREATE TABLE IF NOT EXISTS selections (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		restaurant JSONB NOT NULL,
		selected_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tournament_winners (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		restaurant_id TEXT NOT NULL,
		restaurant JSONB NOT NULL,
		won_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, restaurant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		data JSONB,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_created_idx ON notifications (user_id, created_at DESC)`,
}

// Migrate creates missing tables and indexes
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
