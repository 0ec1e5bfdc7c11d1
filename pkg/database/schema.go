package database

import (
	"database/sql"
	"fmt"
)

// Migrate creates all tables. Safe to call repeatedly.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const schema = `
-- Users (auth + profile)
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    handle TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    photo_url TEXT NOT NULL DEFAULT '',
    token_version INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_users_handle ON users(handle);

-- Manga catalog
CREATE TABLE IF NOT EXISTS manga (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    author TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    cover_url TEXT NOT NULL DEFAULT '',
    cover_thumb_url TEXT NOT NULL DEFAULT '',
    title_lower TEXT NOT NULL DEFAULT '',
    author_lower TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_manga_title_lower ON manga(title_lower);
CREATE INDEX IF NOT EXISTS idx_manga_author_lower ON manga(author_lower);

-- Rankings
CREATE TABLE IF NOT EXISTS rankings (
    id TEXT PRIMARY KEY,
    owner_uid TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    owner_handle TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    slug TEXT NOT NULL DEFAULT '',
    shortid TEXT NOT NULL DEFAULT '',
    visibility TEXT NOT NULL DEFAULT 'public' CHECK (visibility IN ('public', 'private')),
    items_count INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_rankings_owner ON rankings(owner_uid);
CREATE INDEX IF NOT EXISTS idx_rankings_handle_slug ON rankings(owner_handle, slug);
CREATE INDEX IF NOT EXISTS idx_rankings_shortid ON rankings(shortid);

-- Ranking items: one row per manga per ranking, dense 1..N positions
CREATE TABLE IF NOT EXISTS ranking_items (
    ranking_id TEXT NOT NULL REFERENCES rankings(id) ON DELETE CASCADE,
    manga_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    cover_url TEXT NOT NULL DEFAULT '',
    added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (ranking_id, manga_id)
);

CREATE INDEX IF NOT EXISTS idx_ranking_items_position ON ranking_items(ranking_id, position);

-- Favorites
CREATE TABLE IF NOT EXISTS favorites (
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    manga_id TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    cover_url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, manga_id)
);
`
