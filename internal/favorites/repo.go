package favorites

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mangarank/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Put marks a manga as favorite; re-favoriting refreshes the cached
// display fields but keeps the original created_at.
func (r *Repo) Put(ctx context.Context, fav models.Favorite) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO favorites (user_id, manga_id, title, author, cover_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, manga_id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			cover_url = excluded.cover_url
	`, fav.UserID, fav.MangaID, fav.Title, fav.Author, fav.CoverURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put favorite: %w", err)
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID, mangaID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM favorites WHERE user_id = ? AND manga_id = ?
	`, userID, mangaID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) List(ctx context.Context, userID string, limit, offset int) ([]models.Favorite, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM favorites WHERE user_id = ?
	`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count favorites: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, manga_id, title, author, cover_url, created_at
		FROM favorites
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := make([]models.Favorite, 0, limit)
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.UserID, &f.MangaID, &f.Title, &f.Author, &f.CoverURL, &f.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows err: %w", err)
	}
	return out, total, nil
}

func (r *Repo) Get(ctx context.Context, userID, mangaID string) (*models.Favorite, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT user_id, manga_id, title, author, cover_url, created_at
		FROM favorites
		WHERE user_id = ? AND manga_id = ?
	`, userID, mangaID)

	var f models.Favorite
	if err := row.Scan(&f.UserID, &f.MangaID, &f.Title, &f.Author, &f.CoverURL, &f.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get favorite: %w", err)
	}
	return &f, nil
}
