package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"mangarank/pkg/models"
	"mangarank/pkg/utils"
)

func LoadMangaFromJSON(jsonPath string) ([]models.Manga, error) {
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read manga json: %w", err)
	}

	var list []models.Manga
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("unmarshal manga json: %w", err)
	}
	return list, nil
}

// Seed inserts catalog entries that are not already present. Existing
// rows are left untouched so local edits survive a reseed.
func (r *Repo) Seed(ctx context.Context, mangaList []models.Manga) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO manga (id, title, author, description, cover_url, cover_thumb_url, title_lower, author_lower)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert manga: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, m := range mangaList {
		res, err := stmt.ExecContext(ctx,
			m.ID, m.Title, m.Author, m.Description, m.CoverURL, m.CoverThumbURL,
			utils.Fold(m.Title), utils.Fold(m.Author))
		if err != nil {
			return 0, fmt.Errorf("insert manga %s: %w", m.ID, err)
		}
		aff, _ := res.RowsAffected()
		if aff > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}
