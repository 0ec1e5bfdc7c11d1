package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mangarank/pkg/models"
	"mangarank/pkg/utils"
)

type Repo struct {
	DB *sql.DB
}

type ListQuery struct {
	Q      string // prefix search in title/author
	Limit  int
	Offset int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const mangaCols = `id, title, author, description, cover_url, cover_thumb_url`

func scanManga(row interface{ Scan(...any) error }) (*models.Manga, error) {
	var m models.Manga
	err := row.Scan(&m.ID, &m.Title, &m.Author, &m.Description, &m.CoverURL, &m.CoverThumbURL)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan manga: %w", err)
	}
	return &m, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Manga, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+mangaCols+` FROM manga WHERE id = ?`, id)
	return scanManga(row)
}

// GetByIDs fetches a batch and returns it in request order, skipping
// ids with no catalog entry.
func (r *Repo) GetByIDs(ctx context.Context, ids []string) ([]models.Manga, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT `+mangaCols+` FROM manga WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("batch query: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]models.Manga, len(ids))
	for rows.Next() {
		m, err := scanManga(rows)
		if err != nil {
			return nil, err
		}
		byID[m.ID] = *m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	out := make([]models.Manga, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Manga, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Manga, 0, q.Limit)
	for rows.Next() {
		m, err := scanManga(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// buildListSQL builds either COUNT(*) or SELECT list. The keyword is
// folded and matched as a prefix against title_lower and author_lower
// so "shon" finds "Shōnen" titles.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	baseSelect := `SELECT ` + mangaCols + ` FROM manga`
	if countOnly {
		baseSelect = `SELECT COUNT(*) FROM manga`
	}

	var where []string
	var args []any

	if kw := utils.Fold(strings.TrimSpace(q.Q)); kw != "" {
		where = append(where, "(title_lower LIKE ? OR author_lower LIKE ?)")
		pfx := kw + "%"
		args = append(args, pfx, pfx)
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY title_lower ASC"
		sqlStr += " LIMIT ? OFFSET ?"
		limit := q.Limit
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, limit, offset)
	}

	return sqlStr, args
}

// Upsert writes a catalog entry, recomputing the folded search columns.
func (r *Repo) Upsert(ctx context.Context, m models.Manga) error {
	if m.ID == "" || strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("upsert manga: id and title required")
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO manga (id, title, author, description, cover_url, cover_thumb_url, title_lower, author_lower)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			description = excluded.description,
			cover_url = excluded.cover_url,
			cover_thumb_url = excluded.cover_thumb_url,
			title_lower = excluded.title_lower,
			author_lower = excluded.author_lower
	`, m.ID, m.Title, m.Author, m.Description, m.CoverURL, m.CoverThumbURL,
		utils.Fold(m.Title), utils.Fold(m.Author))
	if err != nil {
		return fmt.Errorf("upsert manga %s: %w", m.ID, err)
	}
	return nil
}
