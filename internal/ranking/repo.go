package ranking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mangarank/pkg/models"
	"mangarank/pkg/utils"
)

var (
	ErrRankingNotFound = errors.New("ranking not found")
	ErrItemNotFound    = errors.New("ranking item not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrOrderIncomplete = errors.New("order must cover every item")
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// ItemInput is one manga to add, with optional denormalized display
// fields cached on the membership row.
type ItemInput struct {
	MangaID  string
	Title    string
	Author   string
	CoverURL string
}

// NewShortID returns the short public identifier written on a ranking
// for /r/:slug-:shortid URLs.
func NewShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (r *Repo) Create(ctx context.Context, ownerUID, ownerHandle, title, visibility string) (*models.Ranking, error) {
	title = strings.TrimSpace(title)
	if ownerUID == "" || title == "" {
		return nil, fmt.Errorf("create ranking: %w", ErrInvalidInput)
	}
	if visibility != models.VisibilityPrivate {
		visibility = models.VisibilityPublic
	}

	slug := utils.Slugify(title)
	if slug == "" {
		slug = "ranking"
	}

	now := time.Now().UTC()
	rk := &models.Ranking{
		ID:          uuid.NewString(),
		OwnerUID:    ownerUID,
		OwnerHandle: ownerHandle,
		Title:       title,
		Slug:        slug,
		ShortID:     NewShortID(),
		Visibility:  visibility,
		ItemsCount:  0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO rankings (id, owner_uid, owner_handle, title, slug, shortid, visibility, items_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, rk.ID, rk.OwnerUID, rk.OwnerHandle, rk.Title, rk.Slug, rk.ShortID, rk.Visibility, rk.CreatedAt, rk.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create ranking: %w", err)
	}
	return rk, nil
}

const rankingCols = `id, owner_uid, owner_handle, title, slug, shortid, visibility, items_count, created_at, updated_at`

func scanRanking(row interface{ Scan(...any) error }) (*models.Ranking, error) {
	var rk models.Ranking
	err := row.Scan(
		&rk.ID, &rk.OwnerUID, &rk.OwnerHandle, &rk.Title, &rk.Slug,
		&rk.ShortID, &rk.Visibility, &rk.ItemsCount, &rk.CreatedAt, &rk.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ranking: %w", err)
	}
	return &rk, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.Ranking, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+rankingCols+` FROM rankings WHERE id = ?`, id)
	return scanRanking(row)
}

func (r *Repo) ListByOwner(ctx context.Context, ownerUID string) ([]models.Ranking, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+rankingCols+`
		FROM rankings
		WHERE owner_uid = ?
		ORDER BY created_at DESC
	`, ownerUID)
	if err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	defer rows.Close()

	var out []models.Ranking
	for rows.Next() {
		rk, err := scanRanking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// ResolveHandleSlug finds a public ranking by its owner's handle and
// slug, for /:handle/:slug share URLs.
func (r *Repo) ResolveHandleSlug(ctx context.Context, handle, slug string) (*models.Ranking, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+rankingCols+`
		FROM rankings
		WHERE owner_handle = ? AND slug = ? AND visibility = 'public'
		LIMIT 1
	`, handle, slug)
	return scanRanking(row)
}

// ResolveShortID finds a public ranking by its short id, the fallback
// for /r/:slug-:shortid URLs.
func (r *Repo) ResolveShortID(ctx context.Context, shortid string) (*models.Ranking, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+rankingCols+`
		FROM rankings
		WHERE shortid = ? AND visibility = 'public'
		LIMIT 1
	`, shortid)
	return scanRanking(row)
}

// Delete removes an owner's ranking; items cascade.
func (r *Repo) Delete(ctx context.Context, id, ownerUID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM rankings WHERE id = ? AND owner_uid = ?
	`, id, ownerUID)
	if err != nil {
		return false, fmt.Errorf("delete ranking: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Items returns the ranking's current items ordered by position ASC —
// the shape every snapshot delivery carries.
func (r *Repo) Items(ctx context.Context, rankingID string) ([]models.RankingItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT manga_id, ranking_id, position, title, author, cover_url, added_at
		FROM ranking_items
		WHERE ranking_id = ?
		ORDER BY position ASC
	`, rankingID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]models.RankingItem, 0, 16)
	for rows.Next() {
		var it models.RankingItem
		if err := rows.Scan(&it.MangaID, &it.RankingID, &it.Position, &it.Title, &it.Author, &it.CoverURL, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return items, nil
}

// ItemIDs returns just the ordered membership ids.
func (r *Repo) ItemIDs(ctx context.Context, rankingID string) ([]string, error) {
	items, err := r.Items(ctx, rankingID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.MangaID
	}
	return ids, nil
}

// AddItems appends new memberships in one transaction: duplicates are
// skipped, positions continue from the current count, and itemsCount is
// updated alongside. Returns the new total.
func (r *Repo) AddItems(ctx context.Context, rankingID string, inputs []ItemInput) (int, error) {
	if rankingID == "" || len(inputs) == 0 {
		return 0, fmt.Errorf("add items: %w", ErrInvalidInput)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin add items: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var base int
	if err := tx.QueryRowContext(ctx, `SELECT items_count FROM rankings WHERE id = ?`, rankingID).Scan(&base); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrRankingNotFound
		}
		return 0, fmt.Errorf("read items_count: %w", err)
	}

	added := 0
	for _, in := range inputs {
		if in.MangaID == "" {
			continue
		}

		var exists int
		err := tx.QueryRowContext(ctx, `
			SELECT 1 FROM ranking_items WHERE ranking_id = ? AND manga_id = ?
		`, rankingID, in.MangaID).Scan(&exists)
		if err == nil {
			continue // duplicate membership, skip
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("check membership: %w", err)
		}

		added++
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ranking_items (ranking_id, manga_id, position, title, author, cover_url, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, rankingID, in.MangaID, base+added, in.Title, in.Author, in.CoverURL, time.Now().UTC())
		if err != nil {
			return 0, fmt.Errorf("insert item: %w", err)
		}
	}

	if added > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE rankings SET items_count = ?, updated_at = ? WHERE id = ?
		`, base+added, time.Now().UTC(), rankingID)
		if err != nil {
			return 0, fmt.Errorf("update items_count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add items: %w", err)
	}
	return base + added, nil
}

// DeleteItem removes one membership, renumbers the items after it so
// positions stay dense 1..N, and decrements itemsCount — all in one
// transaction. Returns false when the item did not exist.
func (r *Repo) DeleteItem(ctx context.Context, rankingID, mangaID string) (bool, error) {
	if rankingID == "" || mangaID == "" {
		return false, fmt.Errorf("delete item: %w", ErrInvalidInput)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete item: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM rankings WHERE id = ?`, rankingID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrRankingNotFound
		}
		return false, fmt.Errorf("check ranking: %w", err)
	}

	var pos int
	err = tx.QueryRowContext(ctx, `
		SELECT position FROM ranking_items WHERE ranking_id = ? AND manga_id = ?
	`, rankingID, mangaID).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil // nothing to do
	}
	if err != nil {
		return false, fmt.Errorf("read position: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM ranking_items WHERE ranking_id = ? AND manga_id = ?
	`, rankingID, mangaID); err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE ranking_items SET position = position - 1
		WHERE ranking_id = ? AND position > ?
	`, rankingID, pos); err != nil {
		return false, fmt.Errorf("renumber items: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE rankings SET items_count = max(items_count - 1, 0), updated_at = ? WHERE id = ?
	`, time.Now().UTC(), rankingID); err != nil {
		return false, fmt.Errorf("update items_count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete item: %w", err)
	}
	return true, nil
}

// Reorder rewrites every membership's position to its index+1 in
// orderedIDs, all-or-nothing: an id without a matching row aborts the
// whole transaction, so a torn order is never visible to readers. The
// list must name every item exactly once; a partial or duplicated
// order would commit non-dense positions.
func (r *Repo) Reorder(ctx context.Context, rankingID string, orderedIDs []string) error {
	if rankingID == "" || len(orderedIDs) == 0 {
		return fmt.Errorf("reorder: %w", ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("reorder duplicate %q: %w", id, ErrInvalidInput)
		}
		seen[id] = struct{}{}
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM rankings WHERE id = ?`, rankingID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRankingNotFound
		}
		return fmt.Errorf("check ranking: %w", err)
	}

	var total int
	if err := tx.QueryRowContext(ctx, `
		SELECT count(*) FROM ranking_items WHERE ranking_id = ?
	`, rankingID).Scan(&total); err != nil {
		return fmt.Errorf("count items: %w", err)
	}
	// a longer list necessarily names an unknown id and fails below
	if len(orderedIDs) < total {
		return fmt.Errorf("reorder covers %d of %d items: %w", len(orderedIDs), total, ErrOrderIncomplete)
	}

	for idx, mangaID := range orderedIDs {
		res, err := tx.ExecContext(ctx, `
			UPDATE ranking_items SET position = ?
			WHERE ranking_id = ? AND manga_id = ?
		`, idx+1, rankingID, mangaID)
		if err != nil {
			return fmt.Errorf("write position: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return fmt.Errorf("reorder %q: %w", mangaID, ErrItemNotFound)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE rankings SET updated_at = ? WHERE id = ?
	`, time.Now().UTC(), rankingID); err != nil {
		return fmt.Errorf("touch ranking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder: %w", err)
	}
	return nil
}
