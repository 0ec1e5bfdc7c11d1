package profile

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

// Patch carries only the fields the caller wants to change; nil means
// keep the stored value.
type Patch struct {
	DisplayName *string
	Bio         *string
	PhotoURL    *string
}

const profileCols = `id, handle, display_name, bio, photo_url, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.Handle, &p.DisplayName, &p.Bio, &p.PhotoURL, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

func (r *Repo) GetByUID(ctx context.Context, uid string) (*models.Profile, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+profileCols+` FROM users WHERE id = ?`, uid)
	return scanProfile(row)
}

func (r *Repo) GetByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+profileCols+` FROM users WHERE handle = ?`, handle)
	return scanProfile(row)
}

// Update merges only the provided fields into the stored profile and
// returns the result.
func (r *Repo) Update(ctx context.Context, uid string, patch Patch) (*models.Profile, error) {
	set := ""
	var args []any

	if patch.DisplayName != nil {
		set += "display_name = ?, "
		args = append(args, *patch.DisplayName)
	}
	if patch.Bio != nil {
		set += "bio = ?, "
		args = append(args, *patch.Bio)
	}
	if patch.PhotoURL != nil {
		set += "photo_url = ?, "
		args = append(args, *patch.PhotoURL)
	}

	if set != "" {
		set += "updated_at = ?"
		args = append(args, time.Now().UTC(), uid)

		res, err := r.DB.ExecContext(ctx, `UPDATE users SET `+set+` WHERE id = ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return nil, nil
		}
	}

	return r.GetByUID(ctx, uid)
}
