package favorites

import (
	"context"
	"testing"
	"time"

	"mangarank/pkg/database"
	"mangarank/pkg/models"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO users (id, username, email, password_hash, handle)
		VALUES ('u1', 'alice', 'alice@example.com', 'x', 'alice')
	`); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return NewRepo(db)
}

func TestPutAndGet(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	fav := models.Favorite{UserID: "u1", MangaID: "op", Title: "One Piece", Author: "Eiichiro Oda"}
	if err := r.Put(ctx, fav); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := r.Get(ctx, "u1", "op")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Title != "One Piece" {
		t.Fatalf("get = %+v, want stored favorite", got)
	}
	first := got.CreatedAt

	// re-favoriting refreshes display fields, keeps created_at
	fav.Title = "ONE PIECE"
	if err := r.Put(ctx, fav); err != nil {
		t.Fatalf("put again: %v", err)
	}
	got, err = r.Get(ctx, "u1", "op")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if got.Title != "ONE PIECE" {
		t.Errorf("title = %q, want refreshed", got.Title)
	}
	if !got.CreatedAt.Equal(first) {
		t.Errorf("created_at changed on re-put: %v vs %v", got.CreatedAt, first)
	}
}

func TestListNewestFirst(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		// explicit timestamps, list order must not depend on insert speed
		at := time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if _, err := r.DB.Exec(`
			INSERT INTO favorites (user_id, manga_id, created_at) VALUES ('u1', ?, ?)
		`, id, at); err != nil {
			t.Fatalf("seed favorite: %v", err)
		}
	}

	items, total, err := r.List(ctx, "u1", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("total = %d len = %d, want 3/3", total, len(items))
	}
	want := []string{"c", "b", "a"}
	for i := range want {
		if items[i].MangaID != want[i] {
			t.Errorf("items[%d] = %s, want %s", i, items[i].MangaID, want[i])
		}
	}
}

func TestRemove(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.Put(ctx, models.Favorite{UserID: "u1", MangaID: "op"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := r.Remove(ctx, "u1", "op")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !ok {
		t.Fatal("remove reported missing")
	}

	ok, err = r.Remove(ctx, "u1", "op")
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if ok {
		t.Error("second remove should report false")
	}

	got, err := r.Get(ctx, "u1", "op")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("favorite still present after remove")
	}
}
