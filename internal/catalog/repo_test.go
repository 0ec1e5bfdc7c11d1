package catalog

import (
	"context"
	"testing"

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
	return NewRepo(db)
}

func seedCatalog(t *testing.T, r *Repo) {
	t.Helper()
	ctx := context.Background()
	for _, m := range []models.Manga{
		{ID: "op", Title: "One Piece", Author: "Eiichiro Oda"},
		{ID: "vg", Title: "Vagabond", Author: "Takehiko Inoue"},
		{ID: "vl", Title: "Vinland Saga", Author: "Makoto Yukimura"},
		{ID: "sk", Title: "Shōnen Sketches", Author: "Ōta Rei"},
	} {
		if err := r.Upsert(ctx, m); err != nil {
			t.Fatalf("upsert %s: %v", m.ID, err)
		}
	}
}

func TestPrefixSearchFoldsAccents(t *testing.T) {
	r := newTestRepo(t)
	seedCatalog(t, r)
	ctx := context.Background()

	got, err := r.List(ctx, ListQuery{Q: "shon"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "sk" {
		t.Fatalf("list shon = %v, want [sk]", got)
	}

	// author prefix, with accent in the stored value
	got, err = r.List(ctx, ListQuery{Q: "ota"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "sk" {
		t.Fatalf("list ota = %v, want [sk]", got)
	}

	// prefix match only, not substring
	got, err = r.List(ctx, ListQuery{Q: "piece"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("list piece = %v, want none", got)
	}
}

func TestListOrderAndCount(t *testing.T) {
	r := newTestRepo(t)
	seedCatalog(t, r)
	ctx := context.Background()

	got, err := r.List(ctx, ListQuery{Q: "v"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "vg" || got[1].ID != "vl" {
		t.Fatalf("list v = %v, want [vg vl] by title", got)
	}

	n, err := r.Count(ctx, ListQuery{Q: "v"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestGetByIDsPreservesRequestOrder(t *testing.T) {
	r := newTestRepo(t)
	seedCatalog(t, r)

	got, err := r.GetByIDs(context.Background(), []string{"vl", "missing", "op"})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(got) != 2 || got[0].ID != "vl" || got[1].ID != "op" {
		t.Fatalf("batch = %v, want [vl op] in request order", got)
	}
}

func TestUpsertReplacesAndRefolds(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.Upsert(ctx, models.Manga{ID: "x", Title: "Ōld Title"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := r.Upsert(ctx, models.Manga{ID: "x", Title: "New Title", Author: "Someone"}); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	m, err := r.GetByID(ctx, "x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m == nil || m.Title != "New Title" {
		t.Fatalf("get = %+v, want replaced title", m)
	}

	got, err := r.List(ctx, ListQuery{Q: "old"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Error("stale folded title still matches after upsert")
	}
}

func TestSeedSkipsExisting(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	list := []models.Manga{
		{ID: "a", Title: "Alpha"},
		{ID: "b", Title: "Beta"},
	}
	n, err := r.Seed(ctx, list)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 2 {
		t.Fatalf("seed inserted = %d, want 2", n)
	}

	n, err = r.Seed(ctx, append(list, models.Manga{ID: "c", Title: "Gamma"}))
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if n != 1 {
		t.Errorf("reseed inserted = %d, want 1", n)
	}
}
