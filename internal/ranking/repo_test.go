package ranking

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"mangarank/pkg/database"
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

func mustCreate(t *testing.T, r *Repo, title string) string {
	t.Helper()
	rk, err := r.Create(context.Background(), "u1", "alice", title, "public")
	if err != nil {
		t.Fatalf("create ranking: %v", err)
	}
	return rk.ID
}

func ids(t *testing.T, r *Repo, rankingID string) []string {
	t.Helper()
	out, err := r.ItemIDs(context.Background(), rankingID)
	if err != nil {
		t.Fatalf("item ids: %v", err)
	}
	return out
}

func positions(t *testing.T, r *Repo, rankingID string) map[string]int {
	t.Helper()
	items, err := r.Items(context.Background(), rankingID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	pos := make(map[string]int, len(items))
	for _, it := range items {
		pos[it.MangaID] = it.Position
	}
	return pos
}

func itemsCount(t *testing.T, db *sql.DB, rankingID string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT items_count FROM rankings WHERE id = ?`, rankingID).Scan(&n); err != nil {
		t.Fatalf("read items_count: %v", err)
	}
	return n
}

func TestCreateSlugAndShortID(t *testing.T) {
	r := newTestRepo(t)
	rk, err := r.Create(context.Background(), "u1", "alice", "  Top Shōnen 2024  ", "bogus")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rk.Title != "Top Shōnen 2024" {
		t.Errorf("title = %q, want trimmed original", rk.Title)
	}
	if rk.Slug != "top-shonen-2024" {
		t.Errorf("slug = %q, want top-shonen-2024", rk.Slug)
	}
	if len(rk.ShortID) != 8 {
		t.Errorf("shortid = %q, want 8 chars", rk.ShortID)
	}
	if rk.Visibility != "public" {
		t.Errorf("visibility = %q, want public fallback", rk.Visibility)
	}
}

func TestAddItemsDensePositionsAndDedup(t *testing.T) {
	r := newTestRepo(t)
	id := mustCreate(t, r, "Test")
	ctx := context.Background()

	total, err := r.AddItems(ctx, id, []ItemInput{
		{MangaID: "A", Title: "One Piece"},
		{MangaID: "B"},
		{MangaID: "C"},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}

	// a second batch with one duplicate continues from the current count
	total, err = r.AddItems(ctx, id, []ItemInput{
		{MangaID: "B"},
		{MangaID: "D"},
	})
	if err != nil {
		t.Fatalf("add batch 2: %v", err)
	}
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}

	pos := positions(t, r, id)
	want := map[string]int{"A": 1, "B": 2, "C": 3, "D": 4}
	for k, v := range want {
		if pos[k] != v {
			t.Errorf("position[%s] = %d, want %d", k, pos[k], v)
		}
	}
	if n := itemsCount(t, r.DB, id); n != 4 {
		t.Errorf("items_count = %d, want 4", n)
	}
}

func TestDeleteItemRenumbers(t *testing.T) {
	r := newTestRepo(t)
	id := mustCreate(t, r, "Test")
	ctx := context.Background()

	if _, err := r.AddItems(ctx, id, []ItemInput{
		{MangaID: "A"}, {MangaID: "B"}, {MangaID: "C"}, {MangaID: "D"},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	ok, err := r.DeleteItem(ctx, id, "B")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !ok {
		t.Fatal("delete reported missing item")
	}

	got := ids(t, r, id)
	want := []string{"A", "C", "D"}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	pos := positions(t, r, id)
	for i, mangaID := range want {
		if got[i] != mangaID {
			t.Errorf("ids[%d] = %s, want %s", i, got[i], mangaID)
		}
		if pos[mangaID] != i+1 {
			t.Errorf("position[%s] = %d, want %d", mangaID, pos[mangaID], i+1)
		}
	}
	if n := itemsCount(t, r.DB, id); n != 3 {
		t.Errorf("items_count = %d, want 3", n)
	}

	// deleting again is a clean no-op
	ok, err = r.DeleteItem(ctx, id, "B")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if ok {
		t.Error("second delete should report false")
	}
	if n := itemsCount(t, r.DB, id); n != 3 {
		t.Errorf("items_count after no-op = %d, want 3", n)
	}
}

func TestReorderWritesDensePositions(t *testing.T) {
	r := newTestRepo(t)
	id := mustCreate(t, r, "Test")
	ctx := context.Background()

	if _, err := r.AddItems(ctx, id, []ItemInput{
		{MangaID: "A"}, {MangaID: "B"}, {MangaID: "C"},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := r.Reorder(ctx, id, []string{"C", "A", "B"}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	got := ids(t, r, id)
	want := []string{"C", "A", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	pos := positions(t, r, id)
	for i, mangaID := range want {
		if pos[mangaID] != i+1 {
			t.Errorf("position[%s] = %d, want %d", mangaID, pos[mangaID], i+1)
		}
	}
}

func TestReorderMissingItemRollsBack(t *testing.T) {
	r := newTestRepo(t)
	id := mustCreate(t, r, "Test")
	ctx := context.Background()

	if _, err := r.AddItems(ctx, id, []ItemInput{
		{MangaID: "A"}, {MangaID: "B"}, {MangaID: "C"},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := r.Reorder(ctx, id, []string{"C", "GONE", "A", "B"})
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}

	// nothing moved
	got := ids(t, r, id)
	want := []string{"A", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestReorderPartialListRejected(t *testing.T) {
	r := newTestRepo(t)
	id := mustCreate(t, r, "Test")
	ctx := context.Background()

	if _, err := r.AddItems(ctx, id, []ItemInput{
		{MangaID: "A"}, {MangaID: "B"}, {MangaID: "C"},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := r.Reorder(ctx, id, []string{"C", "A"})
	if !errors.Is(err, ErrOrderIncomplete) {
		t.Fatalf("err = %v, want ErrOrderIncomplete", err)
	}

	// positions stay dense 1..N, nothing moved
	got := ids(t, r, id)
	want := []string{"A", "B", "C"}
	pos := positions(t, r, id)
	for i, mangaID := range want {
		if got[i] != mangaID {
			t.Errorf("ids[%d] = %s, want %s", i, got[i], mangaID)
		}
		if pos[mangaID] != i+1 {
			t.Errorf("position[%s] = %d, want %d", mangaID, pos[mangaID], i+1)
		}
	}
}

func TestReorderDuplicateIDRejected(t *testing.T) {
	r := newTestRepo(t)
	id := mustCreate(t, r, "Test")
	ctx := context.Background()

	if _, err := r.AddItems(ctx, id, []ItemInput{
		{MangaID: "A"}, {MangaID: "B"}, {MangaID: "C"},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := r.Reorder(ctx, id, []string{"C", "A", "A"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	pos := positions(t, r, id)
	for mangaID, want := range map[string]int{"A": 1, "B": 2, "C": 3} {
		if pos[mangaID] != want {
			t.Errorf("position[%s] = %d, want %d", mangaID, pos[mangaID], want)
		}
	}
}

func TestReorderUnknownRanking(t *testing.T) {
	r := newTestRepo(t)
	err := r.Reorder(context.Background(), "nope", []string{"A"})
	if !errors.Is(err, ErrRankingNotFound) {
		t.Fatalf("err = %v, want ErrRankingNotFound", err)
	}
}

func TestDeleteRankingCascadesItems(t *testing.T) {
	r := newTestRepo(t)
	id := mustCreate(t, r, "Test")
	ctx := context.Background()

	if _, err := r.AddItems(ctx, id, []ItemInput{{MangaID: "A"}, {MangaID: "B"}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	ok, err := r.Delete(ctx, id, "u1")
	if err != nil {
		t.Fatalf("delete ranking: %v", err)
	}
	if !ok {
		t.Fatal("delete reported not found")
	}

	var n int
	if err := r.DB.QueryRow(`SELECT count(*) FROM ranking_items WHERE ranking_id = ?`, id).Scan(&n); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if n != 0 {
		t.Errorf("items left after cascade = %d, want 0", n)
	}
}

func TestDeleteRankingWrongOwner(t *testing.T) {
	r := newTestRepo(t)
	id := mustCreate(t, r, "Test")

	ok, err := r.Delete(context.Background(), id, "someone-else")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok {
		t.Error("delete by non-owner should report false")
	}
}

func TestResolvers(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	pub, err := r.Create(ctx, "u1", "alice", "Best Seinen", "public")
	if err != nil {
		t.Fatalf("create public: %v", err)
	}
	priv, err := r.Create(ctx, "u1", "alice", "Secret List", "private")
	if err != nil {
		t.Fatalf("create private: %v", err)
	}

	got, err := r.ResolveHandleSlug(ctx, "alice", "best-seinen")
	if err != nil {
		t.Fatalf("resolve handle+slug: %v", err)
	}
	if got == nil || got.ID != pub.ID {
		t.Errorf("resolve handle+slug = %+v, want %s", got, pub.ID)
	}

	got, err = r.ResolveShortID(ctx, pub.ShortID)
	if err != nil {
		t.Fatalf("resolve shortid: %v", err)
	}
	if got == nil || got.ID != pub.ID {
		t.Errorf("resolve shortid = %+v, want %s", got, pub.ID)
	}

	// private rankings never resolve through share URLs
	got, err = r.ResolveHandleSlug(ctx, "alice", "secret-list")
	if err != nil {
		t.Fatalf("resolve private: %v", err)
	}
	if got != nil {
		t.Error("private ranking resolved through handle+slug")
	}
	got, err = r.ResolveShortID(ctx, priv.ShortID)
	if err != nil {
		t.Fatalf("resolve private shortid: %v", err)
	}
	if got != nil {
		t.Error("private ranking resolved through shortid")
	}
}
