package profile

import (
	"context"
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
		INSERT INTO users (id, username, email, password_hash, handle, display_name, bio)
		VALUES ('u1', 'alice', 'alice@example.com', 'x', 'alice', 'Alice', 'likes seinen')
	`); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return NewRepo(db)
}

func strp(s string) *string { return &s }

func TestGetByUIDAndHandle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	p, err := r.GetByUID(ctx, "u1")
	if err != nil {
		t.Fatalf("get by uid: %v", err)
	}
	if p == nil || p.Handle != "alice" || p.DisplayName != "Alice" {
		t.Fatalf("get by uid = %+v", p)
	}

	p, err = r.GetByHandle(ctx, "alice")
	if err != nil {
		t.Fatalf("get by handle: %v", err)
	}
	if p == nil || p.UserID != "u1" {
		t.Fatalf("get by handle = %+v", p)
	}

	p, err = r.GetByHandle(ctx, "nobody")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if p != nil {
		t.Error("missing handle resolved")
	}
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	p, err := r.Update(ctx, "u1", Patch{Bio: strp("new bio")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p == nil {
		t.Fatal("update returned nil profile")
	}
	if p.Bio != "new bio" {
		t.Errorf("bio = %q, want new bio", p.Bio)
	}
	if p.DisplayName != "Alice" {
		t.Errorf("display_name = %q, want untouched Alice", p.DisplayName)
	}

	// clearing a field is an explicit empty string, not absence
	p, err = r.Update(ctx, "u1", Patch{DisplayName: strp("")})
	if err != nil {
		t.Fatalf("update clear: %v", err)
	}
	if p.DisplayName != "" {
		t.Errorf("display_name = %q, want cleared", p.DisplayName)
	}
	if p.Bio != "new bio" {
		t.Errorf("bio = %q, want kept", p.Bio)
	}
}

func TestUpdateUnknownUser(t *testing.T) {
	r := newTestRepo(t)

	p, err := r.Update(context.Background(), "ghost", Patch{Bio: strp("x")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p != nil {
		t.Error("update of unknown user returned a profile")
	}
}
