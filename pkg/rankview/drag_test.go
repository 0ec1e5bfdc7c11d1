package rankview

import (
	"context"
	"testing"
)

func TestDragEndFeedsMove(t *testing.T) {
	store := newFakeStore()
	v := openView(t, store)
	store.push("A", "B", "C")

	c := NewController(v)
	c.OnDragStart("C")
	if !c.IsActive("C") || c.IsActive("A") {
		t.Fatal("active row tracking wrong")
	}
	if it, ok := c.ActiveItem(); !ok || it.MangaID != "C" {
		t.Fatalf("ActiveItem = %+v, %v", it, ok)
	}

	if err := c.OnDragEnd(context.Background(), "C", 0); err != nil {
		t.Fatalf("OnDragEnd: %v", err)
	}
	wantOrder(t, v, "C", "A", "B")
	if c.IsActive("C") {
		t.Fatal("drag must clear on drop")
	}
}

func TestDragCancelDoesNothing(t *testing.T) {
	store := newFakeStore()
	v := openView(t, store)
	store.push("A", "B")

	c := NewController(v)
	c.OnDragStart("B")
	c.OnDragCancel()
	if c.IsActive("B") {
		t.Fatal("cancel must clear the active row")
	}
	if store.saveCount() != 0 {
		t.Fatal("cancel must not write")
	}
	wantOrder(t, v, "A", "B")
}

func TestDragEndOutsideDropTarget(t *testing.T) {
	store := newFakeStore()
	v := openView(t, store)
	store.push("A", "B")

	c := NewController(v)
	c.OnDragStart("B")
	if err := c.OnDragEnd(context.Background(), "B", -1); err != nil {
		t.Fatalf("OnDragEnd: %v", err)
	}
	if store.saveCount() != 0 {
		t.Fatal("no drop target, no write")
	}

	// drop without a preceding grab is ignored too
	if err := c.OnDragEnd(context.Background(), "A", 1); err != nil {
		t.Fatalf("OnDragEnd without start: %v", err)
	}
	if store.saveCount() != 0 {
		t.Fatal("unstarted drag must not write")
	}
}
