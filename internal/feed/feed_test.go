package feed

import (
	"context"
	"errors"
	"sort"
	"testing"

	"mangarank/pkg/models"
)

type fakeSource struct {
	name   string
	items  []models.Manga
	broken bool
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) FetchAll(context.Context) ([]models.Manga, error) {
	if s.broken {
		return nil, errors.New("boom")
	}
	return s.items, nil
}

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"One Piece", "one piece"},
		{"ONE-PIECE!!", "one piece"},
		{"  Vinland   Saga  ", "vinland saga"},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := normalizeKey(tc.in); got != tc.want {
			t.Errorf("normalizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFetchAndMergeFillsMissingFields(t *testing.T) {
	a := &fakeSource{name: "a", items: []models.Manga{
		{ID: "uuid-1", Title: "One Piece", Description: "short"},
	}}
	b := &fakeSource{name: "b", items: []models.Manga{
		{ID: "one-piece", Title: "one piece!", Author: "Eiichiro Oda", Description: "a much longer summary", CoverURL: "http://x/op.jpg"},
	}}

	got, err := NewAggregator(a, b).FetchAndMerge(context.Background())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("merged %d entries, want 1", len(got))
	}

	m := got[0]
	if m.ID != "uuid-1" || m.Title != "One Piece" {
		t.Errorf("first source should keep id/title, got %+v", m)
	}
	if m.Author != "Eiichiro Oda" {
		t.Errorf("author not filled: %+v", m)
	}
	if m.Description != "a much longer summary" {
		t.Errorf("longer description not kept: %+v", m)
	}
	if m.CoverURL != "http://x/op.jpg" {
		t.Errorf("cover not filled: %+v", m)
	}
}

func TestFetchAndMergeSkipsBrokenSource(t *testing.T) {
	broken := &fakeSource{name: "down", broken: true}
	ok := &fakeSource{name: "up", items: []models.Manga{
		{ID: "vg", Title: "Vagabond"},
		{ID: "vl", Title: "Vinland Saga"},
	}}

	got, err := NewAggregator(broken, ok).FetchAndMerge(context.Background())
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.ID
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "vg" || ids[1] != "vl" {
		t.Fatalf("ids = %v, want [vg vl]", ids)
	}
}
