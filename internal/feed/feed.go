// Package feed pulls catalog entries from external sources and merges
// them into one canonical set before they are written to the catalog.
package feed

import (
	"context"
	"log"
	"strings"
	"unicode"

	"mangarank/internal/catalog"
	"mangarank/pkg/models"
)

// Source is implemented by each external data source (API / local
// mirror). Each source fetches its own format and maps it into Manga.
type Source interface {
	Name() string
	FetchAll(ctx context.Context) ([]models.Manga, error)
}

// Aggregator coordinates calls to multiple sources and merges them into
// a single canonical set of catalog entries.
type Aggregator struct {
	Sources []Source
}

func NewAggregator(sources ...Source) *Aggregator {
	return &Aggregator{Sources: sources}
}

// FetchAndMerge fetches from every source and merges entries that
// describe the same title, with deterministic conflict rules.
func (a *Aggregator) FetchAndMerge(ctx context.Context) ([]models.Manga, error) {
	byKey := make(map[string]models.Manga)

	for _, src := range a.Sources {
		log.Printf("[feed] fetching from %s", src.Name())
		mangas, err := src.FetchAll(ctx)
		if err != nil {
			log.Printf("[feed] source %s error: %v", src.Name(), err)
			// keep going: one broken source should not kill the import
			continue
		}

		for _, m := range mangas {
			key := normalizeKey(m.Title)
			if key == "" {
				continue
			}
			if existing, ok := byKey[key]; ok {
				byKey[key] = mergeManga(existing, m)
			} else {
				byKey[key] = m
			}
		}
	}

	result := make([]models.Manga, 0, len(byKey))
	for _, m := range byKey {
		result = append(result, m)
	}
	return result, nil
}

// SaveToCatalog upserts the merged set through the catalog repo so the
// folded search columns stay in sync.
func SaveToCatalog(ctx context.Context, repo *catalog.Repo, mangas []models.Manga) error {
	for _, m := range mangas {
		if err := repo.Upsert(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// normalizeKey groups entries that represent the same title coming from
// different sources: lowercase, drop non-letter/digit characters,
// compress separators.
func normalizeKey(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))

	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// mergeManga resolves conflicts between two sources describing the same
// title: the first source's id and title win, missing fields fill from
// the incoming entry, and the longer description is kept.
func mergeManga(base, incoming models.Manga) models.Manga {
	if base.Author == "" && incoming.Author != "" {
		base.Author = incoming.Author
	}
	if len(incoming.Description) > len(base.Description) {
		base.Description = incoming.Description
	}
	if base.CoverURL == "" && incoming.CoverURL != "" {
		base.CoverURL = incoming.CoverURL
	}
	if base.CoverThumbURL == "" && incoming.CoverThumbURL != "" {
		base.CoverThumbURL = incoming.CoverThumbURL
	}
	return base
}
