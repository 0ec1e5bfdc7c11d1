package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"mangarank/internal/catalog"
	"mangarank/pkg/database"
	"mangarank/pkg/models"
)

// MirrorTitle is the shape mirror-server serves and feed-import reads.
type MirrorTitle struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Creator  string `json:"creator"`
	Summary  string `json:"summary"`
	ImageURL string `json:"image_url"`
	ThumbURL string `json:"thumb_url"`
}

func main() {
	var (
		outPath = flag.String("out", "data/mirror.json", "output JSON path")
		limit   = flag.Int("limit", 200, "how many titles to export")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := catalog.NewRepo(db)
	var mangas []models.Manga
	for len(mangas) < *limit {
		page := *limit - len(mangas)
		if page > 100 {
			page = 100
		}
		batch, err := repo.List(ctx, catalog.ListQuery{Limit: page, Offset: len(mangas)})
		if err != nil {
			log.Fatalf("query failed: %v", err)
		}
		if len(batch) == 0 {
			break
		}
		mangas = append(mangas, batch...)
	}

	out := make([]MirrorTitle, 0, len(mangas))
	for _, m := range mangas {
		out = append(out, MirrorTitle{
			Slug:     m.ID,
			Name:     m.Title,
			Creator:  m.Author,
			Summary:  m.Description,
			ImageURL: m.CoverURL,
			ThumbURL: m.CoverThumbURL,
		})
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatalf("mkdir failed: %v", err)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("marshal failed: %v", err)
	}

	if err := os.WriteFile(*outPath, b, 0o644); err != nil {
		log.Fatalf("write failed: %v", err)
	}

	log.Printf("✅ exported %d titles to %s", len(out), *outPath)
}
