package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"mangarank/internal/catalog"
	"mangarank/pkg/database"
	"mangarank/pkg/models"
)

func main() {
	in := flag.String("manga", "data/manga.csv", "input CSV path for the catalog")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	n, err := importCatalog(ctx, catalog.NewRepo(db), *in)
	if err != nil {
		log.Fatalf("import catalog failed: %v", err)
	}

	log.Printf("✅ imported %d catalog entries from %s", n, *in)
}

func importCatalog(ctx context.Context, repo *catalog.Repo, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, err
	}

	imported := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, err
		}
		if len(row) == 0 {
			continue
		}

		m := models.Manga{
			ID:            valueAt(header, row, "id"),
			Title:         valueAt(header, row, "title"),
			Author:        valueAt(header, row, "author"),
			Description:   valueAt(header, row, "description"),
			CoverURL:      valueAt(header, row, "cover_url"),
			CoverThumbURL: valueAt(header, row, "cover_thumb_url"),
		}
		if m.ID == "" || m.Title == "" {
			continue
		}

		if err := repo.Upsert(ctx, m); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
