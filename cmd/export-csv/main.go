package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mangarank/pkg/database"
)

func main() {
	var (
		mangaOut    = flag.String("manga", "data/manga.csv", "output CSV path for the catalog")
		rankingsOut = flag.String("rankings", "data/ranking_items.csv", "output CSV path for ranking items")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportCatalog(ctx, db, *mangaOut); err != nil {
		log.Fatalf("export catalog failed: %v", err)
	}
	if err := exportRankingItems(ctx, db, *rankingsOut); err != nil {
		log.Fatalf("export ranking items failed: %v", err)
	}

	log.Printf("✅ exported catalog to %s and ranking items to %s", *mangaOut, *rankingsOut)
}

func exportCatalog(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "title", "author", "description", "cover_url", "cover_thumb_url"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT id, title, author, description, cover_url, cover_thumb_url
        FROM manga
        ORDER BY title_lower
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, title, author, description, coverURL, coverThumbURL string
		if err := rows.Scan(&id, &title, &author, &description, &coverURL, &coverThumbURL); err != nil {
			return err
		}
		if err := w.Write([]string{id, title, author, description, coverURL, coverThumbURL}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportRankingItems(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"ranking_id", "manga_id", "position", "title", "author", "added_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT ranking_id, manga_id, position, title, author, added_at
        FROM ranking_items
        ORDER BY ranking_id, position
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rankingID, mangaID, title, author string
			position                          int
			addedAt                           time.Time
		)
		if err := rows.Scan(&rankingID, &mangaID, &position, &title, &author, &addedAt); err != nil {
			return err
		}
		if err := w.Write([]string{
			rankingID,
			mangaID,
			strconv.Itoa(position),
			title,
			author,
			addedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
