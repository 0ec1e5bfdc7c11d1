package main

import (
	"context"
	"flag"
	"log"
	"time"

	"mangarank/internal/catalog"
	"mangarank/internal/feed"
	"mangarank/pkg/database"
)

func main() {
	mirrorURL := flag.String("mirror", "http://localhost:9000", "local mirror base URL (empty to skip)")
	live := flag.Bool("live", false, "also fetch from the MangaDex API")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	var sources []feed.Source
	if *live {
		sources = append(sources, feed.NewMangaDexSource())
	}
	if *mirrorURL != "" {
		sources = append(sources, feed.NewMirrorSource(*mirrorURL))
	}
	if len(sources) == 0 {
		log.Fatal("no sources configured")
	}

	agg := feed.NewAggregator(sources...)

	mangas, err := agg.FetchAndMerge(ctx)
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}

	log.Printf("merged catalog entries: %d", len(mangas))

	if err := feed.SaveToCatalog(ctx, catalog.NewRepo(db), mangas); err != nil {
		log.Fatalf("save failed: %v", err)
	}

	log.Println("✅ catalog populated")
}
