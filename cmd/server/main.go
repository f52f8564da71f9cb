package main

import (
	"context"
	"log"

	"github.com/welearn/scholarquery/internal/api"
	"github.com/welearn/scholarquery/internal/config"
	"github.com/welearn/scholarquery/internal/db"
	"github.com/welearn/scholarquery/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx := context.Background()

	var src source.Source
	var store *db.Store

	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := db.ApplyMigrations(ctx, pool); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}

		store = db.NewStore(pool)
		src = store
	} else {
		src = source.NewClient(cfg.BackendBaseURL)
		log.Printf("Running storeless against backend %s", cfg.BackendBaseURL)
	}

	srv := api.NewServer(src, store, cfg)
	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Start(cfg.Port); err != nil {
		log.Fatal(err)
	}
}
