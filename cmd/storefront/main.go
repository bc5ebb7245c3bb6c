package main

import (
	"context"
	"io"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/http/server"
	"storefront/internal/repos"
	"storefront/internal/storage"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}

	app := server.New(cfg, db, store)
	log.Fatal(app.Listen(":" + cfg.Port))
}
