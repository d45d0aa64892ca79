package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/banshee-data/lascloud/internal/catalog"
	"github.com/banshee-data/lascloud/internal/viewer"
)

var (
	devMode   = flag.Bool("dev", false, "Run in dev mode")
	listen    = flag.String("listen", "", "Listen address (overrides LASCLOUD_LISTEN)")
	dbPath    = flag.String("db", "", "Catalog database path (overrides LASCLOUD_DB)")
	lasFiles  = flag.String("las", "", "Comma-separated LAS files to preload")
	noCatalog = flag.Bool("no-catalog", false, "Run without the SQLite catalog")
)

func main() {
	flag.Parse()

	// A .env file is optional; the environment wins when both are set.
	if err := godotenv.Load(); err == nil {
		log.Print("loaded configuration from .env")
	}

	cfg, err := viewer.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *devMode {
		cfg.DevMode = true
	}

	var db *catalog.DB
	if !*noCatalog {
		db, err = catalog.NewDB(cfg.DBPath)
		if err != nil {
			log.Fatalf("failed to open catalog: %v", err)
		}
		defer db.Close()
	}

	ws := viewer.NewWebServer(viewer.WebServerConfig{
		Config: cfg,
		DB:     db,
	})

	// Files named by -las and remaining arguments are preloaded.
	preload := flag.Args()
	if *lasFiles != "" {
		preload = append(strings.Split(*lasFiles, ","), preload...)
	}
	for _, path := range preload {
		if _, err := ws.LoadFile(path); err != nil {
			log.Fatalf("failed to load %s: %v", path, err)
		}
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ws.Start(ctx); err != nil {
			log.Printf("viewer server error: %v", err)
		}
	}()

	wg.Wait()
}
