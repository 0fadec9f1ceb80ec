package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"censusapi/internal/api"
	"censusapi/internal/config"
	"censusapi/internal/ingest"
	"censusapi/internal/sdmx"
	"censusapi/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Fatalw("creating data directory", "error", err)
	}
	archive, err := store.OpenArchive(cfg.Database.Path)
	if err != nil {
		logger.Fatalw("opening archive", "error", err)
	}
	defer archive.Close()

	st := store.NewStore()

	// Serve archived data immediately; a fresh ingest still runs below.
	if datasets, err := archive.LoadAll(context.Background()); err != nil {
		logger.Errorw("loading archive", "error", err)
	} else {
		for _, ds := range datasets {
			st.Put(ds)
		}
		if len(datasets) > 0 {
			logger.Infow("restored datasets from archive", "count", len(datasets))
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	h := api.NewHandler(st, cfg.AgeBands, cfg.SexCategories)
	h.RegisterRoutes(e)

	// The API is live right away; dataset routes answer 503 until the
	// first dataset lands.
	go func() {
		client := sdmx.NewClient(cfg.Source.BaseURL, cfg.Source.Timeout)
		runner := ingest.NewRunner(client, st, archive, logger)
		t0 := time.Now()
		loaded := runner.Run(context.Background(), cfg.Datasets)
		logger.Infow("background ingest complete",
			"loaded", loaded, "elapsed", time.Since(t0))
	}()

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	logger.Infow("server starting", "addr", cfg.Server.Addr)
	e.Logger.Fatal(e.Start(cfg.Server.Addr))
}
