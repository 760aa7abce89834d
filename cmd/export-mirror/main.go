package main

import (
	"context"
	"flag"
	"os"
	"time"

	"recipehub/internal/catalog"
	"recipehub/pkg/logger"
	"recipehub/pkg/utils"
)

// export-mirror fetches one live catalog batch and saves it for
// mirror-server.
func main() {
	var (
		outPath = flag.String("out", catalog.DefaultMirrorPath, "output JSON path")
		limit   = flag.Int("limit", 0, "records to fetch (default: configured page size)")
	)
	flag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		logger.Must(false).Error("config load failed", logger.Error(err))
		os.Exit(1)
	}
	log := logger.Must(cfg.Debug)
	defer func() { _ = log.Sync() }()

	pageSize := cfg.Catalog.PageSize
	if *limit > 0 {
		pageSize = *limit
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Catalog.Timeout+5*time.Second)
	defer cancel()

	client := catalog.NewClient(catalog.Options{
		BaseURL: cfg.Catalog.BaseURL,
		APIKey:  cfg.Catalog.APIKey,
		Timeout: cfg.Catalog.Timeout,
		RPS:     cfg.Catalog.RPS,
		Burst:   cfg.Catalog.Burst,
	}, log)

	records, err := client.FetchBatch(ctx, pageSize)
	if err != nil {
		log.Error("fetch failed", logger.Error(err))
		os.Exit(1)
	}

	if err := catalog.SaveMirror(*outPath, records); err != nil {
		log.Error("write failed", logger.String("path", *outPath), logger.Error(err))
		os.Exit(1)
	}

	log.Info("exported catalog batch", logger.Int("records", len(records)), logger.String("path", *outPath))
}
