package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"recipehub/internal/catalog"
	"recipehub/internal/diet"
	"recipehub/internal/recipe"
	"recipehub/pkg/database"
	"recipehub/pkg/logger"
	"recipehub/pkg/utils"
)

// sync-taxonomy fetches one catalog batch and makes sure every diet label it
// carries exists locally, then prints the sorted label list.
func main() {
	timeout := flag.Duration("timeout", 60*time.Second, "overall deadline")
	flag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.Must(cfg.Debug)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.MigrateContext(ctx, db); err != nil {
		log.Error("db migrate failed", logger.Error(err))
		os.Exit(1)
	}

	client := catalog.NewClient(catalog.Options{
		BaseURL: cfg.Catalog.BaseURL,
		APIKey:  cfg.Catalog.APIKey,
		Timeout: cfg.Catalog.Timeout,
		RPS:     cfg.Catalog.RPS,
		Burst:   cfg.Catalog.Burst,
	}, log)

	agg := recipe.NewAggregator(client, recipe.NewRepo(db), diet.NewReconciler(diet.NewRepo(db), log), log)
	agg.PageSize = cfg.Catalog.PageSize
	agg.CatalogTimeout = cfg.Catalog.Timeout

	labels, err := agg.DeriveAndReconcileTaxonomy(ctx)
	if err != nil {
		log.Error("taxonomy sync failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info("taxonomy synced", logger.Int("labels", len(labels)))
	fmt.Println(strings.Join(labels, "\n"))
}
