package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"recipehub/internal/catalog"
	"recipehub/internal/diet"
	"recipehub/internal/recipe"
	"recipehub/pkg/database"
	"recipehub/pkg/logger"
	"recipehub/pkg/models"
	"recipehub/pkg/utils"
)

// export-csv writes the unioned, name-sorted recipe list to a CSV file.
func main() {
	outPath := flag.String("out", "data/recipes.csv", "output CSV path")
	flag.Parse()

	cfg, err := utils.LoadConfig()
	if err != nil {
		logger.Must(false).Error("config load failed", logger.Error(err))
		os.Exit(1)
	}
	log := logger.Must(cfg.Debug)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
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

	recipes, err := agg.ListSortedByName(ctx)
	if err != nil {
		log.Error("list recipes failed", logger.Error(err))
		os.Exit(1)
	}

	if err := writeFile(*outPath, recipes); err != nil {
		log.Error("export failed", logger.String("path", *outPath), logger.Error(err))
		os.Exit(1)
	}

	log.Info("exported recipes", logger.Int("recipes", len(recipes)), logger.String("path", *outPath))
}

func writeFile(path string, recipes []models.Recipe) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := recipe.WriteCSV(f, recipes); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
