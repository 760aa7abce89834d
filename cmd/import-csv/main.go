package main

import (
	"context"
	"flag"
	"os"
	"time"

	"recipehub/internal/diet"
	"recipehub/internal/recipe"
	"recipehub/pkg/database"
	"recipehub/pkg/logger"
	"recipehub/pkg/models"
)

// import-csv creates local recipes from a CSV in the export-csv layout.
// Catalog rows are skipped unless -all is set.
func main() {
	var (
		inPath      = flag.String("in", "data/recipes.csv", "input CSV path")
		all         = flag.Bool("all", false, "also import rows exported from the catalog")
		createDiets = flag.Bool("create-diets", false, "create missing diet labels before linking")
		debug       = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	log := logger.Must(*debug)
	defer func() { _ = log.Sync() }()

	f, err := os.Open(*inPath)
	if err != nil {
		log.Error("open failed", logger.String("path", *inPath), logger.Error(err))
		os.Exit(1)
	}
	rows, err := recipe.ReadCSV(f)
	_ = f.Close()
	if err != nil {
		log.Error("parse failed", logger.String("path", *inPath), logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Error("db migrate failed", logger.Error(err))
		os.Exit(1)
	}

	dietRepo := diet.NewRepo(db)
	reconciler := diet.NewReconciler(dietRepo, log)
	agg := recipe.NewAggregator(nil, recipe.NewRepo(db), reconciler, log)

	var created, skipped, partial int
	for _, row := range rows {
		if !*all && row.Source == models.SourceCatalog {
			skipped++
			continue
		}

		if *createDiets && len(row.Diets) > 0 {
			if _, err := reconciler.Reconcile(ctx, row.Diets); err != nil {
				log.Error("create diets failed", logger.Int("line", row.Line), logger.Error(err))
				os.Exit(1)
			}
		}

		res, err := agg.CreateRecipeWithDiets(ctx, row.Recipe, row.Diets)
		if res == nil {
			log.Error("create recipe failed", logger.Int("line", row.Line), logger.Error(err))
			os.Exit(1)
		}
		created++
		if err != nil {
			partial++
			log.Warn("recipe imported with diet failures",
				logger.Int("line", row.Line),
				logger.Int64("recipe_id", res.Recipe.ID),
				logger.Error(err),
			)
		}
	}

	log.Info("import finished",
		logger.Int("created", created),
		logger.Int("skipped", skipped),
		logger.Int("partial", partial),
	)
}
