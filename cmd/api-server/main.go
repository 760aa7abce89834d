package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"recipehub/internal/api"
	"recipehub/internal/catalog"
	"recipehub/internal/diet"
	"recipehub/internal/recipe"
	synchub "recipehub/internal/sync"
	"recipehub/pkg/database"
	"recipehub/pkg/logger"
	"recipehub/pkg/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		logger.Must(false).Error("config load failed", logger.Error(err))
		os.Exit(1)
	}

	log := logger.Must(cfg.Debug)
	defer func() { _ = log.Sync() }()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	dbCfg := database.DefaultConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		log.Error("db open failed", logger.String("path", dbCfg.Path), logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Error("db migrate failed", logger.Error(err))
		os.Exit(1)
	}

	if cfg.Catalog.APIKey == "" {
		log.Warn("catalog api key not set; upstream requests will likely be rejected")
	}

	hub := synchub.NewHub(log)
	tcpSrv := synchub.NewServer(cfg.SyncAddr, hub)

	client := catalog.NewClient(catalog.Options{
		BaseURL: cfg.Catalog.BaseURL,
		APIKey:  cfg.Catalog.APIKey,
		Timeout: cfg.Catalog.Timeout,
		RPS:     cfg.Catalog.RPS,
		Burst:   cfg.Catalog.Burst,
	}, log)

	dietRepo := diet.NewRepo(db)
	agg := recipe.NewAggregator(client, recipe.NewRepo(db), diet.NewReconciler(dietRepo, log), log)
	agg.PageSize = cfg.Catalog.PageSize
	agg.CatalogTimeout = cfg.Catalog.Timeout
	agg.Events = hub

	router := api.NewRouter(api.Deps{
		DB:            db,
		Recipes:       recipe.NewHandler(agg, dietRepo, log),
		Hub:           hub,
		AllowedOrigin: cfg.AllowedOrigin,
		Log:           log,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("HTTP API server listening", logger.String("addr", cfg.HTTPAddr), logger.String("db", dbCfg.Path))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown error", logger.Error(err))
	}
	if err := tcpSrv.Close(); err != nil {
		log.Warn("tcp shutdown error", logger.Error(err))
	}

	wg.Wait()
	log.Info("servers stopped")
}
