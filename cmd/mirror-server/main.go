package main

import (
	"flag"
	"os"

	"github.com/gin-gonic/gin"

	"recipehub/internal/catalog"
	"recipehub/pkg/logger"
)

// mirror-server serves a saved catalog batch at the catalog's search path so
// the api-server can run offline with RECIPEHUB_CATALOG_URL pointed here.
func main() {
	addr := flag.String("addr", ":9000", "listen address")
	dataPath := flag.String("data", catalog.DefaultMirrorPath, "mirror JSON path")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	log := logger.Must(*debug)
	defer func() { _ = log.Sync() }()

	if !*debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/recipes/complexSearch", catalog.MirrorHandler(*dataPath, log))

	log.Info("mirror-server listening", logger.String("addr", *addr), logger.String("data", *dataPath))
	if err := router.Run(*addr); err != nil {
		log.Error("mirror-server stopped", logger.Error(err))
		os.Exit(1)
	}
}
