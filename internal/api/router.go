package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"recipehub/internal/recipe"
	synchub "recipehub/internal/sync"
	"recipehub/pkg/logger"
)

const corsMaxAge = 12 * time.Hour

type Deps struct {
	DB            *sql.DB
	Recipes       *recipe.Handler
	Hub           *synchub.Hub
	AllowedOrigin string
	Log           logger.Logger
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{d.AllowedOrigin},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        corsMaxAge,
	}))
	router.Use(RequestID())
	router.Use(Logger(d.Log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		body := gin.H{"status": "ready", "db": "ok"}
		if d.Hub != nil {
			stats := d.Hub.Stats()
			body["tcp_clients"] = stats.TCPClients
			body["ws_clients"] = stats.WSClients
		}
		if err := d.DB.PingContext(ctx); err != nil {
			body["status"] = "not_ready"
			body["db"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	})

	if d.Hub != nil {
		router.GET("/ws", synchub.WSHandler(d.Hub, d.AllowedOrigin))
	}

	d.Recipes.RegisterRoutes(router.Group(""))
	return router
}
