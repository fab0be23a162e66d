// internal/api/router.go
package api

import (
	"context"
	"net/http"
	"time"

	"stayease/internal/app"
	"stayease/internal/common/config"
	"stayease/internal/common/logger"
	"stayease/internal/common/observability"
	"stayease/internal/kvstore"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps are the collaborators of the HTTP router. Observability and
// Ready checks are optional.
type RouterDeps struct {
	Controller    *app.Controller
	Observability *observability.Observability
	// Ready checks are run by /ready; any error makes the service unready.
	Ready map[string]kvstore.Pinger
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(cfg *config.Config, deps RouterDeps, log logger.Logger) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	log = log.WithFields(map[string]interface{}{"component": "http"})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(tracing(deps.Observability))
	r.Use(cors.New(corsConfig(cfg.HTTP.CORSOrigins)))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", readiness(deps.Ready))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := NewHandler(deps.Controller, config.GetDuration(cfg.HTTP.WriteTimeout))
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func readiness(checks map[string]kvstore.Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
