package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/adapters/transport/http/middleware"
	"github.com/Miraines/MoonyAndStarry/user-service/internal/infra/ratelimit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handler  *Handler
	Verifier middleware.TokenVerifier
	// Health reports nil when every dependency is reachable.
	Health   func(ctx context.Context) error
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger

	AllowedOrigins   []string
	AllowCredentials bool
	RateLimitRPS     float64
	RateLimitBurst   int
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Logger))
	router.Use(middleware.NewHTTPRateLimitPerIP(cfg.RateLimitRPS, cfg.RateLimitBurst, ratelimit.DefaultSize, ratelimit.DefaultIdle))
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(cfg.AllowedOrigins, cfg.AllowCredentials)))
	}

	auth := router.Group("/auth")
	auth.POST("/registration", cfg.Handler.Register)
	auth.POST("/login", cfg.Handler.Login)

	router.GET("/users/me", middleware.RequireBearer(cfg.Verifier), cfg.Handler.Me)

	router.GET("/health", func(c *gin.Context) {
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "time": time.Now().Unix()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	return router
}

func corsConfig(origins []string, credentials bool) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
			middleware.RequestIDHeader,
		},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: credentials,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
