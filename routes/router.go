package routes

import (
	"context"
	"net/http"
	"time"

	"civicreport-be/controllers"
	"civicreport-be/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Auth   *controllers.AuthController
	Issues *controllers.IssueController
	Images *controllers.ImageController

	Verifier     middlewares.TokenVerifier
	LoginLimiter *middlewares.LoginRateLimiter
	IssueLimiter gin.HandlerFunc

	Logger      zerolog.Logger
	CORSOrigins []string
	// HealthCheck reports whether the database is reachable. Optional.
	HealthCheck func(ctx context.Context) error
}

// NewRouter builds the engine with recovery, request logging, CORS and every
// route group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger(cfg.Logger))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", func(c *gin.Context) {
		if cfg.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Service is healthy and connected"})
	})

	issueLimiter := cfg.IssueLimiter
	if issueLimiter == nil {
		issueLimiter = func(c *gin.Context) { c.Next() }
	}
	loginLimiter := cfg.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = middlewares.NewLoginRateLimiter(10)
	}

	AuthRoutes(r, cfg.Auth, cfg.Verifier, loginLimiter)
	IssueRoutes(r, cfg.Issues, cfg.Verifier, issueLimiter)
	ImageRoutes(r, cfg.Images, cfg.Verifier)
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders: []string{middlewares.RequestIDHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
