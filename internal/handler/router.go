package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"venuematch/internal/service"
)

// RouterConfig carries the HTTP surface settings
type RouterConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
	// RateLimiter guards the match endpoint; nil disables limiting
	RateLimiter *RateLimiter
	Version     string
	BuildTime   string
	GitCommit   string
	Logger      *zap.Logger
}

// NewRouter wires every handler onto a gin engine
func NewRouter(matchService *service.MatchService, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitCSV(cfg.AllowedOrigins, "*")
	corsConfig.AllowMethods = splitCSV(cfg.AllowedMethods, "GET,POST,PUT,DELETE,OPTIONS")
	corsConfig.AllowHeaders = splitCSV(cfg.AllowedHeaders, "Content-Type,Authorization,"+UserIDHeader)
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "venuematch",
			"version":    cfg.Version,
			"build_time": cfg.BuildTime,
			"git_commit": cfg.GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    cfg.Version,
			"build_time": cfg.BuildTime,
			"git_commit": cfg.GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	matchHandler := NewMatchHandler(matchService)
	stationHandler := NewStationHandler(matchService)
	decisionHandler := NewDecisionHandler(matchService)

	matchChain := []gin.HandlerFunc{}
	if cfg.RateLimiter != nil {
		matchChain = append(matchChain, cfg.RateLimiter.Middleware("match"))
	}
	matchChain = append(matchChain, matchHandler.Match)

	// API routes
	apiV1 := router.Group("/api/v1")
	{
		// Match endpoints
		apiV1.POST("/match", matchChain...)
		apiV1.POST("/match/plan", matchHandler.Plan)

		// Venue endpoints
		apiV1.GET("/venues/:id", matchHandler.GetVenue)
		apiV1.GET("/venues/:id/similar", matchHandler.Similar)

		// Station endpoints
		apiV1.GET("/stations", stationHandler.List)
		apiV1.GET("/stations/:station/exists", stationHandler.Verify)
		apiV1.GET("/stations/:station/drink-types", stationHandler.DrinkTypes)
		apiV1.GET("/stations/:station/dishes/:dish", stationHandler.Dish)
		apiV1.GET("/stations/:station/theme-cafes", stationHandler.ThemeCafes)

		// Decision endpoints
		apiV1.POST("/decisions/:id/winner", decisionHandler.SetWinner)
		apiV1.GET("/users/:user_id/stations", decisionHandler.StationHistory)
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func splitCSV(value, fallback string) []string {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
