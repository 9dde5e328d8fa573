package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lukasweber/fbet/pkg/fbet/auth"
	"github.com/lukasweber/fbet/pkg/fbet/config"
	"github.com/lukasweber/fbet/pkg/fbet/database"
	"github.com/lukasweber/fbet/pkg/fbet/events"
	"github.com/lukasweber/fbet/pkg/fbet/groups"
	"github.com/lukasweber/fbet/pkg/fbet/logging"
	"github.com/lukasweber/fbet/pkg/fbet/models"
	"github.com/lukasweber/fbet/pkg/fbet/observability"
	"github.com/lukasweber/fbet/pkg/fbet/schedule"
	"github.com/lukasweber/fbet/pkg/fbet/tips"
)

// @title fbet API
// @version 1.0
// @description Group betting on fight events: groups, prediction events, tips and highscores.

// @host localhost:8000
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token. Format: "Bearer {token}"

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	auth.Configure(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLMinutes)*time.Minute)
	if cfg.JWT.Secret == config.DefaultJWTSecret {
		logger.Warn("using the default JWT secret, set FBET_JWT_SECRET in production")
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations completed", zap.String("path", cfg.Database.Path))

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(logger), observability.HTTPMetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	fetcher := schedule.NewFetcher(logger, time.Duration(cfg.Schedule.TimeoutSeconds)*time.Second)

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok", "service": "fbet"})
		})

		// Auth routes (public apart from /me)
		authHandler := auth.NewHandler(db, logger)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Schedule routes (public)
		scheduleHandler := schedule.NewHandler(fetcher)
		scheduleHandler.RegisterRoutes(api.Group("/schedule"))

		requireAuth := auth.Middleware(db)

		groupsHandler := groups.NewHandler(db, logger)
		groupsHandler.RegisterRoutes(api.Group("/groups", requireAuth))
		groupsHandler.RegisterMembershipRoutes(api.Group("/memberships", requireAuth))

		eventsHandler := events.NewHandler(db, logger)
		eventsHandler.RegisterRoutes(api.Group("/events", requireAuth))

		tipsHandler := tips.NewHandler(db, logger)
		tipsHandler.RegisterRoutes(api.Group("/tips", requireAuth))
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("starting fbet server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
