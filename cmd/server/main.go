package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go-pos-terminal/internal/ai"
	"go-pos-terminal/internal/app"
	"go-pos-terminal/internal/auth"
	"go-pos-terminal/internal/config"
	"go-pos-terminal/internal/database"
	"go-pos-terminal/internal/handlers"
	"go-pos-terminal/internal/imaging"
	"go-pos-terminal/internal/logger"
	"go-pos-terminal/internal/middleware"
	"go-pos-terminal/internal/storage"
	"go-pos-terminal/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	terminal := utils.TerminalID()
	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	pos := app.New(storage.NewGormKV(db), storage.NewGormBlobs(db), app.Options{
		Currency:          cfg.CurrencySymbol,
		NotificationLimit: cfg.NotificationLimit,
		Image: imaging.Options{
			MaxDimension: cfg.ImageMaxDimension,
			Quality:      cfg.ImageQuality,
			MaxBytes:     cfg.MaxImageBytes,
		},
		SeedDefaults: cfg.SeedDefaults,
		Terminal:     terminal,
		Printer:      app.LogPrinter{Shop: cfg.ShopName, Currency: cfg.CurrencySymbol, Location: loc},
		Now:          now,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pos.Load(ctx); err != nil {
		log.WithError(err).Fatal("failed to load terminal data")
	}

	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.AdminPIN, cfg.AdminPINHash, terminal)
	if err != nil {
		log.WithError(err).Fatal("invalid admin credentials")
	}
	agent := ai.NewAgent(cfg.GeminiAPIKey, cfg.GeminiModel, pos)
	if !agent.Enabled() {
		log.Info("GEMINI_API_KEY is not set, the assistant is disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.NewServer(pos, authManager, handlers.Options{
		Agent:          agent,
		MaxUploadBytes: cfg.MaxImageBytes,
		Usage: func(ctx context.Context) (*database.StorageUsage, error) {
			return database.GetStorageUsage(db.WithContext(ctx))
		},
	}).Register(r)

	// SPA: serve the built frontend and let it handle client-side routes.
	r.Static("/assets", filepath.Join(cfg.WebDir, "assets"))
	r.NoRoute(func(c *gin.Context) {
		c.File(filepath.Join(cfg.WebDir, "index.html"))
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithFields(log.Fields{"url": cfg.BaseURL, "terminal": terminal}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
