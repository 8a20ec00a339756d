package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/ladle/internal/auth"
	"github.com/dukerupert/ladle/internal/categorize"
	"github.com/dukerupert/ladle/internal/config"
	"github.com/dukerupert/ladle/internal/database"
	"github.com/dukerupert/ladle/internal/list"
	"github.com/dukerupert/ladle/internal/logging"
	"github.com/dukerupert/ladle/internal/push"
	"github.com/dukerupert/ladle/internal/rtdb"
	"github.com/dukerupert/ladle/internal/server"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store, err := rtdb.Open(cfg.RedisURL, logger.With("component", "rtdb"))
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var categorizer list.Categorizer
	if cfg.CategorizerAPIKey != "" {
		categorizer = categorize.NewClient(categorize.Config{
			BaseURL: cfg.CategorizerURL,
			APIKey:  cfg.CategorizerAPIKey,
			Model:   cfg.CategorizerModel,
			Timeout: cfg.CategorizerTimeout,
		})
	} else {
		logger.Info("no categorizer API key configured, using keyword fallback")
		categorizer = categorize.NewKeywordCategorizer()
	}

	var pushSvc *push.Service
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, logger)
	} else {
		logger.Info("push notifications disabled, no VAPID keys configured")
	}

	srv := server.New(db, store, auth.NewVerifier(cfg.JWTSecret), categorizer, pushSvc, logger)

	// Evict expired rate-limit windows so the per-IP map stays bounded.
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go srv.RateLimiter().Run(cleanupCtx, 10*time.Minute)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("ladle listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
