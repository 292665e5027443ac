package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	webAdapter "branch-supply/internal/adapters/web"
	"branch-supply/internal/app"
	"branch-supply/internal/cache"
	"branch-supply/internal/config"
	"branch-supply/internal/core"
	"branch-supply/internal/db"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	statsCache := cache.New(cfg.RedisAddr)
	defer statsCache.Close()

	orderService := core.NewOrderService(pool)
	resolver := core.NewResolver(pool)
	analytics := core.NewAnalyticsService(orderService, resolver, statsCache)
	reports := core.NewReportService(orderService, resolver)

	svc := app.NewAppService(orderService, analytics, reports)
	handler := webAdapter.NewHandler(svc, pool, cfg.JWTSecret, cfg.AllowedOrigins, cfg.DevMode)

	log.Printf("server starting on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
