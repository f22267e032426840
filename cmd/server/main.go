package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/dmbarbosa/market-radar/internal/api"
	"github.com/dmbarbosa/market-radar/internal/config"
	"github.com/dmbarbosa/market-radar/internal/radar"
	"github.com/dmbarbosa/market-radar/internal/refresh"
	"github.com/dmbarbosa/market-radar/internal/render"
	"github.com/dmbarbosa/market-radar/internal/view"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	client := radar.NewClient(cfg.Upstream.BaseURL,
		radar.WithTimeout(time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second),
		radar.WithRateLimit(cfg.Upstream.RateLimitRPS),
	)

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("Failed to build renderer: %v", err)
	}

	store := view.NewStore()
	refresher := refresh.NewRefresher(client, store,
		cfg.Refresh.Limit,
		time.Duration(cfg.Refresh.IntervalSeconds)*time.Second,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Run(ctx)

	srv := api.NewServer(client, store, renderer, refresher)
	log.Printf("Dashboard gateway starting on port %s (upstream %s)...", port, cfg.Upstream.BaseURL)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
