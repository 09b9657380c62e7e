package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roam-social/roam-feed/internal/community"
	corecfg "github.com/roam-social/roam-feed/internal/core/config"
	"github.com/roam-social/roam-feed/internal/core/storage/postgres"
	"github.com/roam-social/roam-feed/internal/core/taxonomy"
	"github.com/roam-social/roam-feed/internal/feed"
	"github.com/roam-social/roam-feed/internal/identity"
	"github.com/roam-social/roam-feed/internal/migrations"
	"github.com/roam-social/roam-feed/internal/normalize"
	"github.com/roam-social/roam-feed/internal/provider"
	"github.com/roam-social/roam-feed/internal/server"
)

func main() {
	configPath := flag.String("config", "roamfeed.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "server", cfg.Server, "feed", cfg.Feed)

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.Run(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Initialize Taxonomy and Normalizer
	mapper, err := taxonomy.NewMapperFromDir(cfg.Taxonomy.OverlayDir)
	if err != nil {
		slog.Error("Failed to load taxonomy overlays", "dir", cfg.Taxonomy.OverlayDir, "error", err)
		os.Exit(1)
	}
	normalizer := normalize.New(mapper)

	// 4. Initialize Provider Client
	providerClient := provider.NewHTTPClient(provider.HTTPClientConfig{
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		PageSize:   cfg.Provider.PageSize,
		Timeout:    cfg.Provider.EffectiveTimeout(),
		CacheTTL:   cfg.Provider.EffectiveCacheTTL(),
		DailyQuota: cfg.Provider.DailyQuota,
	})

	// 5. Initialize Feed (one engine per authenticated identity)
	communityClient := community.NewStoreClient(dbAdapter)
	engineCfg := feed.Config{
		DebounceInterval:   time.Duration(cfg.Feed.DebounceMS) * time.Millisecond,
		DefaultRadiusMiles: cfg.Feed.DefaultRadiusMiles,
		LoadTimeout:        cfg.Feed.EffectiveLoadTimeout(),
	}
	feedSvc := feed.NewService(func(userID string) *feed.Engine {
		return feed.NewEngine(feed.Deps{
			Identity:   identity.Static(userID),
			Provider:   providerClient,
			Community:  communityClient,
			Normalizer: normalizer,
		}, engineCfg)
	}, dbAdapter)
	defer feedSvc.Close()

	// 6. Initialize Community Intake
	communitySvc := community.NewService(dbAdapter, cfg.Server.MaxBodySizeMB)

	// 7. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter, cfg.Server.Mode)
	srv.Mount(feedSvc, communitySvc)

	// 8. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
