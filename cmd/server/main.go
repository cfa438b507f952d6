package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopradar/ads-monitor/internal/adslib"
	"github.com/shopradar/ads-monitor/internal/api"
	"github.com/shopradar/ads-monitor/internal/archive"
	"github.com/shopradar/ads-monitor/internal/config"
	"github.com/shopradar/ads-monitor/internal/creative"
	"github.com/shopradar/ads-monitor/internal/history"
	"github.com/shopradar/ads-monitor/internal/pkg/httpretry"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
	"github.com/shopradar/ads-monitor/internal/ranking"
	"github.com/shopradar/ads-monitor/internal/repository/postgres"
	"github.com/shopradar/ads-monitor/internal/service/keywordsearch"
	"github.com/shopradar/ads-monitor/internal/service/watchlist"
	"github.com/shopradar/ads-monitor/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))

	db, err := postgres.Open(cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	retryClient := httpretry.NewRetryClient(nil, 3)
	adsClient := adslib.NewClient(
		cfg.AdsLibrary.BaseURL,
		cfg.AdsLibrary.APIVersion,
		cfg.AdsLibrary.AccessToken,
		cfg.AdsLibrary.PageLimit,
		retryClient,
	)

	dispatcher := worker.NewDispatcher(db)

	pageRepo := postgres.NewPageRepo(db)
	keywordRepo := postgres.NewKeywordRepo(db)
	scanRepo := postgres.NewScanRepo(db)
	scoreRepo := postgres.NewScoreRepo(db)
	metricsRepo := postgres.NewMetricsRepo(db)
	alertRepo := postgres.NewAlertRepo(db)
	creativeRepo := postgres.NewCreativeRepo(db)
	rankedRepo := postgres.NewRankedRepo(db)
	watchlistRepo := postgres.NewWatchlistRepo(db)
	productRepo := postgres.NewProductRepo(db)

	searchSvc := keywordsearch.NewService(adsClient, keywordRepo, dispatcher)
	if cfg.Archive.Enabled {
		arch, err := archive.NewS3Archive(context.Background(), cfg.Archive.S3Bucket, cfg.Archive.Region)
		if err != nil {
			log.Fatalf("init archive: %v", err)
		}
		searchSvc.WithArchiver(arch)
		logger.Info("raw payload archive enabled", "bucket", cfg.Archive.S3Bucket)
	}

	handlers := api.NewHandlers(
		searchSvc,
		ranking.NewService(rankedRepo),
		history.NewService(metricsRepo),
		creative.NewService(creativeRepo),
		watchlist.NewService(watchlistRepo, dispatcher),
		pageRepo,
		scanRepo,
		scoreRepo,
		alertRepo,
		productRepo,
		keywordRepo,
		dispatcher,
		db,
	)

	srv := api.NewServer(cfg.Server, handlers)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "host", cfg.Server.GetHost(), "port", cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Fatalf("server: %v", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
