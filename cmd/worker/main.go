package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopradar/ads-monitor/internal/adslib"
	"github.com/shopradar/ads-monitor/internal/alerting"
	"github.com/shopradar/ads-monitor/internal/config"
	"github.com/shopradar/ads-monitor/internal/creative"
	"github.com/shopradar/ads-monitor/internal/history"
	"github.com/shopradar/ads-monitor/internal/pkg/distlock"
	"github.com/shopradar/ads-monitor/internal/pkg/httpretry"
	"github.com/shopradar/ads-monitor/internal/pkg/logger"
	"github.com/shopradar/ads-monitor/internal/repository/postgres"
	"github.com/shopradar/ads-monitor/internal/scoring"
	"github.com/shopradar/ads-monitor/internal/scraper"
	"github.com/shopradar/ads-monitor/internal/service/catalog"
	"github.com/shopradar/ads-monitor/internal/service/pageanalysis"
	"github.com/shopradar/ads-monitor/internal/service/siteanalysis"
	"github.com/shopradar/ads-monitor/internal/sitemap"
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
	fetcher := scraper.NewFetcher(
		cfg.Scraper.UserAgent,
		cfg.Scraper.HTMLTimeout(),
		cfg.Scraper.HeaderTimeout(),
		retryClient,
	)
	counter := sitemap.NewCounter(cfg.Scraper.UserAgent, cfg.Scraper.SitemapTimeout(), retryClient)

	dispatcher := worker.NewDispatcher(db)
	pageRepo := postgres.NewPageRepo(db)
	scanRepo := postgres.NewScanRepo(db)
	scoreRepo := postgres.NewScoreRepo(db)
	metricsRepo := postgres.NewMetricsRepo(db)
	alertRepo := postgres.NewAlertRepo(db)
	creativeRepo := postgres.NewCreativeRepo(db)
	productRepo := postgres.NewProductRepo(db)

	deps := worker.Deps{
		PageScanner:      pageanalysis.NewService(adsClient, scanRepo, dispatcher),
		SiteAnalyzer:     siteanalysis.NewService(fetcher, pageRepo, dispatcher),
		CatalogSizer:     catalog.NewService(counter, pageRepo).WithProducts(productRepo),
		ScoreComputer:    scoring.NewService(scoreRepo, alerting.NewDetector(alertRepo)),
		CreativeAnalyzer: creative.NewService(creativeRepo),
		Snapshotter:      history.NewService(metricsRepo),
		Enqueuer:         dispatcher,
	}

	hostname, _ := os.Hostname()
	workerID := fmt.Sprintf("%s-%s-%d", cfg.Worker.WorkerIDPrefix, hostname, os.Getpid())
	pool := worker.NewPool(db, workerID, cfg.Worker.NumWorkers, cfg.Worker.PollInterval())
	worker.RegisterHandlers(pool, deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recovery := worker.NewTaskRecovery(db)
	go recovery.Start(ctx)

	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("parse redis url: %v", err)
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()
	}
	lock := distlock.NewLock(redisClient, db, "snapshot_daily_metrics",
		time.Duration(cfg.Worker.SnapshotLockSeconds)*time.Second)
	scheduler := worker.NewSnapshotScheduler(dispatcher, lock, cfg.Worker.SnapshotHourUTC)
	go scheduler.Start(ctx)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		sig := <-stop
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	pool.Start(ctx)
}
