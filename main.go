package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LexiconIndonesia/data-miner-service/common/config"
	"github.com/LexiconIndonesia/data-miner-service/common/db"
	"github.com/LexiconIndonesia/data-miner-service/common/logger"
	"github.com/LexiconIndonesia/data-miner-service/common/messaging"
	"github.com/LexiconIndonesia/data-miner-service/common/storage"
	"github.com/LexiconIndonesia/data-miner-service/miner"
	"github.com/LexiconIndonesia/data-miner-service/miner/browsersearch"
	"github.com/LexiconIndonesia/data-miner-service/miner/fetch"
	"github.com/LexiconIndonesia/data-miner-service/miner/queryopt"
	"github.com/LexiconIndonesia/data-miner-service/miner/ratelimit"
	"github.com/LexiconIndonesia/data-miner-service/miner/serp"

	"github.com/rs/zerolog/log"

	"github.com/joho/godotenv"
)

func main() {
	// INITIATE CONFIGURATION
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file, using environment variables")
	}

	logger.Setup()

	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// INITIATE DATABASES
	dbConn, err := db.SetupDatabase(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup database")
	}
	defer dbConn.Close()

	// INITIATE NATS CLIENT
	natsClient, err := messaging.SetupNatsClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup NATS client")
	}
	defer natsClient.Close()

	// gcs
	gcsStorage, err := storage.NewGCSStorage(ctx, storage.GCSConfig{
		ProjectID:       cfg.GCS.ProjectID,
		CredentialsFile: cfg.GCS.CredentialsFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup GCS storage")
	}
	storage.SetStorageClient(gcsStorage)

	// MINING PIPELINE DEPENDENCIES
	browser, err := browsersearch.NewClient(browsersearch.Config{
		Headless:    cfg.Browser.Headless,
		ProxyURL:    firstProxyURL(cfg.Browser.ProxyFile),
		ProxyUser:   cfg.Browser.ProxyUser,
		ProxyPass:   cfg.Browser.ProxyPass,
		NavTimeout:  45 * time.Second,
		DebugDir:    cfg.Browser.DebugDir,
		MaxCaptchas: 3,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to launch headless browser")
	}
	defer browser.Close()

	var proxies *fetch.ProxySelector
	if cfg.Browser.ProxyFile != "" {
		proxies, err = fetch.LoadProxies(cfg.Browser.ProxyFile)
		if err != nil {
			log.Warn().Err(err).Str("file", cfg.Browser.ProxyFile).Msg("Could not load proxies, fetching directly")
		}
	}

	keyPool := loadSerpKeys(cfg)
	var serpClient *serp.Client
	if keyPool != nil && keyPool.Enabled() > 0 {
		serpClient = serp.NewClient(serp.Config{
			BaseURL: cfg.Serp.BaseURL,
			Results: int(cfg.Serp.ResultCount),
		}, keyPool)
	} else {
		log.Warn().Msg("No SERP API keys configured, searches run on the browser only")
	}

	optimizer, err := queryopt.New(cfg.LLM.ApiKey, cfg.LLM.Model, queryopt.WithTemperature(cfg.LLM.Temperature))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize query optimizer")
	}

	// Shared limiter so every job's fetches observe the same per-domain
	// pacing state.
	limiter := ratelimit.New(ratelimit.DefaultConfig())
	progress := miner.NewDBProgress(dbConn)

	factory := func(job miner.Job) *miner.Orchestrator {
		fetcher := fetch.NewClient(fetch.Config{
			MaxRetries: 3,
			Timeout:    20 * time.Second,
			Country:    job.Country,
		}, limiter, proxies, browser)

		var api miner.APISearcher
		if serpClient != nil {
			api = serpClient
		}
		return miner.NewOrchestrator(optimizer, browser, api, fetcher, limiter, progress)
	}

	runner, err := miner.NewRunner(miner.RunnerConfig{
		Workers:    int(cfg.Miner.MaxWorkers),
		QueueDepth: 32,
		JobTimeout: time.Duration(cfg.Miner.JobTimeoutMin) * time.Minute,
		Bucket:     cfg.GCS.Bucket,
	}, dbConn, natsClient, gcsStorage, factory)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create job runner")
	}

	if err := runner.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job runner")
	}
	defer runner.Stop()

	// INITIATE SERVER
	server, err := NewAppHttpServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create the server")
	}

	server.SetDB(dbConn)
	server.SetNatsClient(natsClient)
	server.setupRoute()

	go func() {
		if err := server.start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			cancel()
		}
	}()

	log.Info().Str("address", cfg.Listen.Addr()).Msg("Server started successfully")

	// Wait for shutdown signal
	select {
	case <-shutdown:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server gracefully stopped")
}

// loadSerpKeys builds the key pool from the inline env list or the key file.
func loadSerpKeys(cfg config.Config) *serp.KeyPool {
	if cfg.Serp.Keys != "" {
		return serp.NewKeyPool(strings.Split(cfg.Serp.Keys, ","))
	}
	if cfg.Serp.KeyFile != "" {
		pool, err := serp.LoadKeyPool(cfg.Serp.KeyFile)
		if err != nil {
			log.Warn().Err(err).Str("file", cfg.Serp.KeyFile).Msg("Could not load SERP key file")
			return nil
		}
		return pool
	}
	return nil
}

// firstProxyURL picks one upstream proxy for the browser process. Chromium
// takes its proxy at launch, so the browser cannot rotate per request the
// way the HTTP fetcher does.
func firstProxyURL(path string) string {
	if path == "" {
		return ""
	}
	proxies, err := fetch.LoadProxies(path)
	if err != nil {
		return ""
	}
	u, ok := proxies.Pick().Get()
	if !ok {
		return ""
	}
	return u.String()
}
