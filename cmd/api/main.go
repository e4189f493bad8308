package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/efinance/internal/api"
	"github.com/dvloznov/efinance/internal/config"
	"github.com/dvloznov/efinance/internal/csvimport"
	"github.com/dvloznov/efinance/internal/gcsuploader"
	"github.com/dvloznov/efinance/internal/importer"
	"github.com/dvloznov/efinance/internal/infra"
	"github.com/dvloznov/efinance/internal/logger"
)

func main() {
	cfg, err := config.Load(config.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Command-line flags override configuration
	var (
		port   = flag.Int("port", cfg.Port, "HTTP server port")
		store  = flag.String("store", cfg.Store, "Storage backend: bigquery or memory")
		bucket = flag.String("bucket", cfg.GCSBucket, "GCS bucket for archiving uploaded statements (optional)")
	)
	flag.Parse()
	cfg.Port, cfg.Store, cfg.GCSBucket = *port, *store, *bucket
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	// Amounts are sent to the web client as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	repo, err := infra.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("Failed to open store")
	}
	defer repo.Close()
	log.Info().Str("store", cfg.Store).Msg("Store ready")

	var archiver gcsuploader.Archiver
	if cfg.GCSBucket == "" {
		log.Warn().Msg("No GCS bucket configured - uploaded statements will not be archived")
	} else {
		storageSvc, err := gcsuploader.NewStorageService(ctx, cfg.GCSBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer storageSvc.Close()
		archiver = storageSvc
	}

	normalizer := csvimport.NewNormalizer(csvimport.Options{MonthFirst: !cfg.DateDayFirst})
	importSvc := importer.NewService(repo, repo, archiver, normalizer, log)

	handler := api.NewRouter(api.Deps{
		Records:     repo,
		Users:       repo,
		Importer:    importSvc,
		CORSOrigins: cfg.AllowedOrigins(),
		Log:         log,
	})

	addr := ":" + strconv.Itoa(cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
