package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledgerlens/internal/analyzer/gemini"
	"ledgerlens/internal/config"
	"ledgerlens/internal/handler"
	"ledgerlens/internal/repository/postgres"
	"ledgerlens/internal/router"
	"ledgerlens/internal/service"
	s3storage "ledgerlens/internal/storage/s3"
	"ledgerlens/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	tokenRepo := postgres.NewTokenRepo(db)

	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	mediaAnalyzer := gemini.NewAnalyzer(&cfg.Analyzer)
	pipeline := validator.NewPipeline()

	orchestrator := service.NewOrchestrator(cfg, tokenRepo, s3Client, mediaAnalyzer, pipeline)
	sweeper := service.NewExpirySweeper(tokenRepo, cfg.Worker.SweepInterval)

	maxUploadMB := cfg.S3.MaxImageSizeMB
	if cfg.S3.MaxVideoSizeMB > maxUploadMB {
		maxUploadMB = cfg.S3.MaxVideoSizeMB
	}
	receiptH := handler.NewReceiptHandler(orchestrator, maxUploadMB*1024*1024)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(cfg, receiptH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go sweeper.Start(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		stopSweeper()
		return err
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		log.Printf("worker drain: %v", err)
	}

	log.Printf("shutdown complete")
	return nil
}
