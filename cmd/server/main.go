package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deckgest/deckgest/internal/api"
	"github.com/deckgest/deckgest/internal/assembler"
	"github.com/deckgest/deckgest/internal/caption"
	"github.com/deckgest/deckgest/internal/config"
	"github.com/deckgest/deckgest/internal/imagepipe"
	"github.com/deckgest/deckgest/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Captioning client; images get placeholder descriptions when no
	// endpoint is configured.
	var describer caption.Describer
	var captionClient *caption.Client
	if cfg.CaptionURL != "" {
		captionClient = caption.NewClient(cfg.CaptionURL, cfg.CaptionAPIKey, cfg.CaptionModel, cfg.CaptionTimeout)
		describer = captionClient
	} else {
		log.Warn("CAPTION_URL not set, images will use placeholder descriptions")
	}

	images := imagepipe.New(imagepipe.Config{
		MinBytes:   cfg.MinImageBytes,
		MaxBytes:   cfg.MaxImageBytes,
		Extensions: cfg.ExtensionSet(),
	}, describer, imagepipe.NewStore(cfg.ImageRoot), log)

	asm := assembler.New(assembler.Config{
		MaxTextBytes:  cfg.MaxTextBytes,
		MaxChunkBytes: cfg.MaxChunkBytes,
		OverlapBytes:  cfg.OverlapBytes,
	}, images, log)

	orch := pipeline.NewOrchestrator(pipeline.Config{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
	}, asm, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if captionClient != nil {
			captionClient.Close()
		}
	}()

	log.Info("starting deckgest", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
