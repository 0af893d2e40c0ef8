package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmarden/textbookd/internal/api"
	"github.com/tmarden/textbookd/internal/assistant"
	"github.com/tmarden/textbookd/internal/chapters"
	"github.com/tmarden/textbookd/internal/config"
	"github.com/tmarden/textbookd/internal/kvstore"
	"github.com/tmarden/textbookd/internal/session"
	"github.com/tmarden/textbookd/internal/vocab"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state, err := kvstore.Open(cfg.StateDir)
	if err != nil {
		log.Error("open state store", "error", err)
		os.Exit(1)
	}

	vocabEntries := vocab.Default()
	if cfg.VocabConfig != "" {
		vocabEntries, err = vocab.LoadFile(cfg.VocabConfig)
		if err != nil {
			log.Error("load vocabulary", "path", cfg.VocabConfig, "error", err)
			os.Exit(1)
		}
	}
	vocabIndex := vocab.Build(vocabEntries)

	table := chapters.DefaultTable()
	if cfg.ChapterConfig != "" {
		table, err = chapters.LoadTableFile(cfg.ChapterConfig)
		if err != nil {
			log.Error("load chapter table", "path", cfg.ChapterConfig, "error", err)
			os.Exit(1)
		}
	}

	// A key saved at runtime wins over the environment.
	stats := assistant.NewLLMStats(time.Hour)
	geminiKey := func() string {
		if v, ok := state.Get(assistant.CredentialKey); ok && v != "" {
			return v
		}
		return cfg.GeminiAPIKey
	}
	remote := assistant.NewGeminiClient(geminiKey, cfg.GeminiModel, stats)

	var local *assistant.LocalBackend
	if cfg.LocalModelCmd != "" {
		local = assistant.NewLocalBackend(assistant.CommandLoader(cfg.LocalModelCmd))
		go func() {
			if err := local.Load(ctx); err != nil {
				log.Error("local model load failed", "error", err)
				return
			}
			log.Info("local model ready")
		}()
	}

	sessions := session.NewStore(cfg.SessionTTL)
	sessions.StartCleanup(ctx, cfg.CleanupInterval)

	srv := api.NewServer(sessions, state, remote, local, stats, vocabIndex, table, log, cfg)

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

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting textbookd", "port", cfg.Port, "chapters", len(table), "vocabulary_terms", len(vocabEntries))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
