package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmorhan/filingsift/internal/api"
	"github.com/dmorhan/filingsift/internal/config"
	"github.com/dmorhan/filingsift/internal/parse"
	"github.com/dmorhan/filingsift/internal/pipeline"
	"github.com/dmorhan/filingsift/internal/report"
	"github.com/dmorhan/filingsift/internal/store"
	"github.com/dmorhan/filingsift/internal/summarize"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // .env is optional

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	heur := parse.DefaultHeuristics()
	if cfg.HeuristicsFile != "" {
		var err error
		heur, err = parse.LoadHeuristics(cfg.HeuristicsFile)
		if err != nil {
			log.Error("loading heuristics overrides failed", "file", cfg.HeuristicsFile, "error", err)
			os.Exit(1)
		}
		log.Info("loaded heuristics overrides", "file", cfg.HeuristicsFile)
	}

	// Result store.
	var results store.ResultStore
	switch cfg.StoreBackend {
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		if err := pg.InitSchema(ctx); err != nil {
			log.Error("schema init failed", "error", err)
			os.Exit(1)
		}
		results = pg
		log.Info("using postgres result store")
	default:
		results = store.NewMemoryStore()
		log.Info("using in-memory result store")
	}

	// Summaries are optional; without a key reports use snippet bullets.
	var (
		stats      *summarize.Stats
		summarizer summarize.Summarizer = summarize.Noop{}
		client     *summarize.Client
	)
	if cfg.OpenAIAPIKey != "" {
		stats = summarize.NewStats(time.Hour)
		client = summarize.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.SummaryModel, cfg.SummaryFallbackModel, stats)
		summarizer = client
		log.Info("summaries enabled", "model", cfg.SummaryModel, "fallback", cfg.SummaryFallbackModel)
	} else {
		log.Info("summaries disabled")
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, results, heur, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, report.NewBuilder(summarizer, log), stats, log, cfg)

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

		if client != nil {
			client.Close()
		}
		results.Close()
	}()

	log.Info("starting filingsift", "port", cfg.Port, "workers", cfg.WorkerCount, "store", cfg.StoreBackend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
