package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pharmexa/formulary-api/cache"
	"github.com/pharmexa/formulary-api/config"
	"github.com/pharmexa/formulary-api/data"
	"github.com/pharmexa/formulary-api/formulary"
	"github.com/pharmexa/formulary-api/handlers"
	"github.com/pharmexa/formulary-api/health"
	"github.com/pharmexa/formulary-api/interfaces"
	"github.com/pharmexa/formulary-api/logging"
	"github.com/pharmexa/formulary-api/resolve"
	"github.com/pharmexa/formulary-api/retrieval"
	"github.com/pharmexa/formulary-api/scheduler"
	"github.com/pharmexa/formulary-api/server"
	"github.com/pharmexa/formulary-api/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Configuration error", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerWithRetention("logs", cfg.LogRetentionDays)

	corpusContainer := data.NewCorpusContainer()
	corpusContainer.SetServerStartTime(time.Now())

	source := formulary.NewFileSource(cfg.DocumentPath)
	validator := validation.NewCorpusValidator()

	ingestScheduler := scheduler.NewScheduler(corpusContainer, source, validator, cfg.IngestTimes)
	if err := ingestScheduler.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer ingestScheduler.Stop()

	searcher := retrieval.NewLexicalSearcher(corpusContainer)
	orchestrator := retrieval.NewOrchestrator(searcher)

	// NewChatClassifier returns nil when no endpoint is configured; the
	// resolver treats a nil classifier as "no opinion" on every question.
	var classifier interfaces.Classifier
	if c := resolve.NewChatClassifier(cfg); c != nil {
		classifier = c
		logging.Info("Drug classifier enabled", "model", cfg.ClassifierModel)
	} else {
		logging.Info("Drug classifier disabled, using heuristics only")
	}

	resolver := resolve.NewResolver(orchestrator, classifier,
		cfg.RetrievalLimit, cfg.ComparisonDrugCap, cfg.ClassifierTimeout)

	responseCache := cache.NewResponseCache(cfg.CacheTTL)
	healthChecker := health.NewHealthChecker(corpusContainer, cfg.IngestTimes)

	handler := handlers.NewHTTPHandler(corpusContainer, validator, healthChecker, resolver, responseCache)

	srv := server.NewServer(cfg, handler)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
		os.Exit(1)
	}
}
