package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/skimlab/deepresearch/internal/config"
	"github.com/skimlab/deepresearch/internal/extract"
	"github.com/skimlab/deepresearch/internal/logger"
	"github.com/skimlab/deepresearch/internal/report"
	"github.com/skimlab/deepresearch/internal/research"
	"github.com/skimlab/deepresearch/internal/search"
	"github.com/skimlab/deepresearch/internal/synth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer zl.Sync()
	ctx := context.Background()

	// ── Report store ─────────────────────────────────────────
	var store report.Store
	switch cfg.Store.Backend {
	case "redis":
		rdb, err := report.NewRedisClient(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPass)
		if err != nil {
			zl.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()
		store = report.NewRedisStore(rdb, cfg.Store.TTL)
	default:
		store = report.NewMemoryStore(cfg.Store.Capacity, cfg.Store.TTL)
	}
	assembler := report.NewAssembler(store, zl)

	// ── Pipeline stages ──────────────────────────────────────
	searcher := search.NewClient(cfg.Search.Endpoint, cfg.Search.Timeout, zl)
	extractor := extract.New(cfg.Extract, zl)
	generator, err := synth.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Synthesis.Temperature)
	if err != nil {
		zl.Fatal("gemini client", zap.Error(err))
	}
	synthesizer := synth.New(generator, cfg.Synthesis, zl)

	svc := research.NewService(searcher, extractor, synthesizer, assembler, cfg, zl)
	handler := research.NewHandler(svc, zl)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	handler.Routes(r)

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		zl.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
