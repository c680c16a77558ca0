// Entry point for the commentdrop HTTP service: scrape pump.fun
// comment threads into wallet lists and distribute SPL tokens to them.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/hazyhaar/commentdrop/airdrop"
	"github.com/hazyhaar/commentdrop/runlog"
	"github.com/hazyhaar/commentdrop/scrape"
	"github.com/hazyhaar/commentdrop/internal/browser"
)

func main() {
	godotenv.Load()

	cfg, err := loadConfig(os.Getenv("CONFIG"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run history store.
	store, err := runlog.Open(cfg.RunDB)
	if err != nil {
		slog.Error("run store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Browser.
	mgr := browser.NewManager(browser.Config{
		RemoteURL:       cfg.Browser.RemoteURL,
		MemoryLimit:     int64(cfg.Browser.MemoryLimitMB) << 20,
		RecycleInterval: time.Duration(cfg.Browser.RecycleHours) * time.Hour,
		BlockResources:  cfg.Browser.BlockResources,
		Logger:          logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		slog.Error("browser start", "error", err)
		os.Exit(1)
	}
	defer mgr.Close()

	// Scraper.
	scraper := scrape.New(scrape.Config{
		DataDir:    cfg.DataDir,
		NavTimeout: time.Duration(cfg.Scrape.NavTimeoutSec) * time.Second,
		Engine: scrape.EngineConfig{
			ScrollCycles: cfg.Scrape.ScrollCycles,
			Settle:       time.Duration(cfg.Scrape.SettleMs) * time.Millisecond,
		},
		Resolver: scrape.ResolverConfig{
			ProfileBase: cfg.Scrape.ProfileBase,
		},
		Logger: logger,
	}, mgr)

	// Distribution executor; execute stays disabled without a key.
	var executor *airdrop.Executor
	signer, err := loadSigner(cfg)
	if err != nil {
		slog.Error("signing key", "error", err)
		os.Exit(1)
	}
	if signer != nil {
		endpoints := airdrop.NewEndpoints(cfg.Airdrop.RPCURLs, logger)
		executor = airdrop.NewExecutor(airdrop.ExecutorConfig{
			ConfirmTimeout: time.Duration(cfg.Airdrop.ConfirmTimeoutSec) * time.Second,
			Logger:         logger,
		}, endpoints, signer)
		slog.Info("airdrop executor ready",
			"wallet", signer.Address().String(),
			"endpoints", len(cfg.Airdrop.RPCURLs))
	} else {
		slog.Warn("no signing key configured, airdrop execution disabled")
	}

	// Router.
	r := chi.NewRouter()
	r.Use(requestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	scrape.NewHandler(scraper, store, cfg.Scrape.Host, logger).Mount(r)
	airdrop.NewHandler(executor, store, logger).Mount(r)
	store.Mount(r)

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Scrape runs navigate and resolve dozens of profiles.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func loadSigner(cfg *Config) (*airdrop.KeypairSigner, error) {
	switch {
	case cfg.Airdrop.PrivateKey != "":
		return airdrop.KeypairFromBase58(cfg.Airdrop.PrivateKey)
	case cfg.Airdrop.KeyFile != "":
		return airdrop.KeypairFromFile(cfg.Airdrop.KeyFile)
	default:
		return nil, nil
	}
}

// requestLogger logs each request with method, path, status and
// duration.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start))
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
