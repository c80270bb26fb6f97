package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suckyear/suckyear/internal/config"
	"github.com/suckyear/suckyear/internal/logging"
	"github.com/suckyear/suckyear/internal/store"
	"github.com/suckyear/suckyear/internal/web"
	"github.com/suckyear/suckyear/pkg/api"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (default :8080)")
	apiURL := flag.String("api", "", "Backend URL (or "+api.EnvBaseURL+" env)")
	dbPath := flag.String("db", "", "Database path (default ~/.suckyear/suckyear.db)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	secure := flag.Bool("secure-cookies", false, "Mark session cookies Secure (serve behind HTTPS)")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	override := &config.Config{
		API:   config.APIConfig{BaseURL: *apiURL},
		Store: config.StoreConfig{Path: *dbPath},
		Web:   config.WebConfig{Addr: *addr, SecureCookies: *secure},
		Log:   config.LogConfig{Level: *logLevel, Format: *logFormat},
	}
	if *debug {
		override.Log.Level = "debug"
	}
	cfg.Merge(override)

	logger := logging.NewLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(cfg.Store.Path, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", cfg.Store.Path)

	client := api.NewClient(cfg.ClientConfig(), logger)
	logger.Info("backend", "url", client.BaseURL())

	srv := web.New(web.Config{
		SessionTTL:     cfg.Web.SessionTTL,
		IdleTimeout:    cfg.Web.IdleTimeout,
		CleanupPeriod:  cfg.Web.CleanupPeriod,
		SecureCookies:  cfg.Web.SecureCookies,
		MaxControllers: cfg.Web.MaxControllers,
		Limit:          cfg.Posts.Limit,
		Debounce:       cfg.Posts.Debounce,
	}, client, st, logger)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.RunJanitor(ctx)

	go func() {
		logger.Info("server starting", "addr", cfg.Web.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Event streams end when their controllers close.
	srv.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
