// Command domedit is the DOM editing daemon.
//
// Usage:
//
//	domedit -config domedit.yaml            # full config
//	domedit -url https://example.com        # edit a live page
//	domedit -html page.html                 # edit a local HTML file
//
// Move records produced by drag sessions are emitted to stdout as JSON,
// one per line, for whatever control surface consumes them.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/domedit"
	"github.com/hazyhaar/domedit/audit"
	"github.com/hazyhaar/domedit/change"
	"github.com/hazyhaar/domedit/dom"
	"github.com/hazyhaar/domedit/live"
	"github.com/hazyhaar/domedit/sanitize"
)

func main() {
	configPath := flag.String("config", "", "path to domedit.yaml config file")
	pageURL := flag.String("url", "", "edit a live page at this URL")
	htmlPath := flag.String("html", "", "edit a local HTML file")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *pageURL, *htmlPath, *listen); err != nil {
		logger.Error("domedit: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, pageURL, htmlPath, listen string) error {
	cfg := domedit.DefaultConfig()
	if configPath != "" {
		loaded, err := domedit.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if pageURL != "" {
		cfg.Page.URL = pageURL
	}
	if listen != "" {
		cfg.Listen = listen
	}

	opts := domedit.Options{
		SettleDelay: cfg.Drag.SettleDelay,
		Logger:      logger,
		EmitMove:    emitStdout(logger),
	}

	switch cfg.Sanitize.Profile {
	case "strict":
		opts.Policy = sanitize.Strict()
	default:
		opts.Policy = sanitize.Default()
	}

	if cfg.Audit.Path != "" {
		db, err := sql.Open("sqlite", cfg.Audit.Path)
		if err != nil {
			return fmt.Errorf("open audit db: %w", err)
		}
		defer db.Close()
		store := audit.NewStore(db)
		if err := store.Init(ctx); err != nil {
			return err
		}
		if err := store.Cleanup(ctx, cfg.Audit.RetentionDays); err != nil {
			logger.Warn("domedit: audit cleanup failed", "error", err)
		}
		opts.Recorder = store
	}

	var doc *dom.Document
	switch {
	case cfg.Page.URL != "":
		page, closeBrowser, err := openLivePage(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeBrowser()
		defer page.Close()

		snap, err := page.Snapshot(ctx)
		if err != nil {
			return err
		}
		doc, err = dom.Parse(snap)
		if err != nil {
			return err
		}
		opts.Layout = page.Layout(ctx)
		opts.Runner = page
		opts.Mirror = page

	case htmlPath != "":
		data, err := os.ReadFile(htmlPath)
		if err != nil {
			return fmt.Errorf("read html: %w", err)
		}
		doc, err = dom.Parse(string(data))
		if err != nil {
			return err
		}

	default:
		return errors.New("one of -url, -html, or page.url in the config is required")
	}

	ed := domedit.New(doc, opts)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           ed.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	logger.Info("domedit: listening", "addr", cfg.Listen, "page", cfg.Page.URL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openLivePage connects to (or launches) Chrome and opens the target page.
func openLivePage(ctx context.Context, cfg *domedit.Config, logger *slog.Logger) (*live.Page, func(), error) {
	browser := rod.New()
	if cfg.Page.Remote != "" {
		browser = browser.ControlURL(cfg.Page.Remote)
	} else {
		u, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("launch browser: %w", err)
		}
		browser = browser.ControlURL(u)
	}
	if err := browser.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := live.Open(ctx, browser, cfg.Page.URL, logger)
	if err != nil {
		browser.Close()
		return nil, nil, err
	}
	return page, func() { browser.Close() }, nil
}

// emitStdout writes each emitted move record to stdout as one JSON line.
func emitStdout(logger *slog.Logger) func(change.Record) {
	enc := json.NewEncoder(os.Stdout)
	return func(rec change.Record) {
		if err := enc.Encode(rec); err != nil {
			logger.Error("domedit: emit record failed", "error", err)
		}
	}
}
