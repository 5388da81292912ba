package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/clubhub/wifimon/internal/config"
	"github.com/clubhub/wifimon/internal/httpapi"
	"github.com/clubhub/wifimon/internal/logging"
	"github.com/clubhub/wifimon/internal/logstore"
	"github.com/clubhub/wifimon/internal/oui"
	"github.com/clubhub/wifimon/internal/reconcile"
	"github.com/clubhub/wifimon/internal/roster"
	"github.com/clubhub/wifimon/internal/router"
	"github.com/clubhub/wifimon/internal/schedule"
	"github.com/clubhub/wifimon/internal/scrape"
	"github.com/clubhub/wifimon/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if !cfg.Replay() && cfg.RouterURL == "" {
		logger.Error("router_url is required unless html_file is set")
		os.Exit(1)
	}

	if err := createDataDirs(cfg); err != nil {
		logger.Error("failed to create data directories", "err", err)
		os.Exit(1)
	}

	rosterStore := roster.NewStore(cfg.MembersPath, logger)
	if _, err := os.Stat(cfg.MembersPath); errors.Is(err, os.ErrNotExist) {
		logger.Info("member registry missing, creating empty one", "path", cfg.MembersPath)
		if err := rosterStore.Save(); err != nil {
			logger.Error("failed to create member registry", "err", err)
			os.Exit(1)
		}
	}
	if err := rosterStore.Load(); err != nil {
		logger.Error("failed to load member registry", "err", err, "path", cfg.MembersPath)
		os.Exit(1)
	}

	var source router.ClientTableSource
	if cfg.Replay() {
		logger.Info("replaying saved page instead of polling the router", "path", cfg.HTMLFile)
		source = router.FileSource{Path: cfg.HTMLFile}
	} else {
		source = router.NewClient(cfg.Router(), logger)
	}

	ouiDB, err := oui.LoadEmbedded()
	if err != nil {
		logger.Warn("vendor database unavailable, unknown devices logged without vendor", "err", err)
	}

	store := logstore.New(cfg.LogDir, cfg.UnknownLog, cfg.WirelessLog, logger)
	monitor := service.New(source, scrape.NewParser(logger), rosterStore, reconcile.New(ouiDB), store, logger)

	scheduler, err := schedule.New(cfg.IntervalMinutes, cfg.Once, monitor.IsFatal, logger)
	if err != nil {
		logger.Error("invalid schedule", "err", err)
		os.Exit(1)
	}

	if cfg.Once {
		if err := scheduler.Run(ctx, monitor.RunCycle); err != nil {
			logger.Error("snapshot failed", "err", err)
			os.Exit(1)
		}
		return
	}

	hub := httpapi.NewHub(logger)
	monitor.SetEventSink(hub)

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- scheduler.Run(ctx, monitor.RunCycle)
	}()

	api := httpapi.New(monitor, rosterStore, scheduler, hub, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("admin api starting", "addr", httpServer.Addr)
		serverErr <- httpapi.RunServer(ctx, httpServer)
	}()

	exitCode := 0
	select {
	case err := <-loopErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("monitor loop terminated", "err", err)
			exitCode = 1
		}
		stop()
		if err := <-serverErr; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("admin api terminated with error", "err", err)
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("admin api terminated with error", "err", err)
			exitCode = 1
		}
		stop()
		<-loopErr
	}

	logger.Info("monitor stopped")
	os.Exit(exitCode)
}

// createDataDirs makes sure every output location exists before the first
// cycle; the log store itself never creates directories.
func createDataDirs(cfg *config.Config) error {
	dirs := []string{
		cfg.LogDir,
		filepath.Dir(cfg.MembersPath),
		filepath.Dir(cfg.UnknownLog),
		filepath.Dir(cfg.WirelessLog),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
