package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soocke/preview-dash/app"
	"github.com/soocke/preview-dash/config"
	"github.com/soocke/preview-dash/dashboard"
	"github.com/soocke/preview-dash/debug"
	"github.com/soocke/preview-dash/internal/logging"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath(), "config file (.json or .yaml)")
	serverURL := flag.String("server", "", "preview server websocket URL, overrides the config file")
	headless := flag.Bool("headless", false, "run without a window and log stats")
	autoStart := flag.Bool("autostart", false, "headless: request a stream whenever idle")
	debugFlag := flag.Bool("debug", false, "debug logging and runtime metrics")
	flag.Parse()

	// Base config from file, falling back to defaults
	bootLogger := logging.New(os.Stdout, slog.LevelInfo)
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		bootLogger.Warn("config load failed, using defaults", "path", *cfgPath, "error", err)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *debugFlag {
		cfg.Debug = true
	}

	// Set up logger
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := logging.New(os.Stdout, level)

	if *headless {
		os.Exit(runHeadless(cfg, logger, *autoStart))
	}

	c, err := app.BuildContainer(cfg, logger, *cfgPath)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	startDebug(cfg, logger, c.Pipeline)
	application := app.NewApp("Video Preview", 900, 820, c)
	application.Start()
}

func runHeadless(cfg *config.Config, logger *slog.Logger, autoStart bool) int {
	p, err := dashboard.NewPipeline(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer p.Close()
	startDebug(cfg, logger, p)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := dashboard.RunHeadless(ctx, p, autoStart); err != nil {
		logger.Error("headless run failed", "error", err)
		return 1
	}
	return 0
}

func startDebug(cfg *config.Config, logger *slog.Logger, p *dashboard.Pipeline) {
	if !cfg.Debug {
		return
	}
	buffered := func() int { return p.Controller.Status().Stats.Buffered }
	debug.StartGoroutineLogger(5*time.Second, logger.With("component", "debug"), buffered)
	debug.StartMemLogger(5*time.Second, logger.With("component", "debug"))
}
