// Command preview-server streams a simulated test card or the desktop to
// preview dashboards over websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soocke/preview-dash/capture"
	"github.com/soocke/preview-dash/internal/logging"
	"github.com/soocke/preview-dash/server"
)

func main() {
	addr := flag.String("addr", ":5000", "listen address")
	source := flag.String("source", "sim", "frame source: sim or screen")
	fps := flag.Int("fps", 20, "target frames per second")
	quality := flag.Int("quality", 80, "JPEG quality (1-100)")
	verbose := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(os.Stdout, level)

	var src capture.Source
	switch *source {
	case "sim":
		src = capture.NewSimulatedSource(0)
	case "screen":
		src = capture.NewScreenSource(image.Rectangle{})
	default:
		logger.Error("unknown source", "source", *source)
		os.Exit(2)
	}
	defer src.Close()

	hub := server.NewHub(logger, src, server.Options{FPS: *fps, Quality: *quality})
	srv := &http.Server{Addr: *addr, Handler: hub.Handler(), ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("preview server listening", "addr", *addr, "source", *source, "fps", *fps, "quality", *quality)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	hub.Close()
	logger.Info("preview server stopped")
}
