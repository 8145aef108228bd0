package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/preview-dash/capture"
	"github.com/soocke/preview-dash/domain/stream"
	"github.com/soocke/preview-dash/transport"
)

// readRetryDelay is the pause after a failed source read.
const readRetryDelay = 100 * time.Millisecond

var hudColor = color.RGBA{0, 255, 0, 255}

type streamer struct {
	logger    *slog.Logger
	source    capture.Source
	interval  time.Duration
	quality   int
	broadcast func(transport.Envelope) int
	now       func() time.Time

	count     uint64
	readErrs  int
	second    time.Time
	perSecond int
}

func newStreamer(logger *slog.Logger, source capture.Source, opts Options, broadcast func(transport.Envelope) int) *streamer {
	return &streamer{
		logger:    logger,
		source:    source,
		interval:  time.Second / time.Duration(opts.FPS),
		quality:   opts.Quality,
		broadcast: broadcast,
		now:       time.Now,
	}
}

func (s *streamer) run(ctx context.Context) {
	s.logger.Info("streamer running", "interval", s.interval, "quality", s.quality)
	s.second = s.now()
	defer func() { s.logger.Info("streamer exited", "frames", s.count) }()
	for {
		start := s.now()
		if ctx.Err() != nil {
			return
		}
		img, err := s.source.Read()
		if err != nil {
			s.readErrs++
			s.logger.Error("source read failed", "attempt", s.readErrs, "error", err)
			if !sleep(ctx, readRetryDelay) {
				return
			}
			continue
		}
		s.readErrs = 0
		env, size, err := s.encode(img)
		if err != nil {
			s.logger.Error("frame encode failed", "error", err)
			if !sleep(ctx, readRetryDelay) {
				return
			}
			continue
		}
		s.broadcast(env)
		s.account(size)

		elapsed := s.now().Sub(start)
		if wait := s.interval - elapsed; wait > 0 {
			if !sleep(ctx, wait) {
				return
			}
		} else if elapsed > s.interval*3/2 {
			s.logger.Warn("frame over budget", "elapsed", elapsed, "budget", s.interval)
		}
	}
}

// encode stamps the HUD, JPEG-encodes and wraps the frame as a video_frame envelope.
func (s *streamer) encode(img image.Image) (transport.Envelope, int, error) {
	s.count++
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds().Min != (image.Point{}) {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	now := s.now()
	capture.DrawText(rgba, 10, 30, hudColor, fmt.Sprintf("Frame: %d", s.count))
	capture.DrawText(rgba, 10, 60, hudColor, now.Format("2006-01-02 15:04:05"))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: s.quality}); err != nil {
		return transport.Envelope{}, 0, fmt.Errorf("jpeg: %w", err)
	}
	payload := base64.StdEncoding.EncodeToString(buf.Bytes())
	env, err := transport.NewEnvelope(stream.EventVideoFrame, stream.VideoFrame{
		Frame: payload,
		Count: s.count,
		Size:  len(payload),
		Time:  float64(now.UnixNano()) / 1e9,
	})
	if err != nil {
		return transport.Envelope{}, 0, err
	}
	if s.count%10 == 0 {
		s.logger.Debug("frame encoded", "count", s.count, "size", humanize.Bytes(uint64(len(payload))))
	}
	return env, len(payload), nil
}

func (s *streamer) account(size int) {
	s.perSecond++
	if s.count%100 == 0 {
		s.logger.Info("frames sent", "count", s.count)
	}
	if now := s.now(); now.Sub(s.second) >= time.Second {
		s.logger.Info("stream performance", "fps", s.perSecond, "last_frame", humanize.Bytes(uint64(size)))
		s.perSecond = 0
		s.second = now
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
