package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"twobeats/internal/imageprocessor"
	"twobeats/internal/mediaprobe"
	"twobeats/internal/models"
)

var (
	ErrDisabled    = errors.New("thumbnail generation disabled")
	ErrUnsupported = errors.New("no thumbnail source for this media")
)

// Generator produces a JPEG thumbnail for a media file stored on disk.
type Generator interface {
	Generate(ctx context.Context, kind models.MediaKind, path string, duration float64) ([]byte, error)
}

// Config holds the thumbnail settings.
type Config struct {
	Enabled        bool
	FfmpegBinPath  string
	FfprobeBinPath string
	Width          int
	Height         int
	Quality        int
	Timeout        time.Duration
}

// FrameGenerator grabs a video frame with ffmpeg, or extracts embedded
// cover art for audio, and fits the result into the bounding box.
type FrameGenerator struct {
	cfg       Config
	sampler   FrameSampler
	processor *imageprocessor.Processor
	size      imageprocessor.ImageSize
}

func NewFrameGenerator(cfg Config) *FrameGenerator {
	size := imageprocessor.SizeThumbnail
	if cfg.Width > 0 && cfg.Height > 0 {
		size.Width, size.Height = cfg.Width, cfg.Height
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &FrameGenerator{
		cfg:       cfg,
		sampler:   NewFFmpegSampler(cfg.FfmpegBinPath, cfg.FfprobeBinPath),
		processor: imageprocessor.NewProcessor(cfg.Quality),
		size:      size,
	}
}

func (g *FrameGenerator) Generate(ctx context.Context, kind models.MediaKind, path string, duration float64) ([]byte, error) {
	if !g.cfg.Enabled {
		return nil, ErrDisabled
	}

	var img image.Image
	var err error
	switch kind {
	case models.KindVideo:
		ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
		img, err = g.sampler.Sample(ctx, path, SeekOffset(duration))
	case models.KindMusic:
		img, err = coverArt(path)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}

	buf, err := g.processor.Thumbnail(img, g.size)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SeekOffset is where the frame is taken: one second in, or the midpoint
// for clips shorter than two seconds. Unknown durations use one second.
func SeekOffset(duration float64) float64 {
	if duration > 0 && duration < 2 {
		return duration / 2
	}
	return 1
}

func coverArt(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()
	return mediaprobe.CoverArt(f)
}
