package thumbnail

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"

	"twobeats/internal/logger"

	"github.com/floostack/transcoder/ffmpeg"
)

// FrameSampler extracts a single frame of a video at a given offset.
type FrameSampler interface {
	Sample(ctx context.Context, path string, offset float64) (image.Image, error)
}

type FFmpegSampler struct {
	ffmpegBin  string
	ffprobeBin string
}

func NewFFmpegSampler(ffmpegBin, ffprobeBin string) *FFmpegSampler {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	return &FFmpegSampler{ffmpegBin: ffmpegBin, ffprobeBin: ffprobeBin}
}

func (s *FFmpegSampler) Sample(ctx context.Context, path string, offset float64) (image.Image, error) {
	dir, err := os.MkdirTemp("", "twobeats-frame-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create frame dir: %w", err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "frame.png")

	seek := strconv.FormatFloat(offset, 'f', 3, 64)
	frames := 1
	overwrite := true
	format := "image2"
	opts := &ffmpeg.Options{
		SeekTime:     &seek,
		Vframes:      &frames,
		Overwrite:    &overwrite,
		OutputFormat: &format,
	}

	progress, err := ffmpeg.
		New(&ffmpeg.Config{
			ProgressEnabled: true,
			FfmpegBinPath:   s.ffmpegBin,
			FfprobeBinPath:  s.ffprobeBin,
		}).
		Input(path).
		Output(out).
		WithContext(&ctx).
		Start(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	for range progress {
		// drain until ffmpeg exits
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("frame grab aborted: %w", err)
	}

	f, err := os.Open(out)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg produced no frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	logger.Debug("frame sampled", "path", path, "offset", seek)
	return img, nil
}
