package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"twobeats/internal/imageprocessor"
	"twobeats/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSampler struct {
	offset float64
	img    image.Image
	err    error
}

func (f *fakeSampler) Sample(ctx context.Context, path string, offset float64) (image.Image, error) {
	f.offset = offset
	return f.img, f.err
}

func frame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.White)
	}
	return img
}

func TestSeekOffset(t *testing.T) {
	tests := []struct {
		duration float64
		want     float64
	}{
		{duration: 0, want: 1},
		{duration: 1.5, want: 0.75},
		{duration: 1.999, want: 0.9995},
		{duration: 2, want: 1},
		{duration: 300, want: 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, SeekOffset(tt.duration), 1e-9, "duration %v", tt.duration)
	}
}

func TestGenerate_Video(t *testing.T) {
	sampler := &fakeSampler{img: frame(1920, 1080)}
	g := NewFrameGenerator(Config{Enabled: true, Width: 320, Height: 180, Quality: 80})
	g.sampler = sampler

	out, err := g.Generate(context.Background(), models.KindVideo, "clip.mp4", 1.2)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, sampler.offset, 1e-9)

	w, h, err := imageprocessor.GetImageDimensions(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 320, w)
	assert.Equal(t, 180, h)
}

func TestGenerate_Failures(t *testing.T) {
	g := NewFrameGenerator(Config{Enabled: false})
	_, err := g.Generate(context.Background(), models.KindVideo, "clip.mp4", 10)
	assert.ErrorIs(t, err, ErrDisabled)

	g = NewFrameGenerator(Config{Enabled: true})
	g.sampler = &fakeSampler{err: errors.New("ffmpeg missing")}
	_, err = g.Generate(context.Background(), models.KindVideo, "clip.mp4", 10)
	assert.Error(t, err)

	// audio without embedded art
	path := filepath.Join(t.TempDir(), "plain.mp3")
	require.NoError(t, os.WriteFile(path, []byte("no tags here"), 0o644))
	_, err = g.Generate(context.Background(), models.KindMusic, path, 0)
	assert.Error(t, err)
}
