package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	return img
}

func TestFit(t *testing.T) {
	p := NewProcessor(85)
	box := ImageSize{Width: 640, Height: 360}

	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{name: "wide 1920x1080", w: 1920, h: 1080, wantW: 640, wantH: 360},
		{name: "tall 1080x1920", w: 1080, h: 1920, wantW: 202, wantH: 360},
		{name: "square 1000x1000", w: 1000, h: 1000, wantW: 360, wantH: 360},
		{name: "already small", w: 100, h: 50, wantW: 100, wantH: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := p.Fit(solid(tt.w, tt.h), box)
			assert.Equal(t, tt.wantW, out.Bounds().Dx())
			assert.Equal(t, tt.wantH, out.Bounds().Dy())
		})
	}
}

func TestProcessImage_PNGToJPEG(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, solid(1280, 720)))

	out, err := NewProcessor(80).ProcessImage(&src, SizeThumbnail, "jpeg")
	require.NoError(t, err)

	w, h, err := GetImageDimensions(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 360, h)
}

func TestProcessImage_InvalidInput(t *testing.T) {
	_, err := NewProcessor(0).ProcessImage(bytes.NewReader([]byte("not an image")), SizeThumbnail, "jpeg")
	assert.Error(t, err)
}
