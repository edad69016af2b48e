package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageSize is a bounding box
type ImageSize struct {
	Name   string
	Width  int
	Height int
}

// SizeThumbnail is the default bounding box for media thumbnails
var SizeThumbnail = ImageSize{Name: "thumbnail", Width: 640, Height: 360}

// Processor handles image processing operations
type Processor struct {
	quality int // JPEG quality (1-100)
}

// NewProcessor creates a new image processor
func NewProcessor(quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Processor{
		quality: quality,
	}
}

// ProcessImage decodes an image, fits it into size and encodes it as format
// ("jpeg" or "png"; empty keeps the source format when possible).
func (p *Processor) ProcessImage(reader io.Reader, size ImageSize, format string) (*bytes.Buffer, error) {
	img, srcFormat, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if format == "" {
		format = srcFormat
	}
	return p.Encode(p.Fit(img, size), format)
}

// Thumbnail fits img into size and encodes it as JPEG.
func (p *Processor) Thumbnail(img image.Image, size ImageSize) (*bytes.Buffer, error) {
	return p.Encode(p.Fit(img, size), "jpeg")
}

// Encode writes img in the given format
func (p *Processor) Encode(img image.Image, format string) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
	default:
		// gif, webp and the rest are re-encoded as JPEG
		return p.Encode(img, "jpeg")
	}
	return &buf, nil
}

// Fit scales img to fit inside the box, keeping its aspect ratio.
// Images already inside the box are returned unchanged.
func (p *Processor) Fit(img image.Image, size ImageSize) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 || size.Width <= 0 || size.Height <= 0 {
		return img
	}
	if width <= size.Width && height <= size.Height {
		return img
	}

	ratio := float64(width) / float64(height)
	newWidth := size.Width
	newHeight := size.Height

	if float64(size.Width)/float64(size.Height) > ratio {
		newWidth = int(float64(size.Height) * ratio)
	} else {
		newHeight = int(float64(size.Width) / ratio)
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// flatten draws img over white so transparent areas do not turn black in JPEG.
func flatten(img image.Image) image.Image {
	if _, ok := img.(*image.YCbCr); ok {
		return img
	}
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Over)
	return dst
}

// Decode decodes any registered image format
func Decode(reader io.Reader) (image.Image, error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// GetImageDimensions returns the dimensions of an image
func GetImageDimensions(reader io.Reader) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(reader)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
