package mediaprobe

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"twobeats/internal/logger"
	"twobeats/internal/models"

	"github.com/abema/go-mp4"
	"github.com/dhowden/tag"
	"github.com/floostack/transcoder/ffmpeg"
)

// Config points at the ffprobe binary used when the container cannot be
// parsed natively.
type Config struct {
	FfmpegBinPath  string
	FfprobeBinPath string
}

// Prober extracts metadata from staged media files.
type Prober struct {
	cfg Config
}

func NewProber(cfg Config) *Prober {
	if cfg.FfprobeBinPath == "" {
		cfg.FfprobeBinPath = "ffprobe"
	}
	if cfg.FfmpegBinPath == "" {
		cfg.FfmpegBinPath = "ffmpeg"
	}
	return &Prober{cfg: cfg}
}

// Probe inspects the file at path. It never fails the upload: whatever
// could be read is returned and the rest is logged.
func (p *Prober) Probe(ctx context.Context, kind models.MediaKind, path, mimeType string) models.ProbeMetadata {
	meta := models.ProbeMetadata{Sniffed: mimeType}

	f, err := os.Open(path)
	if err != nil {
		logger.CtxWithError(ctx, "probe: failed to open file", err, "path", path)
		return meta
	}
	defer f.Close()

	switch kind {
	case models.KindMusic:
		if t, err := ReadAudioTags(f); err == nil {
			meta.Title = t.Title
			meta.Artist = t.Artist
			meta.Album = t.Album
			meta.Genre = t.Genre
			meta.Year = t.Year
			meta.HasCoverArt = t.HasCoverArt
		} else {
			logger.CtxDebug(ctx, "probe: no audio tags", "path", path, "error", err.Error())
		}
	case models.KindVideo:
		if info, err := ReadMP4(f); err == nil {
			meta.Duration = info.Duration
			meta.Width = info.Width
			meta.Height = info.Height
			return meta
		}
	}

	if meta.Duration == 0 {
		if d, err := p.FFProbeDuration(path); err == nil {
			meta.Duration = d
		} else {
			logger.CtxDebug(ctx, "probe: ffprobe unavailable", "path", path, "error", err.Error())
		}
	}
	return meta
}

// ============================================================================
// Audio tags
// ============================================================================

type AudioTags struct {
	Title       string
	Artist      string
	Album       string
	Genre       string
	Year        int
	HasCoverArt bool
}

// ReadAudioTags reads ID3/MP4/FLAC/OGG tags.
func ReadAudioTags(rs io.ReadSeeker) (*AudioTags, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	m, err := tag.ReadFrom(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	pic := m.Picture()
	return &AudioTags{
		Title:       strings.TrimSpace(m.Title()),
		Artist:      strings.TrimSpace(m.Artist()),
		Album:       strings.TrimSpace(m.Album()),
		Genre:       strings.TrimSpace(m.Genre()),
		Year:        m.Year(),
		HasCoverArt: pic != nil && len(pic.Data) > 0,
	}, nil
}

// CoverArt decodes the picture embedded in an audio file.
func CoverArt(rs io.ReadSeeker) (image.Image, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	m, err := tag.ReadFrom(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return nil, fmt.Errorf("no embedded cover art")
	}
	img, _, err := image.Decode(bytes.NewReader(pic.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover art (%s): %w", pic.MIMEType, err)
	}
	return img, nil
}

// ============================================================================
// MP4
// ============================================================================

type MP4Info struct {
	Duration float64 // seconds
	Width    int
	Height   int
}

// ReadMP4 parses the moov box of an MP4/MOV container.
func ReadMP4(rs io.ReadSeeker) (*MP4Info, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	info, err := mp4.Probe(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to probe mp4: %w", err)
	}
	if info.Timescale == 0 {
		return nil, fmt.Errorf("mp4 has no timescale")
	}

	out := &MP4Info{Duration: float64(info.Duration) / float64(info.Timescale)}
	for _, tr := range info.Tracks {
		if tr.AVC != nil {
			out.Width = int(tr.AVC.Width)
			out.Height = int(tr.AVC.Height)
			break
		}
	}
	return out, nil
}

// ============================================================================
// ffprobe
// ============================================================================

// FFProbeDuration asks ffprobe for the container duration in seconds.
func (p *Prober) FFProbeDuration(path string) (float64, error) {
	metadata, err := ffmpeg.New(&ffmpeg.Config{
		FfmpegBinPath:  p.cfg.FfmpegBinPath,
		FfprobeBinPath: p.cfg.FfprobeBinPath,
	}).Input(path).GetMetadata()
	if err != nil {
		return 0, fmt.Errorf("failed to extract file metadata using ffprobe: %w", err)
	}

	raw := metadata.GetFormat().GetDuration()
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe duration %q: %w", raw, err)
	}
	return d, nil
}
