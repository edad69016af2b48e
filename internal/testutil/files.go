package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"

	"twobeats/internal/models"
	"twobeats/internal/storage"

	"github.com/stretchr/testify/require"
)

// MP3Bytes are an ID3 header followed by padding, enough to sniff as audio/mpeg.
func MP3Bytes() []byte {
	return append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), make([]byte, 512)...)
}

// MP4Bytes are a bare ftyp box followed by padding, enough to sniff as video/mp4.
func MP4Bytes() []byte {
	head := []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")
	return append(head, make([]byte, 512)...)
}

func PNGBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func JPEGBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil))
	return buf.Bytes()
}

// FilePart is one file of a multipart body.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// MultipartBody encodes fields and files as multipart/form-data.
// Repeated values of a field are written in order.
func MultipartBody(t *testing.T, fields map[string][]string, files ...FilePart) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for name, values := range fields {
		for _, v := range values {
			require.NoError(t, w.WriteField(name, v))
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.Field+`"; filename="`+f.Filename+`"`)
		if f.ContentType != "" {
			h.Set("Content-Type", f.ContentType)
		}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.Data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

// FileHeader builds the *multipart.FileHeader a handler would receive.
func FileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	body, ct := MultipartBody(t, nil, FilePart{Field: "file", Filename: filename, ContentType: contentType, Data: data})

	_, params, err := mime.ParseMediaType(ct)
	require.NoError(t, err)
	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}

// NewStorage returns local storage rooted in a temp dir.
func NewStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()
	st, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir(), BaseURL: "/api/v1/files"})
	require.NoError(t, err)
	return st
}

// FakeProber returns Meta for every file.
type FakeProber struct {
	Meta models.ProbeMetadata
}

func (p *FakeProber) Probe(ctx context.Context, kind models.MediaKind, path, mimeType string) models.ProbeMetadata {
	meta := p.Meta
	meta.Sniffed = mimeType
	return meta
}

// FakeThumbnailer returns Data, or Err, and records the paths it was asked for.
type FakeThumbnailer struct {
	Data []byte
	Err  error

	mu        sync.Mutex
	calls     []string
	durations []float64
}

func (g *FakeThumbnailer) Generate(ctx context.Context, kind models.MediaKind, path string, duration float64) ([]byte, error) {
	g.mu.Lock()
	g.calls = append(g.calls, path)
	g.durations = append(g.durations, duration)
	g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Data, nil
}

func (g *FakeThumbnailer) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// LastDuration is the media length passed to the most recent Generate call.
func (g *FakeThumbnailer) LastDuration() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.durations) == 0 {
		return 0
	}
	return g.durations[len(g.durations)-1]
}
