package mediaprobe

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniff(t *testing.T) {
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	id3 := append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), make([]byte, 64)...)

	tests := []struct {
		name     string
		head     []byte
		declared string
		filename string
		want     string
	}{
		{name: "png magic wins over header", head: pngBuf.Bytes(), declared: "audio/mpeg", filename: "a.mp3", want: "image/png"},
		{name: "mp3 by id3 magic", head: id3, filename: "song.bin", want: "audio/mpeg"},
		{name: "declared header when magic unknown", head: []byte("????"), declared: "video/webm; codecs=vp9", filename: "x", want: "video/webm"},
		{name: "octet-stream falls back to extension", head: []byte("????"), declared: "application/octet-stream", filename: "clip.MOV", want: "video/quicktime"},
		{name: "nothing known", head: []byte("????"), filename: "file", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.head, tt.declared, tt.filename))
		})
	}
}

func TestFamilies(t *testing.T) {
	assert.True(t, IsAudio("audio/mpeg"))
	assert.True(t, IsVideo("video/mp4"))
	assert.True(t, IsImage("image/jpeg"))
	assert.False(t, IsVideo("audio/mp4"))
}

func TestReadMP4_Garbage(t *testing.T) {
	_, err := ReadMP4(bytes.NewReader([]byte("definitely not an mp4 file")))
	assert.Error(t, err)
}

func TestReadAudioTags_NoTags(t *testing.T) {
	_, err := ReadAudioTags(bytes.NewReader([]byte("plain bytes without any tag header")))
	assert.Error(t, err)
}
