package mediaprobe

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// SniffLen is how many leading bytes Sniff needs.
const SniffLen = 8192

// extension fallbacks for containers the magic table misses or reports
// under a different name
var extensionTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".flac": "audio/x-flac",
	".wav":  "audio/x-wav",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Sniff detects the MIME type from the file's leading bytes. Unrecognized
// content falls back to the declared header type and then to the extension.
func Sniff(head []byte, declared, filename string) string {
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}

	if declared != "" && declared != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt
		}
	}

	return TypeByExtension(filename)
}

// TypeByExtension maps a file name to a MIME type, "" when unknown.
func TypeByExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		mt, _, _ := mime.ParseMediaType(t)
		return mt
	}
	return ""
}

// IsAudio, IsVideo and IsImage check the MIME family.
func IsAudio(mimeType string) bool { return strings.HasPrefix(mimeType, "audio/") }
func IsVideo(mimeType string) bool { return strings.HasPrefix(mimeType, "video/") }
func IsImage(mimeType string) bool { return strings.HasPrefix(mimeType, "image/") }
