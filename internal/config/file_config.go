package config

// KindRules are the size and type limits for one class of uploaded file.
type KindRules struct {
	MaxSize      int64    `yaml:"max_size"` // bytes
	AllowedTypes []string `yaml:"allowed_types"`
	Extensions   []string `yaml:"extensions"`
}

func DefaultMusicRules() KindRules {
	return KindRules{
		MaxSize: 50 * 1024 * 1024, // 50MB
		AllowedTypes: []string{
			"audio/mpeg", "audio/mp4", "audio/x-m4a", "audio/m4a", "audio/aac",
			"audio/ogg", "audio/x-flac", "audio/flac", "audio/x-wav", "audio/wav",
		},
		Extensions: []string{".mp3", ".m4a", ".aac", ".ogg", ".flac", ".wav"},
	}
}

func DefaultVideoRules() KindRules {
	return KindRules{
		MaxSize: 500 * 1024 * 1024, // 500MB
		AllowedTypes: []string{
			"video/mp4", "video/quicktime", "video/webm", "video/x-matroska", "video/x-msvideo",
		},
		Extensions: []string{".mp4", ".mov", ".webm", ".mkv", ".avi"},
	}
}

func DefaultThumbnailRules() KindRules {
	return KindRules{
		MaxSize:      5 * 1024 * 1024, // 5MB
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		Extensions:   []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
	}
}

// Allows reports whether mime is in the allowlist.
func (r KindRules) Allows(mime string) bool {
	for _, t := range r.AllowedTypes {
		if t == mime {
			return true
		}
	}
	return false
}

// AllowsExtension reports whether ext (with the leading dot) is allowed.
func (r KindRules) AllowsExtension(ext string) bool {
	for _, e := range r.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
