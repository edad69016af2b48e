package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"
)

var ErrInvalidPath = errors.New("invalid storage path")

// Storage defines the interface for file storage operations.
// Paths are slash-separated keys relative to the storage root.
type Storage interface {
	// Save stores a file at the given path
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Get retrieves a file from the given path
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file at the given path. Missing files are not an error.
	Delete(ctx context.Context, path string) error

	// Exists checks if a file exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// Move renames src to dst. Callers pick a free dst with AvailablePath.
	Move(ctx context.Context, src, dst string) error

	// GetURL returns a public URL for the file
	GetURL(ctx context.Context, path string) (string, error)

	// GetSignedURL returns a temporary signed URL for private files
	GetSignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	// GetSize returns the size of a file in bytes
	GetSize(ctx context.Context, path string) (int64, error)
}

// Config holds storage configuration
type Config struct {
	Type       string // local, s3, cloudflare_r2
	BasePath   string // For local storage
	BaseURL    string // Public URL base
	Bucket     string // For S3/R2
	Region     string // For S3
	AccessKey  string // For S3/R2
	SecretKey  string // For S3/R2
	Endpoint   string // For R2 or custom S3
	UseSSL     bool   // For S3/R2
	PublicRead bool   // Make files public by default
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "cloudflare_r2":
		return NewCloudflareR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// CleanPath normalizes a storage key and rejects keys escaping the root.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := path.Clean("/" + p)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	return cleaned, nil
}

// AvailablePath returns p if nothing is stored there, otherwise p with a
// random suffix inserted before the extension.
func AvailablePath(ctx context.Context, s Storage, p string) (string, error) {
	exists, err := s.Exists(ctx, p)
	if err != nil {
		return "", err
	}
	if !exists {
		return p, nil
	}

	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	for i := 0; i < 8; i++ {
		candidate := fmt.Sprintf("%s_%s%s", stem, RandomSuffix(4), ext)
		exists, err := s.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name found for %s", p)
}

// RandomSuffix returns 2*n lowercase hex characters.
func RandomSuffix(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// localPather is implemented by storages whose objects already live on disk.
type localPather interface {
	FullPath(p string) (string, error)
}

// LocalFile returns a filesystem path holding the object at p. For remote
// storage the object is downloaded to a temporary file; release removes it.
func LocalFile(ctx context.Context, s Storage, p string) (string, func(), error) {
	if lp, ok := s.(localPather); ok {
		full, err := lp.FullPath(p)
		if err != nil {
			return "", func() {}, err
		}
		return full, func() {}, nil
	}

	rc, err := s.Get(ctx, p)
	if err != nil {
		return "", func() {}, err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "twobeats-*"+path.Ext(p))
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create temp file: %w", err)
	}
	release := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		release()
		return "", func() {}, fmt.Errorf("failed to download %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		release()
		return "", func() {}, err
	}
	return tmp.Name(), release, nil
}
