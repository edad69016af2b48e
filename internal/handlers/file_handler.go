package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"twobeats/internal/mediaprobe"
	"twobeats/internal/services"
	"twobeats/internal/storage"
	"twobeats/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	*BaseHandler
	storage storage.Storage
	media   services.MediaService
}

func NewFileHandler(base *BaseHandler, st storage.Storage, media services.MediaService) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     st,
		media:       media,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup) {
	files := r.Group("/files")
	{
		files.GET("/*path", h.ServeFile)
		files.HEAD("/*path", h.ServeFile)
	}
}

type fullPather interface {
	FullPath(p string) (string, error)
}

// ServeFile streams a stored media or thumbnail file. Files under tmp/ are
// served only once a media row refers to them, so staged uploads stay hidden.
func (h *FileHandler) ServeFile(c *gin.Context) {
	key, err := storage.CleanPath(strings.TrimPrefix(c.Param("path"), "/"))
	if err != nil || key == "" || key == "tmp" {
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}

	ctx := c.Request.Context()
	if strings.HasPrefix(key, "tmp/") {
		published, err := h.media.IsPublished(ctx, h.GetDB(c), key)
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
		if !published {
			apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
			return
		}
	}

	contentType := mediaprobe.TypeByExtension(key)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Header("Content-Disposition", "inline")

	// local files go through http.ServeContent for range requests
	if lp, ok := h.storage.(fullPather); ok {
		full, err := lp.FullPath(key)
		if err == nil {
			if info, statErr := os.Stat(full); statErr == nil && !info.IsDir() {
				c.Header("Content-Type", contentType)
				c.File(full)
				return
			}
		}
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}

	size, err := h.storage.GetSize(ctx, key)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(size, 10))
	c.Header("ETag", fmt.Sprintf(`"%s-%d"`, path.Base(key), size))
	if c.Request.Method == http.MethodHead {
		c.Status(http.StatusOK)
		return
	}

	reader, err := h.storage.Get(ctx, key)
	if err != nil {
		apperrors.HandleError(c, apperrors.StorageError(err))
		return
	}
	defer reader.Close()

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		// headers already sent
		_ = c.Error(err)
	}
}
