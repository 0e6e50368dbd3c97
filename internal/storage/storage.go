package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"peerlearn.app/server/core/config"
)

// ErrNotFound is returned by Open when no object exists at the path.
var ErrNotFound = errors.New("object not found")

// Storage keeps uploaded avatar images.
type Storage interface {
	// Upload stores data and returns its storage path.
	Upload(ctx context.Context, fileID uuid.UUID, filename, contentType string, data io.Reader) (string, error)
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

type Type string

const (
	TypeLocal Type = "local"
	TypeS3    Type = "s3"
)

func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch Type(cfg.Type) {
	case TypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	case TypeS3:
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// generateStoragePath shards by the first two characters of the id.
func generateStoragePath(fileID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	id := fileID.String()
	return fmt.Sprintf("avatars/%s/%s%s", id[:2], id, ext)
}

// ContentTypeFor maps an avatar path back to its image type.
func ContentTypeFor(storagePath string) string {
	switch strings.ToLower(path.Ext(storagePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// ExtensionFor is the inverse of ContentTypeFor for the accepted image types.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}
