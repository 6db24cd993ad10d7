package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// imageMimes whitelists upload extensions and their mime types.
var imageMimes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// SafeExt normalizes an upload filename to a whitelisted extension,
// defaulting to jpg for anything unrecognized.
func SafeExt(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "jpeg" {
		ext = "jpg"
	}
	if _, ok := imageMimes[ext]; !ok {
		return "jpg"
	}
	return ext
}

// MimeForFilename returns the mime type for an upload filename.
func MimeForFilename(filename string) string {
	return imageMimes[SafeExt(filename)]
}

// UploadStore keeps locally uploaded character images on disk, referenced
// from the document by URL. Only the local medium constructs one; the remote
// medium stores images through the portrait sidecar path instead.
type UploadStore struct {
	rootDir string
}

// NewUploadStore initializes the uploads directory tree.
func NewUploadStore(rootDir string) (*UploadStore, error) {
	if err := os.MkdirAll(filepath.Join(rootDir, "characters"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &UploadStore{rootDir: rootDir}, nil
}

// Dir returns the directory uploads are served from.
func (u *UploadStore) Dir() string {
	return u.rootDir
}

// Save writes an uploaded image under characters/<id>.<ext> and returns the
// URL path it will be served at.
func (u *UploadStore) Save(characterID, filename string, data []byte) (string, error) {
	name := characterID + "." + SafeExt(filename)
	if err := os.WriteFile(filepath.Join(u.rootDir, "characters", name), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write upload %s: %w", name, err)
	}
	return "/uploads/characters/" + name, nil
}

// Remove deletes the uploaded file referenced by url. Absent files and other
// failures are tolerated; a stale file on disk must not fail a roster delete.
func (u *UploadStore) Remove(ctx context.Context, url string) {
	rel, ok := strings.CutPrefix(url, "/uploads/")
	if !ok || strings.Contains(rel, "..") {
		return
	}
	if err := os.Remove(filepath.Join(u.rootDir, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		slog.WarnContext(ctx, "Failed to delete uploaded image", "url", url, "err", err)
	}
}
