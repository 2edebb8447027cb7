package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileBlobStore keeps uploads in a local directory that the HTTP server
// exposes under BaseURL.
type FileBlobStore struct {
	Workdir string
	BaseURL string
}

// NewFileBlobStore creates a blob store rooted at workdir/uploads.
func NewFileBlobStore(workdir, baseURL string) *FileBlobStore {
	return &FileBlobStore{Workdir: workdir, BaseURL: strings.TrimSuffix(baseURL, "/")}
}

// UploadsDir is the directory served as /uploads/.
func (s *FileBlobStore) UploadsDir() string {
	return filepath.Join(s.Workdir, "uploads")
}

func (s *FileBlobStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(s.UploadsDir(), name), nil
}

// Upload writes the payload to a temporary file and renames it into place.
func (s *FileBlobStore) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) error {
	target, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.UploadsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.UploadsDir(), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close blob: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), target)
}

// Open returns the stored payload.
func (s *FileBlobStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	target, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(target)
}

// PublicURL returns the URL the blob is served at.
func (s *FileBlobStore) PublicURL(name string) string {
	return s.BaseURL + "/uploads/" + name
}
