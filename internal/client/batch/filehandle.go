// Package batch manages the list of files a user has staged for one
// workflow invocation.
package batch

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileHandle is one staged file. On creation the source is copied into an
// owned staging file, so later uploads are unaffected by changes to the
// original. The staging copy must be freed via Release on every exit path.
type FileHandle struct {
	Name        string
	Size        int64
	ContentType string

	stagingPath string
	releaseOnce sync.Once
}

// NewFileHandle stages the file at path and returns a handle owning the
// staged copy.
func NewFileHandle(path string) (*FileHandle, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	staging, err := os.CreateTemp("", "docforge-staging-*")
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}

	if _, err := io.Copy(staging, src); err != nil {
		staging.Close()
		_ = os.Remove(staging.Name())
		return nil, fmt.Errorf("stage %s: %w", path, err)
	}
	if err := staging.Close(); err != nil {
		_ = os.Remove(staging.Name())
		return nil, fmt.Errorf("close staging file: %w", err)
	}

	return &FileHandle{
		Name:        filepath.Base(path),
		Size:        fi.Size(),
		ContentType: contentTypeFor(path),
		stagingPath: staging.Name(),
	}, nil
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Open returns a reader over the staged copy. Callers must close it.
func (h *FileHandle) Open() (io.ReadCloser, error) {
	if h.stagingPath == "" {
		return nil, fmt.Errorf("file %s: handle released", h.Name)
	}
	return os.Open(h.stagingPath)
}

// Format returns the lower-cased extension without the dot ("pdf", "docx").
func (h *FileHandle) Format() string {
	ext := filepath.Ext(h.Name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// Release frees the staged copy. Safe to call more than once.
func (h *FileHandle) Release() {
	h.releaseOnce.Do(func() {
		if h.stagingPath != "" {
			_ = os.Remove(h.stagingPath)
			h.stagingPath = ""
		}
	})
}
