package scrape

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileSystemSnapshotSink saves raw page bodies to disk under
// content-hash filenames so a crawl can be replayed offline.
type FileSystemSnapshotSink struct {
	root     string
	maxBytes int64
	hasher   Hasher
	logger   *zap.Logger
}

// NewFileSystemSnapshotSink returns a snapshot sink rooted at dir.
func NewFileSystemSnapshotSink(root string, maxBytes int64, hasher Hasher, logger *zap.Logger) (*FileSystemSnapshotSink, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot dir %s: %w", root, err)
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &FileSystemSnapshotSink{
		root:     root,
		maxBytes: maxBytes,
		hasher:   hasher,
		logger:   logger,
	}, nil
}

// SaveHTML writes the page body to disk and returns the target path.
func (s *FileSystemSnapshotSink) SaveHTML(ctx context.Context, page Page) (string, error) {
	if len(page.Body) == 0 {
		return "", fmt.Errorf("empty page body")
	}
	if int64(len(page.Body)) > s.maxBytes {
		return "", fmt.Errorf("page size %d exceeds max %d", len(page.Body), s.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	hash, err := s.hasher.Hash(page.Body)
	if err != nil {
		return "", fmt.Errorf("hash page body: %w", err)
	}
	site := page.Site()
	target := filepath.Join(s.root, site, fmt.Sprintf("%s.html", hash))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("creating snapshot dir for %s: %w", target, err)
	}
	if err := os.WriteFile(target, page.Body, 0o600); err != nil {
		return "", fmt.Errorf("writing snapshot to %s: %w", target, err)
	}
	return target, nil
}
