package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// localService implements Service on the local filesystem for development.
// Files land under cfg.LocalDir and are served from cfg.LocalBaseURL.
type localService struct {
	dir     string
	baseURL string
}

func newLocalService(cfg ServiceConfig) (*localService, error) {
	dir := cfg.LocalDir
	if dir == "" {
		dir = "uploads"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %q: %w", dir, err)
	}

	baseURL := cfg.LocalBaseURL
	if baseURL == "" {
		baseURL = "/uploads"
	}

	return &localService{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Store writes the content to disk and returns the URL it is served under.
// The key's directory part is flattened so uploads cannot escape the root.
func (l *localService) Store(ctx context.Context, key string, mimeType string, body io.Reader) (string, error) {
	name := filepath.Base(key)
	path := filepath.Join(l.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return fmt.Sprintf("%s/%s", l.baseURL, name), nil
}
