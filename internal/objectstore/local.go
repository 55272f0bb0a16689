package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var _ Store = (*LocalStore)(nil)

// LocalStore keeps blobs on the local filesystem under a media directory and
// serves them through the API's /media/ route.
type LocalStore struct {
	mediaDir string
	baseURL  string
}

// NewLocalStore creates a store rooted at mediaDir. baseURL is the externally
// reachable server address, e.g. "http://localhost:8080".
func NewLocalStore(mediaDir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir %q: %w", mediaDir, err)
	}
	return &LocalStore{
		mediaDir: mediaDir,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// MediaDir returns the directory blobs are stored in, for the file server route.
func (s *LocalStore) MediaDir() string {
	return s.mediaDir
}

func (s *LocalStore) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	cleaned, err := s.safePath(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(cleaned); err != nil {
		return "", fmt.Errorf("stat %q: %w", key, err)
	}
	return s.baseURL + "/media/" + url.PathEscape(key), nil
}

func (s *LocalStore) Put(_ context.Context, key string, body io.Reader) error {
	path, err := s.safePath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %q: %w", key, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", key, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return f.Close()
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := s.safePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// safePath rejects keys that would escape the media directory.
func (s *LocalStore) safePath(key string) (string, error) {
	cleaned := filepath.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid file key %q", key)
	}
	return filepath.Join(s.mediaDir, cleaned), nil
}
