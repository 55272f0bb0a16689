package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"curtainbe/internal/domain"
	"curtainbe/internal/objectstore"
)

const (
	fetchURLTTL    = 15 * time.Minute
	maxContentSize = 512 << 20 // 512 MiB
)

// Fetcher downloads and decodes stored session payloads. The object store
// resolves a session's file key to a URL; the payload is fetched over HTTP so
// that both local and presigned S3 URLs work the same way.
type Fetcher struct {
	store      objectstore.Store
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher. A nil httpClient falls back to a client with
// a generous timeout suited to large session payloads.
func NewFetcher(store objectstore.Store, httpClient *http.Client, logger *slog.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Fetcher{
		store:      store,
		httpClient: httpClient,
		logger:     logger.With("component", "session_fetcher"),
	}
}

// FetchContent retrieves and decodes the payload for a session.
func (f *Fetcher) FetchContent(ctx context.Context, s *domain.Session) (*Content, error) {
	url, err := f.store.URL(ctx, s.FileKey, fetchURLTTL)
	if err != nil {
		return nil, fmt.Errorf("resolve session file %q: %w", s.LinkID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for session %q: %w", s.LinkID, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch session %q: %w", s.LinkID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch session %q: unexpected status %d", s.LinkID, resp.StatusCode)
	}

	var content Content
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxContentSize))
	if err := dec.Decode(&content); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", s.LinkID, err)
	}
	if err := content.Validate(); err != nil {
		return nil, fmt.Errorf("session %q: %w", s.LinkID, err)
	}

	f.logger.Debug("fetched session content", "link_id", s.LinkID,
		"processed_bytes", len(content.Processed), "raw_bytes", len(content.Raw))
	return &content, nil
}
