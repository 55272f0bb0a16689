package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curtainbe/internal/domain"
)

func TestFetchContent(t *testing.T) {
	payload, err := json.Marshal(validContent())
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/link-1.json", r.URL.Path)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	store := newMemStore()
	store.baseURL = srv.URL
	store.blobs["link-1.json"] = payload

	f := NewFetcher(store, srv.Client(), slog.New(slog.DiscardHandler))
	content, err := f.FetchContent(context.Background(), &domain.Session{LinkID: "link-1", FileKey: "link-1.json"})
	require.NoError(t, err)
	assert.Equal(t, "Protein IDs", content.DifferentialForm.PrimaryIDs)
	assert.NotEmpty(t, content.Processed)
}

func TestFetchContent_MissingBlob(t *testing.T) {
	f := NewFetcher(newMemStore(), nil, slog.New(slog.DiscardHandler))
	_, err := f.FetchContent(context.Background(), &domain.Session{LinkID: "gone", FileKey: "gone.json"})
	require.Error(t, err)
}

func TestFetchContent_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	store := newMemStore()
	store.baseURL = srv.URL
	store.blobs["link-1.json"] = []byte("{}")

	f := NewFetcher(store, srv.Client(), slog.New(slog.DiscardHandler))
	_, err := f.FetchContent(context.Background(), &domain.Session{LinkID: "link-1", FileKey: "link-1.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchContent_InvalidPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"differentialForm": {}}`))
	}))
	defer srv.Close()

	store := newMemStore()
	store.baseURL = srv.URL
	store.blobs["link-1.json"] = []byte("{}")

	f := NewFetcher(store, srv.Client(), slog.New(slog.DiscardHandler))
	_, err := f.FetchContent(context.Background(), &domain.Session{LinkID: "link-1", FileKey: "link-1.json"})
	require.Error(t, err, "payload missing column roles is rejected")
}
