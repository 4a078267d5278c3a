package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/critterdex/internal/config"
	"github.com/IshaanNene/critterdex/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testPage = `<html><head><title>Koi | Animal Crossing Wiki | Fandom</title></head></html>`

func newTestFetcher(t *testing.T) *HTTPFetcher {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Fetcher.UserAgents = []string{"ua-one", "ua-two"}
	f, err := NewHTTPFetcher(cfg, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func fetch(t *testing.T, f Fetcher, url string) (*types.Response, error) {
	t.Helper()
	req, err := types.NewRequest(url)
	require.NoError(t, err)
	return f.Fetch(context.Background(), req)
}

func TestHTTPFetcherPlain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	resp, err := fetch(t, newTestFetcher(t), srv.URL+"/wiki/Koi")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, testPage, string(resp.Body))
	assert.Equal(t, srv.URL+"/wiki/Koi", resp.FinalURL)
}

func TestHTTPFetcherDecompresses(t *testing.T) {
	var gz, br bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(testPage))
	require.NoError(t, gw.Close())
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write([]byte(testPage))
	require.NoError(t, bw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(gz.Bytes())
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(br.Bytes())
		}
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	for _, path := range []string{"/gzip", "/br"} {
		resp, err := fetch(t, f, srv.URL+path)
		require.NoError(t, err, path)
		assert.Equal(t, testPage, string(resp.Body), path)
	}
}

func TestHTTPFetcherNon2xxIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone fishing", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fetch(t, newTestFetcher(t), srv.URL+"/wiki/Nothing")
	require.Error(t, err)

	var fetchErr *types.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, fetchErr.Error(), "gone fishing")
}

func TestHTTPFetcherRotatesUserAgents(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("User-Agent"))
	}))
	defer srv.Close()

	f := newTestFetcher(t)
	for i := 0; i < 3; i++ {
		_, err := fetch(t, f, srv.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"ua-two", "ua-one", "ua-two"}, seen)
}

func TestNewRejectsUnknownType(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Fetcher.Type = "telnet"
	_, err := New(cfg, testLogger)
	assert.Error(t, err)
}
