package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(retries int) *HTTPFetcher {
	return NewHTTPFetcher(&http.Client{Timeout: 5 * time.Second},
		FetcherParams{UserAgent: "feedpick-test", Retries: retries, RetryDelay: time.Millisecond})
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("media content"))
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "ep.mp3")
	require.NoError(t, newTestFetcher(0).Fetch(context.Background(), server.URL+"/ep.mp3", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "media content", string(data))
	assert.Equal(t, "feedpick-test", gotUA)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left")
}

func TestHTTPFetcher_Fetch_Overwrites(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("new"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "ep.mp3")
	require.NoError(t, os.WriteFile(dest, []byte("old content"), 0o600))
	require.NoError(t, newTestFetcher(0).Fetch(context.Background(), server.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestHTTPFetcher_Fetch_Retries(t *testing.T) {
	tbl := []struct {
		name      string
		statuses  []int // status per attempt, 200 writes the body
		retries   int
		wantErr   bool
		wantCalls int32
	}{
		{name: "server error then success", statuses: []int{500, 502, 200}, retries: 3, wantCalls: 3},
		{name: "not found is permanent", statuses: []int{404, 200}, retries: 3, wantErr: true, wantCalls: 1},
		{name: "forbidden is permanent", statuses: []int{403, 200}, retries: 3, wantErr: true, wantCalls: 1},
		{name: "rate limited is retried", statuses: []int{429, 200}, retries: 3, wantCalls: 2},
		{name: "request timeout is retried", statuses: []int{408, 200}, retries: 1, wantCalls: 2},
		{name: "retries exhausted", statuses: []int{500, 500, 500, 500}, retries: 2, wantErr: true, wantCalls: 3},
		{name: "no retries", statuses: []int{503, 200}, retries: 0, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				status := tt.statuses[min(int(n), len(tt.statuses))-1]
				if status != http.StatusOK {
					w.WriteHeader(status)
					return
				}
				_, _ = w.Write([]byte("ok"))
			}))
			defer server.Close()

			dir := t.TempDir()
			dest := filepath.Join(dir, "ep.mp3")
			err := newTestFetcher(tt.retries).Fetch(context.Background(), server.URL, dest)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))

			entries, rerr := os.ReadDir(dir)
			require.NoError(t, rerr)
			if tt.wantErr {
				require.Error(t, err)
				var fetchErr *FetchError
				require.ErrorAs(t, err, &fetchErr)
				assert.Equal(t, server.URL, fetchErr.URL)
				assert.Contains(t, err.Error(), "unexpected status code")
				assert.Empty(t, entries, "nothing written on failure")
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestHTTPFetcher_Fetch_BrokenBody(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("partial"))
	}))
	defer server.Close()

	dir := t.TempDir()
	err := newTestFetcher(1).Fetch(context.Background(), server.URL, filepath.Join(dir, "ep.mp3"))
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "body errors are retried")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial files are removed")
}

func TestHTTPFetcher_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	f := NewHTTPFetcher(&http.Client{}, FetcherParams{Timeout: 50 * time.Millisecond, RetryDelay: time.Millisecond})
	start := time.Now()
	err := f.Fetch(context.Background(), server.URL, filepath.Join(t.TempDir(), "ep.mp3"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestHTTPFetcher_Fetch_MissingDir(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	err := newTestFetcher(2).Fetch(context.Background(), server.URL, filepath.Join(t.TempDir(), "missing", "ep.mp3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create temp file")
}

func TestIsPermanentStatus(t *testing.T) {
	assert.True(t, isPermanentStatus(http.StatusNotFound))
	assert.True(t, isPermanentStatus(http.StatusUnauthorized))
	assert.False(t, isPermanentStatus(http.StatusTooManyRequests))
	assert.False(t, isPermanentStatus(http.StatusRequestTimeout))
	assert.False(t, isPermanentStatus(http.StatusInternalServerError))
	assert.False(t, isPermanentStatus(http.StatusOK))
}
