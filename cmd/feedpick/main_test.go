package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedpick/pkg/domain"
	"github.com/umputun/feedpick/pkg/feed"
	"github.com/umputun/feedpick/pkg/query"
)

// newFeedServer serves a feed with three episodes, the second one has a broken enclosure
func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Show</title><link>%[1]s</link><description>test show</description>
<item><title>First</title><pubDate>Mon, 01 Jan 2024 10:00:00 +0000</pubDate>
<enclosure url="%[1]s/media/1.mp3" length="5" type="audio/mpeg"/></item>
<item><title>Second</title><pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate>
<enclosure url="%[1]s/missing.mp3" length="5" type="audio/mpeg"/></item>
<item><title>Third</title><pubDate>Wed, 03 Jan 2024 10:00:00 +0000</pubDate>
<enclosure url="%[1]s/media/3.mp3" length="5" type="audio/mpeg"/></item>
</channel></rss>`, srv.URL)
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("audio"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_Check(t *testing.T) {
	color.NoColor = true
	srv := newFeedServer(t)
	out := filepath.Join(t.TempDir(), "media")

	var buf bytes.Buffer
	err := run(context.Background(), Opts{URL: srv.URL + "/rss", Output: out, Query: "latest:2"}, "check", &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Show: 2 of 3 items matched")
	assert.Contains(t, buf.String(), "Second")
	assert.Contains(t, buf.String(), "Third")
	assert.NotContains(t, buf.String(), "First")
	assert.Contains(t, buf.String(), "to download run:")
	assert.NoDirExists(t, out)
}

func TestRun_Download(t *testing.T) {
	color.NoColor = true
	srv := newFeedServer(t)
	out := t.TempDir()

	t.Run("all succeed", func(t *testing.T) {
		var buf bytes.Buffer
		err := run(context.Background(), Opts{URL: srv.URL + "/rss", Output: out, Query: "number:{1, 3}", NDownloads: intPtr(2)}, "download", &buf)
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(out, "First.mp3"))
		require.NoError(t, err)
		assert.Equal(t, "audio", string(data))
		assert.FileExists(t, filepath.Join(out, "Third.mp3"))
		assert.Contains(t, buf.String(), "downloaded 2, failed 0")
	})

	t.Run("partial failure", func(t *testing.T) {
		var buf bytes.Buffer
		err := run(context.Background(), Opts{URL: srv.URL + "/rss", Output: out, Query: "notexists"}, "download", &buf)
		require.Error(t, err)
		assert.ErrorIs(t, err, errPartialDownload)
		assert.Equal(t, exitPartial, exitCode(err))
		assert.Contains(t, buf.String(), "failed  Second")
		assert.NoFileExists(t, filepath.Join(out, "Second.mp3"))
	})
}

func TestRun_Create(t *testing.T) {
	srv := newFeedServer(t)
	out := filepath.Join(t.TempDir(), "derived.xml")

	opts := Opts{URL: srv.URL + "/rss", Output: out, Query: "title:{first, third}"}
	opts.Create.Title = "picked"
	require.NoError(t, run(context.Background(), opts, "create", &bytes.Buffer{}))

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), Opts{File: out, Output: t.TempDir()}, "check", &buf))
	assert.Contains(t, buf.String(), "picked: 2 of 2 items matched")
}

func TestRun_Config(t *testing.T) {
	srv := newFeedServer(t)

	t.Run("missing config", func(t *testing.T) {
		err := run(context.Background(), Opts{URL: srv.URL + "/rss", Output: t.TempDir(), Config: "non-existent-config.yml"},
			"check", &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
		assert.Equal(t, exitConfig, exitCode(err))
	})

	t.Run("zero concurrency in config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(configPath, []byte("download:\n  max_concurrent: 0\n  retries: 0\n"), 0o600))
		out := t.TempDir()
		err := run(context.Background(), Opts{URL: srv.URL + "/rss", Output: out, Query: "number:1", Config: configPath},
			"download", &bytes.Buffer{})
		require.Error(t, err)
		assert.Equal(t, exitConfig, exitCode(err))
		assert.NoFileExists(t, filepath.Join(out, "First.mp3"))
	})

	t.Run("zero concurrency on command line", func(t *testing.T) {
		out := t.TempDir()
		opts, mode, err := parseOpts([]string{"-u", srv.URL + "/rss", "-o", out, "-q", "number:1", "-d", "0", "download"})
		require.NoError(t, err)
		require.NotNil(t, opts.NDownloads)
		assert.Equal(t, 0, *opts.NDownloads)

		err = run(context.Background(), opts, mode, &bytes.Buffer{})
		require.Error(t, err)
		assert.Equal(t, exitConfig, exitCode(err))
		var cfgErr *domain.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "ndownloads", cfgErr.Field)
		assert.NoFileExists(t, filepath.Join(out, "First.mp3"))
	})

	t.Run("command line overrides config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(configPath, []byte("download:\n  max_concurrent: 4\n"), 0o600))
		out := t.TempDir()
		opts, mode, err := parseOpts([]string{"-u", srv.URL + "/rss", "-o", out, "-q", "number:1", "-d", "2", "-c", configPath, "download"})
		require.NoError(t, err)
		require.NoError(t, run(context.Background(), opts, mode, &bytes.Buffer{}))
		assert.FileExists(t, filepath.Join(out, "First.mp3"))
	})

	t.Run("no command", func(t *testing.T) {
		err := run(context.Background(), Opts{URL: srv.URL + "/rss", Output: t.TempDir()}, "", &bytes.Buffer{})
		require.Error(t, err)
		assert.Equal(t, exitConfig, exitCode(err))
	})

	t.Run("invalid ndownloads", func(t *testing.T) {
		err := run(context.Background(), Opts{URL: srv.URL + "/rss", Output: t.TempDir(), NDownloads: intPtr(-1)}, "download", &bytes.Buffer{})
		assert.Equal(t, exitConfig, exitCode(err))
	})
}

func TestRun_Errors(t *testing.T) {
	srv := newFeedServer(t)

	err := run(context.Background(), Opts{URL: srv.URL + "/rss", Output: t.TempDir(), Query: "color:red"}, "check", &bytes.Buffer{})
	assert.Equal(t, exitParse, exitCode(err))

	err = run(context.Background(), Opts{URL: srv.URL + "/not-found", Output: t.TempDir()}, "check", &bytes.Buffer{})
	assert.Equal(t, exitLoad, exitCode(err))

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	err = run(context.Background(), Opts{URL: srv.URL + "/rss", Output: filepath.Join(blocker, "out.xml")}, "create", &bytes.Buffer{})
	assert.Equal(t, exitWrite, exitCode(err))
}

func TestParseOpts(t *testing.T) {
	opts, mode, err := parseOpts([]string{"-f", "feed.xml", "-o", "out.xml", "create", "-t", "picked"})
	require.NoError(t, err)
	assert.Equal(t, "create", mode)
	assert.Equal(t, "feed.xml", opts.File)
	assert.Equal(t, "picked", opts.Create.Title)
	assert.Nil(t, opts.NDownloads, "unset concurrency comes from config")

	_, mode, err = parseOpts([]string{"-u", "http://example.com/rss", "-o", "out"})
	require.NoError(t, err)
	assert.Empty(t, mode)

	_, _, err = parseOpts([]string{"-d", "many", "check"})
	require.Error(t, err)
}

func intPtr(v int) *int { return &v }

func TestExitCode(t *testing.T) {
	tbl := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{errors.New("boom"), exitUnexpected},
		{&query.ParseError{Query: "q", Token: "q", Expected: "x"}, exitParse},
		{&feed.LoadError{Source: feed.Source{File: "f"}, Err: os.ErrNotExist}, exitLoad},
		{&domain.ConfigError{Reason: "bad"}, exitConfig},
		{fmt.Errorf("%w: 1 of 2", errPartialDownload), exitPartial},
		{&domain.WriteError{Path: "p", Err: os.ErrPermission}, exitWrite},
		{fmt.Errorf("wrapped: %w", &domain.WriteError{Path: "p", Err: os.ErrPermission}), exitWrite},
	}
	for _, tt := range tbl {
		name := "nil"
		if tt.err != nil {
			name = strings.ReplaceAll(tt.err.Error(), " ", "_")
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestSetupLog(t *testing.T) {
	setupLog(true)
	setupLog(false)
}
