// Package runner dispatches a single run: load the feed, select items with the query
// and then check, download or create a derived feed.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/feedpick/pkg/domain"
	"github.com/umputun/feedpick/pkg/download"
	"github.com/umputun/feedpick/pkg/feed"
	"github.com/umputun/feedpick/pkg/query"
)

//go:generate moq -out mocks/loader.go -pkg mocks -skip-ensure -fmt goimports . Loader

// Mode selects what to do with matched items
type Mode string

// run modes
const (
	ModeCheck    Mode = "check"
	ModeDownload Mode = "download"
	ModeCreate   Mode = "create"
)

// Loader loads the feed with all its items
type Loader interface {
	Load(ctx context.Context, src feed.Source) (*domain.Feed, error)
}

// Config is the run configuration, not changed by Run
type Config struct {
	Mode          Mode
	URL           string // feed url, exclusive with File
	File          string // local feed file, exclusive with URL
	Output        string // download directory, or the feed file for create
	Query         string
	MaxConcurrent int    // download concurrency bound
	Title         string // title of the created feed, optional
}

// source returns feed source of the config
func (c Config) source() feed.Source {
	return feed.Source{URL: c.URL, File: c.File}
}

// Runner executes runs with the given loader and media fetcher
type Runner struct {
	loader    Loader
	fetcher   download.Fetcher
	generator *feed.Generator
}

// New makes runner
func New(loader Loader, fetcher download.Fetcher) *Runner {
	return &Runner{loader: loader, fetcher: fetcher, generator: feed.NewGenerator()}
}

// Run validates cfg, parses the query, loads the feed, evaluates the query and performs the mode.
// Errors are typed: *domain.ConfigError, *query.ParseError, *feed.LoadError or *domain.WriteError.
// Failed downloads are not errors, they are reported in Report.Outcomes.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	pred, err := query.Parse(cfg.Query)
	if err != nil {
		return nil, err
	}
	lgr.Printf("[DEBUG] query %q parsed as %q", cfg.Query, pred)

	fd, err := r.loader.Load(ctx, cfg.source())
	if err != nil {
		return nil, err
	}
	lgr.Printf("[INFO] loaded %d items from %s", len(fd.Items), cfg.source())

	var qctx query.Context
	if query.NeedsContext(pred) {
		if qctx, err = query.NewContext(cfg.Output); err != nil {
			return nil, &domain.WriteError{Path: cfg.Output, Err: err}
		}
	}

	matches, err := query.Evaluate(fd.Items, pred, qctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate query: %w", err)
	}
	lgr.Printf("[INFO] %d of %d items matched", len(matches), len(fd.Items))

	report := &Report{Mode: cfg.Mode, FeedTitle: fd.Title, Query: cfg.Query, Total: len(fd.Items), Matches: matches}

	switch cfg.Mode {
	case ModeCheck:
		report.Hint = downloadHint(cfg)
	case ModeDownload:
		sched, err := download.NewScheduler(r.fetcher, cfg.MaxConcurrent)
		if err != nil {
			return nil, err
		}
		if report.Outcomes, err = sched.Run(ctx, matches, cfg.Output); err != nil {
			return nil, err
		}
	case ModeCreate:
		title := cfg.Title
		if title == "" {
			title = fd.Title + "-" + cfg.Query
		}
		if err := r.create(fd, matches, title, cfg.Output); err != nil {
			return nil, err
		}
		report.Output = cfg.Output
	}
	return report, nil
}

// create writes the derived feed to path, creating its directory
func (r *Runner) create(fd *domain.Feed, matches []domain.Item, title, path string) error {
	rss, err := r.generator.GenerateRSS(fd, matches, title)
	if err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return &domain.WriteError{Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, []byte(rss), 0o644); err != nil { //nolint:gosec // feed is meant to be published
		return &domain.WriteError{Path: path, Err: err}
	}
	lgr.Printf("[INFO] created feed %s with %d items", path, len(matches))
	return nil
}

// validate checks the run configuration before any work
func validate(cfg Config) error {
	switch cfg.Mode {
	case ModeCheck, ModeDownload, ModeCreate:
	default:
		return &domain.ConfigError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", cfg.Mode)}
	}
	if cfg.URL == "" && cfg.File == "" {
		return &domain.ConfigError{Field: "source", Reason: "either url or file is required"}
	}
	if cfg.URL != "" && cfg.File != "" {
		return &domain.ConfigError{Field: "source", Reason: "url and file are mutually exclusive"}
	}
	if cfg.Output == "" {
		return &domain.ConfigError{Field: "output", Reason: "is required"}
	}
	if cfg.Mode == ModeDownload && cfg.MaxConcurrent <= 0 {
		return &domain.ConfigError{Field: "ndownloads", Reason: fmt.Sprintf("must be positive, got %d", cfg.MaxConcurrent)}
	}
	return nil
}

// downloadHint returns the command line downloading what check has matched
func downloadHint(cfg Config) string {
	src := "-u " + shellQuote(cfg.URL)
	if cfg.File != "" {
		src = "-f " + shellQuote(cfg.File)
	}
	res := fmt.Sprintf("feedpick %s -o %s", src, shellQuote(cfg.Output))
	if cfg.Query != "" {
		res += " -q " + shellQuote(cfg.Query)
	}
	if cfg.MaxConcurrent > 1 {
		res += fmt.Sprintf(" -d %d", cfg.MaxConcurrent)
	}
	return res + " download"
}
