// Package download retrieves enclosures of matched items with bounded concurrency.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/feedpick/pkg/domain"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher

// Fetcher retrieves a single resource into the destination file
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Scheduler runs downloads of matched items, at most maxConcurrent at a time
type Scheduler struct {
	fetcher       Fetcher
	maxConcurrent int
}

// NewScheduler makes scheduler with the given concurrency bound
func NewScheduler(fetcher Fetcher, maxConcurrent int) (*Scheduler, error) {
	if maxConcurrent <= 0 {
		return nil, &domain.ConfigError{Field: "max_concurrent", Reason: fmt.Sprintf("must be positive, got %d", maxConcurrent)}
	}
	if fetcher == nil {
		return nil, &domain.ConfigError{Field: "fetcher", Reason: "is required"}
	}
	return &Scheduler{fetcher: fetcher, maxConcurrent: maxConcurrent}, nil
}

// Run downloads enclosures of matches into dir. It returns one outcome per match, in match order.
// A failed download doesn't stop others, error is returned only if dir is not usable.
func (s *Scheduler) Run(ctx context.Context, matches []domain.Item, dir string) ([]domain.Outcome, error) {
	if err := preflight(dir); err != nil {
		return nil, err
	}

	outcomes := make([]domain.Outcome, len(matches))
	destinations := make(map[string]int, len(matches)) // dest -> item index

	var g errgroup.Group
	g.SetLimit(s.maxConcurrent)

	for i, item := range matches {
		dest := filepath.Join(dir, item.FileName())
		outcomes[i] = domain.Outcome{Index: item.Index, Title: item.Title, Path: dest}

		if !item.HasEnclosure() {
			lgr.Printf("[WARN] item %d %q has no enclosure, skipped", item.Index, item.Title)
			outcomes[i].Status = domain.StatusFailed
			outcomes[i].Reason = "no enclosure"
			continue
		}

		if prev, ok := destinations[dest]; ok {
			lgr.Printf("[WARN] items %d and %d are both saved to %s, the last one written wins", prev, item.Index, dest)
		}
		destinations[dest] = item.Index

		g.Go(func() error {
			outcomes[i] = s.download(ctx, item, outcomes[i])
			return nil
		})
	}

	_ = g.Wait() // workers never return errors, failures are in outcomes
	return outcomes, nil
}

// download fetches a single item and fills the outcome
func (s *Scheduler) download(ctx context.Context, item domain.Item, res domain.Outcome) domain.Outcome {
	lgr.Printf("[DEBUG] downloading item %d from %s to %s", item.Index, item.Enclosure.URL, res.Path)
	if err := s.fetcher.Fetch(ctx, item.Enclosure.URL, res.Path); err != nil {
		lgr.Printf("[WARN] failed to download item %d %q: %v", item.Index, item.Title, err)
		res.Status = domain.StatusFailed
		res.Reason = err.Error()
		return res
	}

	res.Status = domain.StatusSucceeded
	if fi, err := os.Stat(res.Path); err == nil {
		res.Size = fi.Size()
	}
	lgr.Printf("[INFO] downloaded item %d %q, %d bytes", item.Index, item.Title, res.Size)
	return res
}

// preflight makes sure dir exists and is writable before any work starts
func preflight(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &domain.WriteError{Path: dir, Err: err}
	}
	probe, err := os.CreateTemp(dir, ".feedpick-probe-*")
	if err != nil {
		return &domain.WriteError{Path: dir, Err: fmt.Errorf("directory is not writable: %w", err)}
	}
	name := probe.Name()
	_ = probe.Close()
	if err := os.Remove(name); err != nil {
		return &domain.WriteError{Path: dir, Err: fmt.Errorf("remove probe file: %w", err)}
	}
	return nil
}
