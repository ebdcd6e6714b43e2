package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/google/uuid"
)

// maxRetryDelay caps the exponential backoff between attempts
const maxRetryDelay = 10 * time.Second

// errPermanent marks failures which are not worth retrying
var errPermanent = errors.New("permanent failure")

// FetchError is returned when a media resource can't be retrieved
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetcherParams defines http fetcher behavior
type FetcherParams struct {
	UserAgent  string
	Timeout    time.Duration // per fetch, including all retries, 0 means no limit
	Retries    int           // additional attempts after the first one
	RetryDelay time.Duration // initial backoff delay
}

// HTTPFetcher downloads media resources over http
type HTTPFetcher struct {
	client *http.Client
	FetcherParams
}

// NewHTTPFetcher makes fetcher with the given client
func NewHTTPFetcher(client *http.Client, params FetcherParams) *HTTPFetcher {
	if params.Retries < 0 {
		params.Retries = 0
	}
	if params.RetryDelay <= 0 {
		params.RetryDelay = 300 * time.Millisecond
	}
	return &HTTPFetcher{client: client, FetcherParams: params}
}

// Fetch downloads url into dest. The body goes to a temporary file next to dest,
// which is renamed onto dest once complete, so dest is never left partially written.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	attempt := 0
	retrier := repeater.NewBackoff(f.Retries+1, f.RetryDelay, repeater.WithMaxDelay(maxRetryDelay))
	err := retrier.Do(ctx, func() error {
		attempt++
		if attempt > 1 {
			lgr.Printf("[DEBUG] retry %d for %s", attempt-1, url)
		}
		return f.fetchOnce(ctx, url, dest)
	}, errPermanent)
	if err != nil {
		return &FetchError{URL: url, Err: err}
	}
	return nil
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", errPermanent, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		if isPermanentStatus(resp.StatusCode) {
			return fmt.Errorf("%w: unexpected status code %d", errPermanent, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	tmp := dest + ".part-" + uuid.NewString()
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint:gosec // downloaded media is meant to be shared
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", errPermanent, err)
	}

	if _, err = io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("read body: %w", err)
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: close temp file: %w", errPermanent, err)
	}
	if err = os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: rename to %s: %w", errPermanent, dest, err)
	}
	return nil
}

// isPermanentStatus reports whether a non-2xx status should not be retried.
// Client errors are permanent except request timeout and rate limiting.
func isPermanentStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}
