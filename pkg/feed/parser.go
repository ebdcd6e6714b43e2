package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/feedpick/pkg/domain"
)

// Source points to the feed, either remote URL or local file
type Source struct {
	URL  string
	File string
}

// String returns the url or the file name, whichever is set
func (s Source) String() string {
	if s.URL != "" {
		return s.URL
	}
	return s.File
}

// LoadError is returned for any failure to retrieve or parse a feed
type LoadError struct {
	Source Source
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load feed %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Parser loads RSS/Atom/JSON feeds and converts them to domain.Feed
type Parser struct {
	client    *http.Client
	userAgent string
}

// NewParser creates a new feed parser with the given http client
func NewParser(client *http.Client, userAgent string) *Parser {
	return &Parser{client: client, userAgent: userAgent}
}

// Load retrieves the feed from src and returns all its items in document order
func (p *Parser) Load(ctx context.Context, src Source) (*domain.Feed, error) {
	if (src.URL == "") == (src.File == "") {
		return nil, &LoadError{Source: src, Err: errors.New("exactly one of url or file is required")}
	}

	body, err := p.open(ctx, src)
	if err != nil {
		return nil, &LoadError{Source: src, Err: err}
	}
	defer body.Close()

	parsed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, &LoadError{Source: src, Err: fmt.Errorf("parse feed: %w", err)}
	}
	return convertFeed(parsed), nil
}

// open returns the raw feed document
func (p *Parser) open(ctx context.Context, src Source) (io.ReadCloser, error) {
	if src.File != "" {
		f, err := os.Open(src.File)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	addFeedHeaders(req, p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func convertFeed(f *gofeed.Feed) *domain.Feed {
	res := &domain.Feed{
		Title:       f.Title,
		Link:        f.Link,
		Description: f.Description,
		Language:    f.Language,
		Copyright:   f.Copyright,
		Categories:  f.Categories,
		Items:       make([]domain.Item, 0, len(f.Items)),
	}
	if f.Author != nil {
		res.Author = f.Author.Name
	}
	if f.Image != nil {
		res.ImageURL = f.Image.URL
	}
	if f.PublishedParsed != nil {
		res.Published = *f.PublishedParsed
	} else if f.UpdatedParsed != nil {
		res.Published = *f.UpdatedParsed
	}

	for _, it := range f.Items {
		if it == nil {
			continue
		}
		res.Items = append(res.Items, convertItem(len(res.Items)+1, it))
	}
	return res
}

func convertItem(index int, it *gofeed.Item) domain.Item {
	item := domain.Item{
		Index:       index,
		GUID:        it.GUID,
		Title:       strings.TrimSpace(it.Title),
		Link:        it.Link,
		Description: it.Description,
		Categories:  it.Categories,
	}
	if it.Author != nil {
		item.Author = it.Author.Name
	}

	// published falls back to updated, atom entries often carry only the latter
	if it.PublishedParsed != nil {
		item.Published = *it.PublishedParsed
	} else if it.UpdatedParsed != nil {
		item.Published = *it.UpdatedParsed
	}

	for _, enc := range it.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		item.Enclosure = domain.Enclosure{URL: enc.URL, Type: enc.Type}
		if n, err := strconv.ParseInt(strings.TrimSpace(enc.Length), 10, 64); err == nil && n > 0 {
			item.Enclosure.Length = n
		}
		break
	}
	return item
}
