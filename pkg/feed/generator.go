package feed

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/umputun/feedpick/pkg/domain"
)

// generatorName is written to the generator element of created feeds
const generatorName = "feedpick"

// Generator creates RSS feeds from selected items
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a new feed generator
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// GenerateRSS creates an RSS 2.0 document with items, keeping channel metadata of src.
// Items are written in the given order.
func (g *Generator) GenerateRSS(src *domain.Feed, items []domain.Item, title string) (string, error) {
	if src == nil {
		src = &domain.Feed{}
	}

	channel := &RSSChannel{
		Title:         title,
		Link:          src.Link,
		Description:   src.Description,
		Language:      src.Language,
		Copyright:     src.Copyright,
		LastBuildDate: g.now().Format(time.RFC1123Z),
		Generator:     generatorName,
		Categories:    src.Categories,
		Items:         make([]*RSSItem, 0, len(items)),
	}
	if src.ImageURL != "" {
		channel.Image = &RSSImage{URL: src.ImageURL, Title: title, Link: src.Link}
	}

	for _, item := range items {
		channel.Items = append(channel.Items, convertToRSSItem(item))
	}

	output, err := xml.MarshalIndent(&RSS{Version: "2.0", Channel: channel}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}

	// add XML declaration
	return xml.Header + string(output), nil
}

func convertToRSSItem(item domain.Item) *RSSItem {
	res := &RSSItem{
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Author:      item.Author,
		Categories:  item.Categories,
	}
	if item.GUID != "" {
		res.GUID = &RSSGUID{Value: item.GUID, IsPermaLink: "false"}
	}
	if item.HasPublished() {
		res.PubDate = item.Published.Format(time.RFC1123Z)
	}
	if item.HasEnclosure() {
		res.Enclosure = &RSSEnclosure{URL: item.Enclosure.URL, Length: item.Enclosure.Length, Type: item.Enclosure.Type}
	}
	return res
}
