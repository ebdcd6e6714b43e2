package domain

import "time"

// Feed represents a loaded feed document with the channel metadata
// needed to produce a derived feed
type Feed struct {
	Title       string
	Link        string
	Description string
	Language    string
	Copyright   string
	Author      string
	ImageURL    string
	Published   time.Time
	Categories  []string
	Items       []Item
}
