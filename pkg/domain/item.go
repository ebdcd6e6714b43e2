package domain

import "time"

// Item represents a single entry of a loaded feed.
// Items are created once by the feed loader and never modified afterwards.
type Item struct {
	Index       int // 1-based position in the source document
	GUID        string
	Title       string
	Link        string
	Description string
	Author      string
	Published   time.Time // zero if the feed has no date for the item
	Enclosure   Enclosure
	Categories  []string
}

// Enclosure represents the media resource attached to an item
type Enclosure struct {
	URL    string
	Type   string // MIME type as declared by the feed
	Length int64  // declared length in bytes, 0 if unknown
}

// HasEnclosure reports whether the item carries a downloadable resource
func (i Item) HasEnclosure() bool {
	return i.Enclosure.URL != ""
}

// HasPublished reports whether the item has a publication timestamp
func (i Item) HasPublished() bool {
	return !i.Published.IsZero()
}

// Status is the final state of a single download
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome is the result of downloading one matched item
type Outcome struct {
	Index  int
	Title  string
	Path   string
	Status Status
	Reason string // failure reason, empty on success
	Size   int64  // bytes written, set on success
}

// Failed reports whether the download did not complete
func (o Outcome) Failed() bool {
	return o.Status != StatusSucceeded
}
