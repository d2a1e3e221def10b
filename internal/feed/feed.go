package feed

import (
	"context"
	"errors"
)

var (
	// ErrFetch marks transport failures and non-2xx responses.
	ErrFetch = errors.New("fetch failed")
	// ErrParse marks feed documents that could not be parsed.
	ErrParse = errors.New("parse feed")
	// ErrNotFound is returned when an entry body carries no usable image URL.
	ErrNotFound = errors.New("no image url")
)

// RawEntry is one parsed feed item. Entries are returned in document order.
type RawEntry struct {
	Title       string
	Link        string
	Description string
	// Body is the raw HTML used for thumbnail discovery: content when present, else description.
	Body string
	// ImageHint is the item-level image (media/enclosure) reported by the parser, if any.
	ImageHint string
}

// Fetcher performs one blocking network call.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser turns a raw feed document into entries.
type Parser interface {
	Parse(data []byte) ([]RawEntry, error)
}
