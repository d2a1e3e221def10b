package pipeline

import (
	"errors"

	"github.com/glabrego/infopanel/internal/thumbnail"
)

// ErrEmptyFeedURL is returned when a refresh is requested without a feed URL.
var ErrEmptyFeedURL = errors.New("feed URL is not specified")

// Entry is one feed item in a refresh session.
type Entry struct {
	// Position is the zero-based index in the original feed, unique per session.
	Position    int
	Title       string
	Link        string
	Description string
	// Thumbnail starts as thumbnail.Placeholder() and is replaced once enrichment succeeds.
	Thumbnail      *thumbnail.Bitmap
	ThumbnailReady bool
}

// EntryEvent travels on the entries queue: either one Entry, or, when Done is
// set, the end-of-listing signal carrying the final entry count.
type EntryEvent struct {
	Generation uint64
	Entry      Entry
	Done       bool
	Total      int
}

// EnrichmentResult reports the thumbnail outcome for one position. A nil Image
// means no image: none was found, or fetching or decoding it failed.
type EnrichmentResult struct {
	Generation uint64
	Position   int
	Image      *thumbnail.Bitmap
}

func (r EnrichmentResult) NoImage() bool {
	return r.Image == nil
}

// Session is the consumer-side handle of one refresh.
type Session struct {
	ID         string
	Generation uint64
	FeedURL    string
	Entries    *Queue[EntryEvent]
	Results    *Queue[EnrichmentResult]
}
