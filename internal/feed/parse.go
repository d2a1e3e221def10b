package feed

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

// GofeedParser parses RSS, Atom and JSON Feed documents.
type GofeedParser struct{}

func NewGofeedParser() *GofeedParser {
	return &GofeedParser{}
}

// Parse returns the entries of data in document order.
// A gofeed.Parser keeps per-document state, so every call builds its own.
func (p *GofeedParser) Parse(data []byte) ([]RawEntry, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	entries := make([]RawEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		body := item.Content
		if strings.TrimSpace(body) == "" {
			body = item.Description
		}
		entries = append(entries, RawEntry{
			Title:       PlainText(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Description: PlainText(item.Description),
			Body:        body,
			ImageHint:   imageHint(item),
		})
	}
	return entries, nil
}

func imageHint(item *gofeed.Item) string {
	if item.Image != nil && strings.TrimSpace(item.Image.URL) != "" {
		return strings.TrimSpace(item.Image.URL)
	}
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enc.Type), "image/") && strings.TrimSpace(enc.URL) != "" {
			return strings.TrimSpace(enc.URL)
		}
	}
	return ""
}

var stripPolicy = bluemonday.StrictPolicy()

// PlainText strips markup from s and collapses whitespace.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}
