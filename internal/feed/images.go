package feed

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attributes checked on <img>, in order. Some feeds only fill the lazy-loading ones.
var imageSourceAttrs = []string{"src", "data-src", "data-original", "data-lazy-src"}

// ExtractImageURL returns the first <img> source found in body, resolved against base.
// Embedded data: URIs and non-http(s) sources are skipped. ErrNotFound is returned when
// nothing usable is present.
func ExtractImageURL(body, base string) (string, error) {
	if !strings.Contains(strings.ToLower(body), "<img") {
		return "", ErrNotFound
	}

	z := html.NewTokenizer(strings.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", ErrNotFound
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.Img {
				continue
			}
			if resolved, ok := resolveImageURL(imageSource(tok), base); ok {
				return resolved, nil
			}
		}
	}
}

func imageSource(tok html.Token) string {
	for _, key := range imageSourceAttrs {
		for _, a := range tok.Attr {
			if strings.EqualFold(a.Key, key) && strings.TrimSpace(a.Val) != "" {
				return strings.TrimSpace(a.Val)
			}
		}
	}
	return ""
}

func resolveImageURL(raw, base string) (string, bool) {
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !ref.IsAbs() {
		baseURL, err := url.Parse(strings.TrimSpace(base))
		if err != nil || !baseURL.IsAbs() {
			return "", false
		}
		ref = baseURL.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	if ref.Host == "" {
		return "", false
	}
	return ref.String(), true
}

// ImageURLFor picks the thumbnail source for an entry: the body first, then the
// parser's item-level hint.
func ImageURLFor(entry RawEntry) (string, error) {
	found, err := ExtractImageURL(entry.Body, entry.Link)
	if err == nil {
		return found, nil
	}
	if hint, ok := resolveImageURL(entry.ImageHint, entry.Link); ok {
		return hint, nil
	}
	return "", fmt.Errorf("entry %q: %w", entry.Title, err)
}
