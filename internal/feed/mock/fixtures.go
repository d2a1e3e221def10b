package mock

import (
	"bytes"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"strings"
)

// Item describes one <item> of a generated RSS document.
type Item struct {
	Title    string
	Link     string
	ImageURL string
}

// RSS renders items as an RSS 2.0 document. Items with an ImageURL get an
// <img> in content:encoded.
func RSS(items ...Item) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/"><channel><title>fixture</title>`)
	for _, it := range items {
		b.WriteString("<item>")
		fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(it.Title))
		fmt.Fprintf(&b, "<link>%s</link>", html.EscapeString(it.Link))
		fmt.Fprintf(&b, "<description>%s</description>", html.EscapeString("About "+it.Title))
		if it.ImageURL != "" {
			fmt.Fprintf(&b, `<content:encoded><![CDATA[<p><img src="%s"> %s</p>]]></content:encoded>`, it.ImageURL, it.Title)
		}
		b.WriteString("</item>")
	}
	b.WriteString("</channel></rss>")
	return []byte(b.String())
}

// PNG encodes a w×h image filled with c.
func PNG(w, h int, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
