package view

import (
	"strings"

	"github.com/glabrego/infopanel/internal/pipeline"
)

const (
	DetailThumbCols = 32
	DetailThumbRows = 8
)

func DetailMetaLines(entry pipeline.Entry, width int, wrap WrapFunc) []string {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = "(untitled)"
	}
	lines := make([]string, 0, 8)
	lines = append(lines, wrap(title, width)...)
	lines = append(lines, strings.Repeat("=", max(1, min(width, visibleLen(title)))))
	lines = append(lines, "")
	if entry.Link != "" {
		lines = append(lines, wrap("URL: "+entry.Link, width)...)
	}
	if !entry.ThumbnailReady {
		lines = append(lines, "Image: loading")
	} else if entry.Thumbnail == nil || entry.Thumbnail.IsPlaceholder() {
		lines = append(lines, "Image: none")
	}
	return lines
}

// DetailLines lays out the detail view: metadata, the centered thumbnail,
// then the wrapped description.
func DetailLines(entry pipeline.Entry, contentWidth, horizontalMargin int, wrap WrapFunc, thumb []string) []string {
	lines := DetailMetaLines(entry, contentWidth, wrap)
	if len(thumb) > 0 {
		lines = append(lines, "")
		lines = append(lines, centerLines(thumb, contentWidth)...)
	}
	if desc := strings.TrimSpace(entry.Description); desc != "" {
		lines = append(lines, "")
		lines = append(lines, wrap(desc, contentWidth)...)
	}
	return leftPadLines(lines, horizontalMargin)
}

func DetailMaxTop(linesLen, bodyHeight int) int {
	maxTop := linesLen - bodyHeight
	if maxTop < 0 {
		return 0
	}
	return maxTop
}

func RenderDetailLines(lines []string, top, maxLines int) string {
	if len(lines) == 0 {
		return ""
	}
	if top < 0 {
		top = 0
	}
	if top > len(lines)-1 {
		top = len(lines) - 1
	}
	end := len(lines)
	if maxLines > 0 && top+maxLines < end {
		end = top + maxLines
	}
	return strings.Join(lines[top:end], "\n") + "\n"
}
