package view

import (
	"strings"

	"github.com/glabrego/infopanel/internal/pipeline"
	tuitheme "github.com/glabrego/infopanel/internal/tui/theme"
)

const (
	ListThumbCols = 6
	ListThumbRows = 2
)

type EntryLineParams struct {
	Entry   pipeline.Entry
	Compact bool
	Active  bool
	Width   int
	// Thumb holds the pre-rendered thumbnail rows. Ignored in compact mode.
	Thumb []string
}

// RowsPerEntry is the height of one entry in the list.
func RowsPerEntry(compact bool) int {
	if compact {
		return 1
	}
	return ListThumbRows
}

// RenderEntryLines draws one list entry: a single line in compact mode,
// otherwise the thumbnail with the title and the start of the description
// beside it.
func RenderEntryLines(p EntryLineParams, th tuitheme.Theme) []string {
	cursorMarker := "  "
	if p.Active {
		cursorMarker = "> "
	}
	title := strings.TrimSpace(p.Entry.Title)
	if title == "" {
		title = "(untitled)"
	}

	if p.Compact {
		loading := " "
		if !p.Entry.ThumbnailReady {
			loading = "~"
		}
		prefix := cursorMarker + loading + " "
		label := truncateRunes(title, max(1, p.Width-visibleLen(prefix)))
		return []string{th.RenderActiveLine(p.Active, prefix+th.StyleEntryTitle(p.Entry, label))}
	}

	lines := make([]string, 0, ListThumbRows)
	textWidth := max(1, p.Width-visibleLen(cursorMarker)-ListThumbCols-1)
	texts := []string{
		th.StyleEntryTitle(p.Entry, truncateRunes(title, textWidth)),
		th.Summary.Render(truncateRunes(strings.TrimSpace(p.Entry.Description), textWidth)),
	}
	for row := 0; row < ListThumbRows; row++ {
		thumb := strings.Repeat(" ", ListThumbCols)
		if row < len(p.Thumb) {
			thumb = p.Thumb[row]
		}
		marker := cursorMarker
		if row > 0 {
			marker = "  "
		}
		lines = append(lines, th.RenderActiveLine(p.Active, marker+thumb+" "+texts[row]))
	}
	return lines
}

type ListRenderInput struct {
	Entries []pipeline.Entry
	Start   int
	End     int
	Cursor  int

	RenderEntry func(entry pipeline.Entry, active bool) []string
}

func RenderListBody(in ListRenderInput) string {
	if len(in.Entries) == 0 || in.Start >= in.End || in.Start < 0 {
		return ""
	}
	end := min(in.End, len(in.Entries))
	var b strings.Builder
	for i := in.Start; i < end; i++ {
		for _, line := range in.RenderEntry(in.Entries[i], i == in.Cursor) {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
