package view

import (
	"strings"
	"testing"

	"github.com/glabrego/infopanel/internal/pipeline"
	tuitheme "github.com/glabrego/infopanel/internal/tui/theme"
)

func TestRenderEntryLines_Compact(t *testing.T) {
	th := tuitheme.Default()
	lines := RenderEntryLines(EntryLineParams{
		Entry:   pipeline.Entry{Title: "Compact entry", ThumbnailReady: false},
		Compact: true,
		Active:  true,
		Width:   40,
	}, th)
	if len(lines) != 1 {
		t.Fatalf("expected one line in compact mode, got %d", len(lines))
	}
	plain := stripANSI(lines[0])
	if !strings.HasPrefix(plain, "> ~ Compact entry") {
		t.Fatalf("expected cursor and loading markers, got %q", plain)
	}
}

func TestRenderEntryLines_WithThumbnail(t *testing.T) {
	th := tuitheme.Default()
	lines := RenderEntryLines(EntryLineParams{
		Entry: pipeline.Entry{
			Title:          "Full entry",
			Description:    "A short summary",
			ThumbnailReady: true,
		},
		Width: 60,
		Thumb: []string{"AAAAAA", "BBBBBB"},
	}, th)
	if len(lines) != ListThumbRows {
		t.Fatalf("expected %d lines, got %d", ListThumbRows, len(lines))
	}
	if got := stripANSI(lines[0]); got != "  AAAAAA Full entry" {
		t.Fatalf("unexpected title row: %q", got)
	}
	if got := stripANSI(lines[1]); got != "  BBBBBB A short summary" {
		t.Fatalf("unexpected summary row: %q", got)
	}
}

func TestRenderEntryLines_TruncatesToWidth(t *testing.T) {
	th := tuitheme.Default()
	lines := RenderEntryLines(EntryLineParams{
		Entry:   pipeline.Entry{Title: strings.Repeat("x", 100)},
		Compact: true,
		Width:   20,
	}, th)
	if got := visibleLen(lines[0]); got != 20 {
		t.Fatalf("expected line width 20, got %d (%q)", got, stripANSI(lines[0]))
	}
}

func TestRenderListBody_Window(t *testing.T) {
	entries := []pipeline.Entry{{Position: 0, Title: "a"}, {Position: 1, Title: "b"}, {Position: 2, Title: "c"}}
	body := RenderListBody(ListRenderInput{
		Entries: entries,
		Start:   1,
		End:     3,
		Cursor:  2,
		RenderEntry: func(e pipeline.Entry, active bool) []string {
			if active {
				return []string{"*" + e.Title}
			}
			return []string{e.Title}
		},
	})
	if body != "b\n*c\n" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestWrapText(t *testing.T) {
	got := WrapText("the quick brown fox", 9)
	want := []string{"the quick", "brown fox"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected wrap: %q", got)
	}
	got = WrapText("abcdefghij", 4)
	if strings.Join(got, "|") != "abcd|efgh|ij" {
		t.Fatalf("unexpected hard split: %q", got)
	}
}

func TestWrapText_WideRunes(t *testing.T) {
	got := WrapText("日本語のニュース", 4)
	if strings.Join(got, "|") != "日本|語の|ニュ|ース" {
		t.Fatalf("unexpected wide wrap: %q", got)
	}
	if got := WrapText("日本", 1); strings.Join(got, "|") != "日|本" {
		t.Fatalf("expected progress on too-narrow width, got %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("Schlagzeilen des Tages", 10); got != "Schlagz..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateRunes("abcdef", 2); got != ".." {
		t.Fatalf("unexpected narrow truncation: %q", got)
	}
	if got := truncateRunes("short", 10); got != "short" {
		t.Fatalf("short strings must be untouched: %q", got)
	}
}
