package view

import (
	"fmt"
	"strings"

	"github.com/glabrego/infopanel/internal/news"
	tuitheme "github.com/glabrego/infopanel/internal/tui/theme"
)

func Toolbar(inDetail, editing bool) string {
	if editing {
		return "enter save | esc cancel"
	}
	if inDetail {
		return "j/k scroll | [ ] prev/next | o open | y copy | esc back | ? help"
	}
	return "j/k move | enter open | r refresh | e feed URL | c compact | ? help | q quit"
}

// ProgressLabel renders thumbnail progress as completed/total, with "?" until
// the feed has been fully listed.
func ProgressLabel(p news.Progress) string {
	if !p.TotalKnown {
		return fmt.Sprintf("%d/?", p.Completed)
	}
	return fmt.Sprintf("%d/%d", p.Completed, p.Total)
}

func Footer(p news.Progress, feedURL string, compact bool, th tuitheme.Theme) string {
	layout := "full"
	if compact {
		layout = "compact"
	}
	if strings.TrimSpace(feedURL) == "" {
		feedURL = "(not set)"
	}
	parts := []string{
		th.MetaLabel.Render("state") + " " + th.StateStyle(p.State).Render(p.State.String()),
		th.MetaLabel.Render("thumbnails") + " " + th.Progress.Render(ProgressLabel(p)),
		th.MetaValue.Render(fmt.Sprintf("%d entries", p.Entries)),
		th.MetaLabel.Render("layout") + " " + th.MetaValue.Render(layout),
		th.MetaLabel.Render("feed") + " " + th.MetaValue.Render(feedURL),
	}
	return strings.Join(parts, " • ")
}

func Message(inProgress bool, status, warning string, th tuitheme.Theme) string {
	state := "idle"
	stateLabel := th.StateIdle.Render("state")
	if inProgress {
		state = "loading"
		stateLabel = th.StateLoad.Render("state")
	}
	if warning != "" {
		state = "warning"
		stateLabel = th.StateWarn.Render("state")
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if warning != "" {
		main = warning
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}

// EmptyListMessage is shown in place of the list body when there is nothing to draw.
func EmptyListMessage(p news.Progress) string {
	switch p.State {
	case news.StateIdle:
		return "Press r to load the feed."
	case news.StateFetching:
		return "Loading feed..."
	default:
		return "No entries."
	}
}

func HelpLines() []string {
	return []string{
		"Navigation:",
		"  j/k or arrows move, g/G jump top/bottom, pgup/pgdown jump page",
		"Modes:",
		"  enter opens detail, esc/backspace returns to list, [ ] step entries in detail",
		"Feed:",
		"  r refresh, e edit feed URL (enter saves, esc cancels)",
		"Actions:",
		"  o open link in browser, y copy link",
		"Options:",
		"  c compact list",
	}
}
