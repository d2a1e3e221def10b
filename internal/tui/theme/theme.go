package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/glabrego/infopanel/internal/news"
	"github.com/glabrego/infopanel/internal/pipeline"
)

type Theme struct {
	Title      lipgloss.Style
	ModePill   lipgloss.Style
	Section    lipgloss.Style
	Progress   lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	Summary    lipgloss.Style
	Input      lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style

	TitleReady   lipgloss.Style
	TitlePending lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		ModePill:     lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Section:      lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		Progress:     lipgloss.NewStyle().Foreground(cpYellow).Bold(true),
		ActiveLine:   lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:    lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:    lipgloss.NewStyle().Foreground(cpSubtext1),
		Summary:      lipgloss.NewStyle().Foreground(cpSubtext0),
		Input:        lipgloss.NewStyle().Foreground(cpLavender),
		StateIdle:    lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:    lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:    lipgloss.NewStyle().Foreground(cpPeach),
		TitleReady:   lipgloss.NewStyle().Bold(true).Foreground(cpText),
		TitlePending: lipgloss.NewStyle().Italic(true).Foreground(cpSubtext0),
	}
}

// StyleEntryTitle dims titles whose thumbnail is still loading.
func (t Theme) StyleEntryTitle(entry pipeline.Entry, title string) string {
	if title == "" {
		return title
	}
	if entry.ThumbnailReady {
		return t.TitleReady.Render(title)
	}
	return t.TitlePending.Render(title)
}

func (t Theme) StateStyle(state news.State) lipgloss.Style {
	switch state {
	case news.StateFetching, news.StateListing:
		return t.StateLoad
	default:
		return t.StateIdle
	}
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
