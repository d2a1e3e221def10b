package tui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"

	"github.com/glabrego/infopanel/internal/app"
	"github.com/glabrego/infopanel/internal/news"
	"github.com/glabrego/infopanel/internal/pipeline"
	"github.com/glabrego/infopanel/internal/storage"
	"github.com/glabrego/infopanel/internal/tui/actions"
	"github.com/glabrego/infopanel/internal/tui/platform"
	tuistate "github.com/glabrego/infopanel/internal/tui/state"
	tuitheme "github.com/glabrego/infopanel/internal/tui/theme"
	"github.com/glabrego/infopanel/internal/tui/view"
)

const (
	frameInterval      = 50 * time.Millisecond
	thumbnailCacheSize = 256
)

type Service interface {
	actions.Store
	FeedURL() string
	UseFeedURL(feedURL string)
	Refresh(ctx context.Context) error
	Tick() (storage.Refresh, bool)
	InProgress() bool
	Progress() news.Progress
	Entries() []pipeline.Entry
}

// frameMsg drives the aggregator. Frames are only scheduled while a session
// is in progress.
type frameMsg struct{}

type refreshRequestMsg struct {
	source string
}

type clearStatusMsg struct {
	id int
}

type Preferences struct {
	Compact bool
}

type Model struct {
	ctx     context.Context
	service Service
	theme   tuitheme.Theme
	thumbs  *view.ThumbnailRenderer

	entries  []pipeline.Entry
	progress news.Progress
	ticking  bool

	cursor     int
	trackedPos int
	tracked    bool

	compact   bool
	showHelp  bool
	inDetail  bool
	detailTop int
	editing   bool
	input     textinput.Model

	width    int
	height   int
	status   string
	statusID int
	err      error

	schedule  cron.Schedule
	nowFn     func() time.Time
	openURLFn func(string) error
	copyURLFn func(string) error
}

// NewModel builds the news panel. ctx bounds every refresh session started
// from the UI.
func NewModel(ctx context.Context, service Service) Model {
	// The cache size is a positive constant, so construction cannot fail.
	thumbs, _ := view.NewThumbnailRenderer(thumbnailCacheSize)

	input := textinput.New()
	input.Prompt = "Feed URL: "
	input.Placeholder = "https://example.com/rss.xml"
	input.CharLimit = 2048

	return Model{
		ctx:       ctx,
		service:   service,
		theme:     tuitheme.Default(),
		thumbs:    thumbs,
		input:     input,
		nowFn:     time.Now,
		openURLFn: platform.OpenURLInBrowser,
		copyURLFn: platform.CopyURLToClipboard,
	}
}

func (m *Model) ApplyPreferences(prefs Preferences) {
	m.compact = prefs.Compact
}

// SetAutoRefresh enables scheduled refreshes. A nil schedule disables them.
func (m *Model) SetAutoRefresh(schedule cron.Schedule) {
	m.schedule = schedule
}

func (m Model) Init() tea.Cmd {
	if m.service == nil {
		return nil
	}
	cmds := []tea.Cmd{actions.LastRefreshCmd(m.service, m.service.FeedURL())}
	if strings.TrimSpace(m.service.FeedURL()) != "" {
		cmds = append(cmds, func() tea.Msg { return refreshRequestMsg{source: "init"} })
	}
	cmds = append(cmds, m.nextAutoRefreshCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-len(m.input.Prompt)-2)
		return m, nil
	case frameMsg:
		return m.frame()
	case refreshRequestMsg:
		cmd := m.startRefresh()
		if msg.source == "schedule" {
			return m, tea.Batch(cmd, m.nextAutoRefreshCmd())
		}
		return m, cmd
	case actions.FeedURLSavedMsg:
		cmd := m.setStatus("Feed URL saved", 3*time.Second)
		return m, cmd
	case actions.PreferenceSaveErrorMsg:
		m.err = fmt.Errorf("save preferences: %w", msg.Err)
		return m, nil
	case actions.RefreshRecordErrorMsg:
		m.err = msg.Err
		return m, nil
	case actions.RefreshRecordedMsg:
		return m, nil
	case actions.LastRefreshMsg:
		if !msg.Found || m.status != "" {
			return m, nil
		}
		cmd := m.setStatus(fmt.Sprintf("Last refresh %s, %d entries", msg.Refresh.SettledAt.Local().Format("Jan 2 15:04"), msg.Refresh.Entries), 5*time.Second)
		return m, cmd
	case actions.OpenURLSuccessMsg:
		m.err = nil
		cmd := m.setStatus(msg.Status, 3*time.Second)
		return m, cmd
	case actions.OpenURLErrorMsg:
		m.err = msg.Err
		return m, nil
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.showHelp {
		if msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	if m.inDetail {
		return m.handleDetailKey(msg)
	}

	switch msg.String() {
	case "up", "k":
		m.moveCursorBy(-1)
	case "down", "j":
		m.moveCursorBy(1)
	case "g":
		m.moveCursorTo(0)
	case "G":
		m.moveCursorTo(len(m.entries) - 1)
	case "pgup", "ctrl+b":
		m.moveCursorBy(-m.listPageStep())
	case "pgdown", "ctrl+f":
		m.moveCursorBy(m.listPageStep())
	case "enter":
		if len(m.entries) == 0 {
			return m, nil
		}
		m.track()
		m.inDetail = true
		m.detailTop = 0
	case "r":
		cmd := m.startRefresh()
		return m, cmd
	case "e":
		m.editing = true
		m.input.SetValue(m.service.FeedURL())
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	case "c":
		m.compact = !m.compact
		return m, actions.SaveCompactCmd(m.service, m.compact)
	case "o":
		return m.openCurrentURL()
	case "y":
		return m.copyCurrentURL()
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.inDetail = false
		m.detailTop = 0
	case "up", "k":
		if m.detailTop > 0 {
			m.detailTop--
		}
	case "down", "j":
		maxTop := view.DetailMaxTop(len(m.detailLines()), m.detailBodyHeight())
		if m.detailTop < maxTop {
			m.detailTop++
		}
	case "[":
		if m.cursor > 0 {
			m.moveCursorBy(-1)
			m.detailTop = 0
		}
	case "]":
		if m.cursor < len(m.entries)-1 {
			m.moveCursorBy(1)
			m.detailTop = 0
		}
	case "o":
		return m.openCurrentURL()
	case "y":
		return m.copyCurrentURL()
	case "r":
		cmd := m.startRefresh()
		return m, cmd
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		feedURL, err := app.NormalizeFeedURL(m.input.Value())
		if err != nil {
			m.err = err
			return m, nil
		}
		m.editing = false
		m.input.Blur()
		m.err = nil
		m.service.UseFeedURL(feedURL)
		cmds := []tea.Cmd{actions.SaveFeedURLCmd(m.service, feedURL)}
		if feedURL != "" {
			cmds = append(cmds, m.startRefresh())
		}
		return m, tea.Batch(cmds...)
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// startRefresh abandons the current session and starts a new one. A missing
// feed URL is reported inline and leaves the current list alone.
func (m *Model) startRefresh() tea.Cmd {
	if m.service == nil {
		return nil
	}
	if err := m.service.Refresh(m.ctx); err != nil {
		m.err = err
		return nil
	}

	m.err = nil
	m.status = ""
	m.cursor = 0
	m.tracked = false
	m.inDetail = false
	m.detailTop = 0
	m.syncFromService()
	return m.ensureTicking()
}

func (m *Model) ensureTicking() tea.Cmd {
	if m.ticking || !m.service.InProgress() {
		return nil
	}
	m.ticking = true
	return frameCmd()
}

func (m Model) frame() (tea.Model, tea.Cmd) {
	if m.service == nil {
		m.ticking = false
		return m, nil
	}
	record, settled := m.service.Tick()
	m.syncFromService()

	var cmds []tea.Cmd
	if settled {
		cmds = append(cmds, actions.RecordRefreshCmd(m.service, record))
		if record.Entries == 0 {
			cmds = append(cmds, m.setStatus("No entries", 4*time.Second))
		} else {
			cmds = append(cmds, m.setStatus(fmt.Sprintf("Loaded %d entries", record.Entries), 3*time.Second))
		}
	}
	if m.service.InProgress() {
		cmds = append(cmds, frameCmd())
	} else {
		m.ticking = false
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) syncFromService() {
	m.entries = m.service.Entries()
	m.progress = m.service.Progress()
	m.cursor = tuistate.FollowPosition(m.entries, m.cursor, m.trackedPos, m.tracked)
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

func (m Model) nextAutoRefreshCmd() tea.Cmd {
	if m.schedule == nil {
		return nil
	}
	now := m.nowFn()
	wait := m.schedule.Next(now).Sub(now)
	return tea.Tick(wait, func(time.Time) tea.Msg {
		return refreshRequestMsg{source: "schedule"}
	})
}

func (m *Model) setStatus(status string, after time.Duration) tea.Cmd {
	m.status = status
	m.statusID++
	id := m.statusID
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func (m *Model) moveCursorBy(delta int) {
	m.moveCursorTo(m.cursor + delta)
}

func (m *Model) moveCursorTo(idx int) {
	if len(m.entries) == 0 {
		return
	}
	m.cursor = tuistate.ClampCursor(idx, len(m.entries))
	m.track()
}

func (m *Model) track() {
	if m.cursor < len(m.entries) {
		m.trackedPos = m.entries[m.cursor].Position
		m.tracked = true
	}
}

func (m Model) currentEntry() (pipeline.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return pipeline.Entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m Model) openCurrentURL() (tea.Model, tea.Cmd) {
	entry, ok := m.currentEntry()
	if !ok {
		return m, nil
	}
	url, err := platform.ValidateEntryURL(entry.Link)
	if err != nil {
		m.err = err
		return m, nil
	}
	return m, actions.OpenURLCmd(url, m.openURLFn, m.copyURLFn)
}

func (m Model) copyCurrentURL() (tea.Model, tea.Cmd) {
	entry, ok := m.currentEntry()
	if !ok {
		return m, nil
	}
	url, err := platform.ValidateEntryURL(entry.Link)
	if err != nil {
		m.err = err
		return m, nil
	}
	return m, actions.CopyURLCmd(url, m.copyURLFn)
}

func (m Model) listPageStep() int {
	return tuistate.PageStep(m.height, view.RowsPerEntry(m.compact), m.status != "" || m.err != nil)
}

func (m Model) contentWidth() int {
	if m.width > 0 {
		return m.width - 1
	}
	return 100
}

func (m Model) listBodyHeight() int {
	if m.height > 0 {
		if h := m.height - 6; h > 2 {
			return h
		}
	}
	return 20
}

func (m Model) detailBodyHeight() int {
	if m.height > 0 {
		if h := m.height - 6; h > 3 {
			return h
		}
	}
	return 16
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Infopanel"))
	b.WriteString(" ")
	b.WriteString(m.theme.ModePill.Render("News"))
	b.WriteString("\n")

	switch {
	case m.showHelp:
		b.WriteString("Help (? to close)\n\n")
		b.WriteString(strings.Join(view.HelpLines(), "\n"))
		b.WriteString("\n")
	case m.editing:
		b.WriteString(view.Toolbar(false, true))
		b.WriteString("\n\n")
		b.WriteString(m.theme.Input.Render(m.input.View()))
		b.WriteString("\n")
	case m.inDetail:
		b.WriteString(view.Toolbar(true, false))
		b.WriteString("\n\n")
		b.WriteString(m.detailView())
	default:
		b.WriteString(view.Toolbar(false, false))
		b.WriteString("\n\n")
		b.WriteString(m.listView())
	}

	b.WriteString("\n")
	b.WriteString(m.messagePanel())
	b.WriteString("\n")
	b.WriteString(view.Footer(m.progress, m.feedURL(), m.compact, m.theme))
	b.WriteString("\n")
	return b.String()
}

func (m Model) listView() string {
	if len(m.entries) == 0 {
		return view.EmptyListMessage(m.progress) + "\n"
	}
	rowsPerEntry := view.RowsPerEntry(m.compact)
	start, end := tuistate.CenteredWindow(len(m.entries), m.cursor, max(1, m.listBodyHeight()/rowsPerEntry))
	width := m.contentWidth()
	return view.RenderListBody(view.ListRenderInput{
		Entries: m.entries,
		Start:   start,
		End:     end,
		Cursor:  m.cursor,
		RenderEntry: func(entry pipeline.Entry, active bool) []string {
			params := view.EntryLineParams{
				Entry:   entry,
				Compact: m.compact,
				Active:  active,
				Width:   width,
			}
			if !m.compact {
				params.Thumb = m.thumbs.Render(entry.Thumbnail, view.ListThumbCols, view.ListThumbRows)
			}
			return view.RenderEntryLines(params, m.theme)
		},
	})
}

func (m Model) detailLines() []string {
	entry, ok := m.currentEntry()
	if !ok {
		return nil
	}
	width := min(m.contentWidth()-4, 96)
	thumb := m.thumbs.Render(entry.Thumbnail, min(view.DetailThumbCols, width), view.DetailThumbRows)
	return view.DetailLines(entry, width, 2, view.WrapText, thumb)
}

func (m Model) detailView() string {
	lines := m.detailLines()
	if len(lines) == 0 {
		return "No entry selected.\n"
	}
	return view.RenderDetailLines(lines, m.detailTop, m.detailBodyHeight())
}

func (m Model) messagePanel() string {
	warning := ""
	if m.err != nil {
		warning = capitalize(m.err.Error())
	}
	return view.Message(m.progress.State == news.StateFetching || m.progress.State == news.StateListing, m.status, warning, m.theme)
}

func (m Model) feedURL() string {
	if m.service == nil {
		return ""
	}
	return m.service.FeedURL()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
