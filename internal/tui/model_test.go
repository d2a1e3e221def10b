package tui

import (
	"context"
	"fmt"
	"image/color"
	"regexp"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/infopanel/internal/app"
	"github.com/glabrego/infopanel/internal/feed"
	"github.com/glabrego/infopanel/internal/feed/mock"
	"github.com/glabrego/infopanel/internal/logging"
	"github.com/glabrego/infopanel/internal/news"
	"github.com/glabrego/infopanel/internal/pipeline"
	"github.com/glabrego/infopanel/internal/storage"
)

type fakeService struct {
	feedURL    string
	refreshErr error
	refreshes  int
	inProgress bool
	entries    []pipeline.Entry
	progress   news.Progress
	tickFn     func(*fakeService) (storage.Refresh, bool)

	savedFeedURL string
	savedCompact bool
	recorded     []storage.Refresh
}

func (f *fakeService) FeedURL() string           { return f.feedURL }
func (f *fakeService) UseFeedURL(feedURL string) { f.feedURL = feedURL }
func (f *fakeService) InProgress() bool          { return f.inProgress }
func (f *fakeService) Progress() news.Progress   { return f.progress }
func (f *fakeService) Entries() []pipeline.Entry { return append([]pipeline.Entry(nil), f.entries...) }

func (f *fakeService) Refresh(context.Context) error {
	if f.feedURL == "" {
		return pipeline.ErrEmptyFeedURL
	}
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.refreshes++
	f.inProgress = true
	f.entries = nil
	f.progress = news.Progress{State: news.StateFetching}
	return nil
}

func (f *fakeService) Tick() (storage.Refresh, bool) {
	if f.tickFn == nil {
		return storage.Refresh{}, false
	}
	return f.tickFn(f)
}

func (f *fakeService) SaveFeedURL(_ context.Context, feedURL string) error {
	f.savedFeedURL = feedURL
	return nil
}

func (f *fakeService) SaveCompact(_ context.Context, compact bool) error {
	f.savedCompact = compact
	return nil
}

func (f *fakeService) RecordRefresh(_ context.Context, refresh storage.Refresh) error {
	f.recorded = append(f.recorded, refresh)
	return nil
}

func (f *fakeService) LastRefresh(context.Context, string) (storage.Refresh, bool, error) {
	return storage.Refresh{}, false, nil
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return model, cmd
}

func entriesWithTitles(titles ...string) []pipeline.Entry {
	out := make([]pipeline.Entry, len(titles))
	for i, title := range titles {
		out[i] = pipeline.Entry{Position: i, Title: title, Link: fmt.Sprintf("https://example.com/%d", i)}
	}
	return out
}

func TestModelView_IdlePrompt(t *testing.T) {
	m := NewModel(context.Background(), &fakeService{})

	view := render(m)
	if !strings.Contains(view, "Press r to load the feed.") {
		t.Fatalf("expected idle prompt, got: %s", view)
	}
	if !strings.Contains(view, "feed (not set)") {
		t.Fatalf("expected unset feed in footer, got: %s", view)
	}
}

func TestModelUpdate_RefreshWithoutFeedURL(t *testing.T) {
	svc := &fakeService{}
	m := NewModel(context.Background(), svc)

	m, cmd := update(t, m, keyRune('r'))
	if cmd != nil {
		t.Fatal("expected no command when the feed URL is missing")
	}
	if svc.refreshes != 0 {
		t.Fatalf("expected no refresh, got %d", svc.refreshes)
	}
	if !strings.Contains(render(m), "Feed URL is not specified") {
		t.Fatalf("expected inline warning, got: %s", render(m))
	}
}

func TestModelUpdate_RefreshStartsTicking(t *testing.T) {
	svc := &fakeService{feedURL: "https://example.com/rss"}
	m := NewModel(context.Background(), svc)

	m, cmd := update(t, m, keyRune('r'))
	if cmd == nil {
		t.Fatal("expected frame command")
	}
	if !m.ticking || svc.refreshes != 1 {
		t.Fatalf("expected ticking after refresh, ticking=%v refreshes=%d", m.ticking, svc.refreshes)
	}

	// A second refresh while ticking must not schedule a second frame loop.
	m, cmd = update(t, m, keyRune('r'))
	if cmd != nil {
		t.Fatal("expected no extra frame command while already ticking")
	}
	if svc.refreshes != 2 {
		t.Fatalf("expected second refresh, got %d", svc.refreshes)
	}
}

func TestModelUpdate_FrameStopsWhenSettled(t *testing.T) {
	svc := &fakeService{feedURL: "https://example.com/rss"}
	svc.tickFn = func(f *fakeService) (storage.Refresh, bool) {
		f.entries = entriesWithTitles("First", "Second")
		for i := range f.entries {
			f.entries[i].ThumbnailReady = true
		}
		f.inProgress = false
		f.progress = news.Progress{State: news.StateSettled, Entries: 2, Total: 2, TotalKnown: true, Completed: 2}
		return storage.Refresh{ID: "s1", Entries: 2}, true
	}
	m := NewModel(context.Background(), svc)
	m, _ = update(t, m, keyRune('r'))

	m, cmd := update(t, m, frameMsg{})
	if m.ticking {
		t.Fatal("expected ticking to stop once settled")
	}
	if cmd == nil {
		t.Fatal("expected record and status commands")
	}
	view := render(m)
	for _, want := range []string{"First", "Second", "Loaded 2 entries", "thumbnails 2/2", "state settled"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view, got: %s", want, view)
		}
	}
}

func TestModelUpdate_CursorFollowsEntryWhileListing(t *testing.T) {
	svc := &fakeService{feedURL: "https://example.com/rss"}
	m := NewModel(context.Background(), svc)
	m, _ = update(t, m, keyRune('r'))

	svc.entries = []pipeline.Entry{{Position: 0, Title: "zero"}, {Position: 2, Title: "two"}}
	m, _ = update(t, m, frameMsg{})
	m, _ = update(t, m, keyRune('j'))
	if m.cursor != 1 {
		t.Fatalf("expected cursor at 1, got %d", m.cursor)
	}

	svc.entries = []pipeline.Entry{{Position: 0, Title: "zero"}, {Position: 1, Title: "one"}, {Position: 2, Title: "two"}}
	m, _ = update(t, m, frameMsg{})
	if m.cursor != 2 || m.entries[m.cursor].Title != "two" {
		t.Fatalf("expected cursor to stay on %q, got index %d", "two", m.cursor)
	}
}

func TestModelUpdate_DetailAndBack(t *testing.T) {
	svc := &fakeService{entries: entriesWithTitles("First", "Second")}
	m := NewModel(context.Background(), svc)
	m.syncFromService()

	m, _ = update(t, m, keyRune('j'))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.inDetail {
		t.Fatal("expected detail view")
	}
	if !strings.Contains(render(m), "URL: https://example.com/1") {
		t.Fatalf("expected selected entry in detail, got: %s", render(m))
	}

	m, _ = update(t, m, keyRune('['))
	if m.cursor != 0 {
		t.Fatalf("expected previous entry, got %d", m.cursor)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.inDetail {
		t.Fatal("expected list view after esc")
	}
}

func TestModelUpdate_EditFeedURL(t *testing.T) {
	svc := &fakeService{}
	m := NewModel(context.Background(), svc)

	m, _ = update(t, m, keyRune('e'))
	if !m.editing {
		t.Fatal("expected editing mode")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("notaurl")})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.editing || m.err == nil {
		t.Fatalf("expected invalid URL to keep the editor open with an error, editing=%v err=%v", m.editing, m.err)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = update(t, m, keyRune('e'))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("https://example.com/rss")})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.editing {
		t.Fatal("expected editor to close")
	}
	if svc.feedURL != "https://example.com/rss" {
		t.Fatalf("expected feed URL to be applied, got %q", svc.feedURL)
	}
	if svc.refreshes != 1 {
		t.Fatalf("expected refresh after saving a feed URL, got %d", svc.refreshes)
	}
	if cmd == nil {
		t.Fatal("expected save command")
	}
}

func TestModelUpdate_ToggleCompactPersists(t *testing.T) {
	svc := &fakeService{entries: entriesWithTitles("Only")}
	m := NewModel(context.Background(), svc)
	m.syncFromService()

	m, cmd := update(t, m, keyRune('c'))
	if !m.compact {
		t.Fatal("expected compact mode")
	}
	if cmd == nil {
		t.Fatal("expected save command")
	}
	cmd()
	if !svc.savedCompact {
		t.Fatal("compact preference was not saved")
	}
	if !strings.Contains(render(m), "layout compact") {
		t.Fatalf("expected compact layout in footer, got: %s", render(m))
	}
}

func TestModelUpdate_OpenURLFallsBackToCopy(t *testing.T) {
	svc := &fakeService{entries: entriesWithTitles("Only")}
	m := NewModel(context.Background(), svc)
	m.syncFromService()
	var copied string
	m.openURLFn = func(string) error { return fmt.Errorf("no browser") }
	m.copyURLFn = func(u string) error { copied = u; return nil }

	_, cmd := update(t, m, keyRune('o'))
	if cmd == nil {
		t.Fatal("expected open command")
	}
	msg := cmd()
	m, _ = update(t, m, msg)
	if copied != "https://example.com/0" {
		t.Fatalf("expected URL to be copied, got %q", copied)
	}
	if !strings.Contains(m.status, "copied") {
		t.Fatalf("expected copy status, got %q", m.status)
	}
}

func TestModelUpdate_ClearStatusIgnoresStaleIDs(t *testing.T) {
	m := NewModel(context.Background(), &fakeService{})
	m.setStatus("first", time.Second)
	m.setStatus("second", time.Second)

	m, _ = update(t, m, clearStatusMsg{id: 1})
	if m.status != "second" {
		t.Fatalf("stale clear removed the status: %q", m.status)
	}
	m, _ = update(t, m, clearStatusMsg{id: 2})
	if m.status != "" {
		t.Fatalf("expected status to clear, got %q", m.status)
	}
}

type memoryRepo struct {
	settings  map[string]string
	refreshes []storage.Refresh
}

func (r *memoryRepo) Setting(_ context.Context, key string) (string, error) {
	v, ok := r.settings[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) SaveSetting(_ context.Context, key, value string) error {
	r.settings[key] = value
	return nil
}

func (r *memoryRepo) SaveRefresh(_ context.Context, refresh storage.Refresh) error {
	r.refreshes = append(r.refreshes, refresh)
	return nil
}

func (r *memoryRepo) ListRefreshes(context.Context, storage.ListRefreshesArgs) ([]storage.Refresh, error) {
	return r.refreshes, nil
}

func TestModel_RefreshRunsPipelineToSettled(t *testing.T) {
	const feedURL = "https://example.com/feed.xml"
	fetcher := &mock.Fetcher{
		Responses: map[string][]byte{
			feedURL: mock.RSS(
				mock.Item{Title: "Alpha", Link: "https://example.com/a", ImageURL: "https://img.example.com/a.png"},
				mock.Item{Title: "Beta", Link: "https://example.com/b"},
				mock.Item{Title: "Gamma", Link: "https://example.com/c", ImageURL: "https://img.example.com/c.png"},
			),
			"https://img.example.com/a.png": mock.PNG(8, 8, color.White),
		},
	}
	coord := pipeline.NewCoordinator(fetcher, feed.NewGofeedParser(), pipeline.Options{Logger: logging.Discard()})
	t.Cleanup(coord.Close)
	repo := &memoryRepo{settings: map[string]string{}}
	svc := app.NewService(news.NewAggregator(coord, logging.Discard()), repo, feedURL)

	m := NewModel(context.Background(), svc)
	m, _ = update(t, m, keyRune('r'))

	deadline := time.Now().Add(2 * time.Second)
	var cmd tea.Cmd
	for m.ticking {
		if time.Now().After(deadline) {
			t.Fatalf("refresh did not settle: %+v", m.progress)
		}
		time.Sleep(time.Millisecond)
		m, cmd = update(t, m, frameMsg{})
	}
	if cmd == nil {
		t.Fatal("expected record command on settle")
	}

	view := render(m)
	for _, want := range []string{"Alpha", "Beta", "Gamma", "thumbnails 3/3", "state settled"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view, got: %s", want, view)
		}
	}
	if len(m.entries) != 3 || m.entries[0].Title != "Alpha" || m.entries[2].Title != "Gamma" {
		t.Fatalf("unexpected entry order: %+v", m.entries)
	}
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func render(m Model) string {
	return ansiPattern.ReplaceAllString(m.View(), "")
}
