package actions

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/infopanel/internal/storage"
)

// Store is the persistence side of the app service. Its methods are safe to
// call off the UI loop.
type Store interface {
	SaveFeedURL(ctx context.Context, feedURL string) error
	SaveCompact(ctx context.Context, compact bool) error
	RecordRefresh(ctx context.Context, refresh storage.Refresh) error
	LastRefresh(ctx context.Context, feedURL string) (storage.Refresh, bool, error)
}

const storeTimeout = 5 * time.Second

type FeedURLSavedMsg struct {
	FeedURL string
}

type PreferenceSaveErrorMsg struct {
	Err error
}

type RefreshRecordedMsg struct {
	Refresh storage.Refresh
}

type RefreshRecordErrorMsg struct {
	Err error
}

type LastRefreshMsg struct {
	Refresh storage.Refresh
	Found   bool
}

type OpenURLSuccessMsg struct {
	Status string
	Opened bool
}

type OpenURLErrorMsg struct {
	Err error
}

func SaveFeedURLCmd(store Store, feedURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := store.SaveFeedURL(ctx, feedURL); err != nil {
			return PreferenceSaveErrorMsg{Err: err}
		}
		return FeedURLSavedMsg{FeedURL: feedURL}
	}
}

func SaveCompactCmd(store Store, compact bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := store.SaveCompact(ctx, compact); err != nil {
			return PreferenceSaveErrorMsg{Err: err}
		}
		return nil
	}
}

func RecordRefreshCmd(store Store, refresh storage.Refresh) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := store.RecordRefresh(ctx, refresh); err != nil {
			return RefreshRecordErrorMsg{Err: err}
		}
		return RefreshRecordedMsg{Refresh: refresh}
	}
}

// LastRefreshCmd loads the previous refresh of feedURL. Lookup failures are
// reported as not found; the history is informational only.
func LastRefreshCmd(store Store, feedURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		refresh, found, err := store.LastRefresh(ctx, feedURL)
		if err != nil {
			return LastRefreshMsg{}
		}
		return LastRefreshMsg{Refresh: refresh, Found: found}
	}
}

func OpenURLCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Opened URL in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Could not open browser, URL copied to clipboard", Opened: false}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not open URL or copy to clipboard")}
	}
}

func CopyURLCmd(url string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not copy URL to clipboard")}
	}
}
