package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/glabrego/infopanel/internal/news"
	"github.com/glabrego/infopanel/internal/pipeline"
	"github.com/glabrego/infopanel/internal/storage"
)

var ErrInvalidFeedURL = errors.New("feed URL must be an http(s) URL")

type Aggregator interface {
	Refresh(ctx context.Context, feedURL string) error
	Tick()
	InProgress() bool
	State() news.State
	Progress() news.Progress
	Entries() []pipeline.Entry
	SessionID() string
}

type Repository interface {
	Setting(ctx context.Context, key string) (string, error)
	SaveSetting(ctx context.Context, key, value string) error
	SaveRefresh(ctx context.Context, refresh storage.Refresh) error
	ListRefreshes(ctx context.Context, args storage.ListRefreshesArgs) ([]storage.Refresh, error)
}

type Preferences struct {
	FeedURL string
	Compact bool
}

// Service ties the news aggregator to the settings store. Like the
// aggregator it is owned by the UI loop.
type Service struct {
	news  Aggregator
	repo  Repository
	nowFn func() time.Time

	feedURL string

	// Current session: the URL it fetched, when it started, and whether its
	// settle was already reported.
	sessionFeedURL string
	startedAt      time.Time
	recorded       bool
}

func NewService(agg Aggregator, repo Repository, defaultFeedURL string) *Service {
	return &Service{
		news:    agg,
		repo:    repo,
		nowFn:   time.Now,
		feedURL: strings.TrimSpace(defaultFeedURL),
	}
}

// LoadPreferences reads persisted settings. A stored feed URL, even an empty
// one, overrides the default the Service was built with.
func (s *Service) LoadPreferences(ctx context.Context) (Preferences, error) {
	prefs := Preferences{FeedURL: s.feedURL}

	feedURL, err := s.repo.Setting(ctx, storage.SettingFeedURL)
	switch {
	case err == nil:
		prefs.FeedURL = feedURL
		s.feedURL = feedURL
	case !errors.Is(err, storage.ErrNotFound):
		return prefs, fmt.Errorf("load feed URL: %w", err)
	}

	compact, err := s.repo.Setting(ctx, storage.SettingCompact)
	switch {
	case err == nil:
		prefs.Compact, _ = strconv.ParseBool(compact)
	case !errors.Is(err, storage.ErrNotFound):
		return prefs, fmt.Errorf("load compact preference: %w", err)
	}
	return prefs, nil
}

func (s *Service) FeedURL() string {
	return s.feedURL
}

// NormalizeFeedURL trims raw and checks it is an http(s) URL. An empty value
// is accepted and makes the next refresh fail with pipeline.ErrEmptyFeedURL.
func NormalizeFeedURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFeedURL, raw)
	}
	return raw, nil
}

// UseFeedURL switches the feed the next refresh reads. It does not persist.
func (s *Service) UseFeedURL(feedURL string) {
	s.feedURL = feedURL
}

// SaveFeedURL persists the feed URL. It only touches the store and may run
// off the UI loop.
func (s *Service) SaveFeedURL(ctx context.Context, raw string) error {
	feedURL, err := NormalizeFeedURL(raw)
	if err != nil {
		return err
	}
	if err := s.repo.SaveSetting(ctx, storage.SettingFeedURL, feedURL); err != nil {
		return fmt.Errorf("save feed URL: %w", err)
	}
	return nil
}

func (s *Service) SaveCompact(ctx context.Context, compact bool) error {
	if err := s.repo.SaveSetting(ctx, storage.SettingCompact, strconv.FormatBool(compact)); err != nil {
		return fmt.Errorf("save compact preference: %w", err)
	}
	return nil
}

func (s *Service) Refresh(ctx context.Context) error {
	if err := s.news.Refresh(ctx, s.feedURL); err != nil {
		return err
	}
	s.sessionFeedURL = s.feedURL
	s.startedAt = s.nowFn()
	s.recorded = false
	return nil
}

// Tick advances the aggregator by one frame. The second return value is true
// exactly once per session, on the frame it settles.
func (s *Service) Tick() (storage.Refresh, bool) {
	s.news.Tick()
	if s.recorded || s.news.State() != news.StateSettled {
		return storage.Refresh{}, false
	}
	s.recorded = true

	thumbnails := 0
	for _, e := range s.news.Entries() {
		if e.Thumbnail != nil && !e.Thumbnail.IsPlaceholder() {
			thumbnails++
		}
	}
	p := s.news.Progress()
	return storage.Refresh{
		ID:         s.news.SessionID(),
		FeedURL:    s.sessionFeedURL,
		Entries:    p.Total,
		Thumbnails: thumbnails,
		StartedAt:  s.startedAt,
		SettledAt:  s.nowFn(),
	}, true
}

func (s *Service) RecordRefresh(ctx context.Context, refresh storage.Refresh) error {
	if err := s.repo.SaveRefresh(ctx, refresh); err != nil {
		return fmt.Errorf("record refresh: %w", err)
	}
	return nil
}

// LastRefresh returns the most recent recorded refresh of feedURL.
func (s *Service) LastRefresh(ctx context.Context, feedURL string) (storage.Refresh, bool, error) {
	refreshes, err := s.repo.ListRefreshes(ctx, storage.ListRefreshesArgs{FeedURL: feedURL, Limit: 1})
	if err != nil {
		return storage.Refresh{}, false, fmt.Errorf("load refresh history: %w", err)
	}
	if len(refreshes) == 0 {
		return storage.Refresh{}, false, nil
	}
	return refreshes[0], true, nil
}

func (s *Service) InProgress() bool {
	return s.news.InProgress()
}

func (s *Service) Progress() news.Progress {
	return s.news.Progress()
}

func (s *Service) Entries() []pipeline.Entry {
	return s.news.Entries()
}
