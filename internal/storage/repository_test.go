package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "infopanel.db")
	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	return repo
}

func TestRepository_InitIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("second Init returned error: %v", err)
	}
}

func TestRepository_SettingMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Setting(context.Background(), SettingFeedURL)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_SaveSetting_Upserts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.SaveSetting(ctx, SettingFeedURL, "https://example.com/a"); err != nil {
		t.Fatalf("initial SaveSetting returned error: %v", err)
	}
	if err := repo.SaveSetting(ctx, SettingFeedURL, "https://example.com/b"); err != nil {
		t.Fatalf("second SaveSetting returned error: %v", err)
	}

	got, err := repo.Setting(ctx, SettingFeedURL)
	if err != nil {
		t.Fatalf("Setting returned error: %v", err)
	}
	if got != "https://example.com/b" {
		t.Fatalf("expected updated value, got %q", got)
	}
}

func TestRepository_SaveAndListRefreshes(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	refreshes := []Refresh{
		{ID: "a", FeedURL: "https://example.com/one", Entries: 3, Thumbnails: 2, StartedAt: base, SettledAt: base.Add(time.Second)},
		{ID: "b", FeedURL: "https://example.com/two", Entries: 5, Thumbnails: 5, StartedAt: base.Add(time.Minute), SettledAt: base.Add(time.Minute + time.Second)},
		{ID: "c", FeedURL: "https://example.com/one", Entries: 0, Thumbnails: 0, StartedAt: base.Add(time.Hour), SettledAt: base.Add(time.Hour)},
	}
	for _, r := range refreshes {
		if err := repo.SaveRefresh(ctx, r); err != nil {
			t.Fatalf("SaveRefresh(%s) returned error: %v", r.ID, err)
		}
	}
	if err := repo.SaveRefresh(ctx, refreshes[0]); err != nil {
		t.Fatalf("duplicate SaveRefresh returned error: %v", err)
	}

	listed, err := repo.ListRefreshes(ctx, ListRefreshesArgs{})
	if err != nil {
		t.Fatalf("ListRefreshes returned error: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 refreshes, got %d", len(listed))
	}
	if listed[0].ID != "c" {
		t.Fatalf("expected newest first, got id=%s", listed[0].ID)
	}
	if !listed[2].StartedAt.Equal(base) {
		t.Fatalf("unexpected started_at: %s", listed[2].StartedAt)
	}

	filtered, err := repo.ListRefreshes(ctx, ListRefreshesArgs{FeedURL: "https://example.com/one", Limit: 1})
	if err != nil {
		t.Fatalf("filtered ListRefreshes returned error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "c" {
		t.Fatalf("unexpected filtered refreshes: %+v", filtered)
	}
}

func TestRepository_ListRefreshes_OrdersWithinOneSecond(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	whole := time.Date(2026, 2, 1, 10, 0, 5, 0, time.UTC)

	for _, r := range []Refresh{
		{ID: "whole", FeedURL: "https://example.com/rss", StartedAt: whole, SettledAt: whole},
		{ID: "later", FeedURL: "https://example.com/rss", StartedAt: whole, SettledAt: whole.Add(500 * time.Millisecond)},
		{ID: "latest", FeedURL: "https://example.com/rss", StartedAt: whole, SettledAt: whole.Add(999_999_999)},
	} {
		if err := repo.SaveRefresh(ctx, r); err != nil {
			t.Fatalf("SaveRefresh(%s) returned error: %v", r.ID, err)
		}
	}

	listed, err := repo.ListRefreshes(ctx, ListRefreshesArgs{})
	if err != nil {
		t.Fatalf("ListRefreshes returned error: %v", err)
	}
	var ids []string
	for _, r := range listed {
		ids = append(ids, r.ID)
	}
	if strings.Join(ids, ",") != "latest,later,whole" {
		t.Fatalf("unexpected order: %v", ids)
	}
	if !listed[2].SettledAt.Equal(whole) || !listed[0].SettledAt.Equal(whole.Add(999_999_999)) {
		t.Fatalf("timestamps did not round-trip: %+v", listed)
	}
}
