package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("setting not found")

// Setting keys.
const (
	SettingFeedURL = "feed_url"
	SettingCompact = "compact"
)

// Refresh records one settled refresh session.
type Refresh struct {
	ID         string
	FeedURL    string
	Entries    int
	Thumbnails int
	StartedAt  time.Time
	SettledAt  time.Time
}

type refreshRow struct {
	ID         string `db:"id"`
	FeedURL    string `db:"feed_url"`
	Entries    int    `db:"entries"`
	Thumbnails int    `db:"thumbnails"`
	StartedAt  string `db:"started_at"`
	SettledAt  string `db:"settled_at"`
}

type ListRefreshesArgs struct {
	FeedURL string
	Limit   int
}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Init applies the embedded migrations.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("create migrations source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(r.db.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (r *Repository) Setting(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM settings WHERE key = ?;`
	var value string
	err := r.db.GetContext(ctx, &value, q, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (r *Repository) SaveSetting(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO settings (key, value, updated_at)
VALUES (:key, :value, :updated_at)
ON CONFLICT(key) DO UPDATE SET
  value=excluded.value,
  updated_at=excluded.updated_at
`
	_, err := r.db.NamedExecContext(ctx, q, map[string]any{
		"key":        key,
		"value":      value,
		"updated_at": time.Now().UTC().Format(timeLayout),
	})
	if err != nil {
		return fmt.Errorf("save setting %q: %w", key, err)
	}
	return nil
}

func (r *Repository) SaveRefresh(ctx context.Context, refresh Refresh) error {
	const q = `
INSERT INTO refreshes (id, feed_url, entries, thumbnails, started_at, settled_at)
VALUES (:id, :feed_url, :entries, :thumbnails, :started_at, :settled_at)
ON CONFLICT(id) DO NOTHING
`
	row := refreshRow{
		ID:         refresh.ID,
		FeedURL:    refresh.FeedURL,
		Entries:    refresh.Entries,
		Thumbnails: refresh.Thumbnails,
		StartedAt:  refresh.StartedAt.UTC().Format(timeLayout),
		SettledAt:  refresh.SettledAt.UTC().Format(timeLayout),
	}
	if _, err := r.db.NamedExecContext(ctx, q, row); err != nil {
		return fmt.Errorf("save refresh %s: %w", refresh.ID, err)
	}
	return nil
}

// timeLayout is fixed width so stored timestamps sort as text in time order.
// RFC3339Nano drops trailing zeros, which puts "…05Z" after "…05.5Z".
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ListRefreshes returns recorded refreshes, most recently settled first.
func (r *Repository) ListRefreshes(ctx context.Context, args ListRefreshesArgs) ([]Refresh, error) {
	if args.Limit < 1 {
		args.Limit = 20
	}
	q := sq.Select("id", "feed_url", "entries", "thumbnails", "started_at", "settled_at").
		From("refreshes").
		OrderBy("settled_at DESC").
		Limit(uint64(args.Limit))
	if args.FeedURL != "" {
		q = q.Where(sq.Eq{"feed_url": args.FeedURL})
	}

	query, queryArgs, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build refreshes query: %w", err)
	}

	var rows []refreshRow
	if err := r.db.SelectContext(ctx, &rows, query, queryArgs...); err != nil {
		return nil, fmt.Errorf("query refreshes: %w", err)
	}

	refreshes := make([]Refresh, 0, len(rows))
	for _, row := range rows {
		started, err := time.Parse(time.RFC3339Nano, row.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("parse refresh started_at %q: %w", row.StartedAt, err)
		}
		settled, err := time.Parse(time.RFC3339Nano, row.SettledAt)
		if err != nil {
			return nil, fmt.Errorf("parse refresh settled_at %q: %w", row.SettledAt, err)
		}
		refreshes = append(refreshes, Refresh{
			ID:         row.ID,
			FeedURL:    row.FeedURL,
			Entries:    row.Entries,
			Thumbnails: row.Thumbnails,
			StartedAt:  started,
			SettledAt:  settled,
		})
	}
	return refreshes, nil
}
