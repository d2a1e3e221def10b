package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/oklog/run"

	"github.com/glabrego/infopanel/internal/app"
	"github.com/glabrego/infopanel/internal/config"
	"github.com/glabrego/infopanel/internal/feed"
	"github.com/glabrego/infopanel/internal/logging"
	"github.com/glabrego/infopanel/internal/news"
	"github.com/glabrego/infopanel/internal/pipeline"
	"github.com/glabrego/infopanel/internal/storage"
	"github.com/glabrego/infopanel/internal/tui"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadFromEnv(ctx)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, logFile, err := logging.Open(cfg.LogPath, level, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logging init error: %v", err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer repo.Close()

	initCtx, initCancel := context.WithTimeout(ctx, 15*time.Second)
	defer initCancel()
	if err := repo.Init(initCtx); err != nil {
		log.Fatalf("storage schema error: %v", err)
	}

	schedule, err := cfg.Schedule()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	fetcher := feed.NewHTTPFetcher(&http.Client{Timeout: cfg.FetchTimeout}, cfg.UserAgent, cfg.MaxImageBytes)
	coord := pipeline.NewCoordinator(fetcher, feed.NewGofeedParser(), pipeline.Options{
		MaxWorkers: cfg.MaxWorkers,
		Logger:     logger,
	})
	defer coord.Close()

	service := app.NewService(news.NewAggregator(coord, logger), repo, cfg.FeedURL)

	model := tui.NewModel(ctx, service)
	prefs, err := service.LoadPreferences(initCtx)
	if err != nil {
		logger.Warn("could not load preferences, using defaults", "error", err)
	}
	model.ApplyPreferences(tui.Preferences{Compact: prefs.Compact})
	model.SetAutoRefresh(schedule)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	var g run.Group
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	g.Add(func() error {
		_, err := program.Run()
		return err
	}, func(error) {
		program.Quit()
	})

	logger.Info("infopanel started", "feed_url", service.FeedURL(), "db", cfg.DBPath)
	err = g.Run()
	var sigErr run.SignalError
	switch {
	case err == nil, errors.As(err, &sigErr), errors.Is(err, tea.ErrProgramKilled):
		logger.Info("infopanel stopped")
	default:
		logger.Error("tui error", "error", err)
		log.Fatalf("tui error: %v", err)
	}
}
