package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bobuk/gcalagenda/internal/gcal"
	"github.com/bobuk/gcalagenda/internal/notify"
	"github.com/bobuk/gcalagenda/internal/settings"
	"github.com/bobuk/gcalagenda/internal/store"
)

// session carries everything one command needs: local state, the Google API
// and the notification channel.
type session struct {
	config   *Config
	logger   *slog.Logger
	store    *store.Store
	settings *settings.Store
	notifier notify.Notifier
	api      gcal.API
	now      func() time.Time

	in  io.Reader
	out io.Writer
}

func openSession(ctx context.Context, config *Config, logger *slog.Logger) (*session, error) {
	db, err := store.Open(ctx, databasePath(config))
	if err != nil {
		return nil, err
	}

	s := &session{
		config:   config,
		logger:   logger,
		store:    db,
		settings: settings.NewStore(db, logger),
		notifier: notify.Discard{},
		now:      time.Now,
		in:       os.Stdin,
		out:      os.Stdout,
	}

	if config.Notifications {
		desktop, err := notify.NewDesktop(ctx)
		if err != nil {
			logger.Warn("desktop notifications unavailable", "error", err)
		} else {
			s.notifier = desktop
		}
	}
	return s, nil
}

// connect authorizes the account and builds the cached Google client.
func (s *session) connect(ctx context.Context) error {
	httpClient, err := getClient(ctx, oauthConfig, s.store, s.config.Account)
	if err != nil {
		return err
	}

	client, err := gcal.New(ctx, gcal.Options{
		HTTPClient:         httpClient,
		Logger:             s.logger,
		Location:           time.Local,
		Now:                s.now,
		ResolveConferences: s.config.ResolveConferences,
	})
	if err != nil {
		return fmt.Errorf("error creating Google client: %w", err)
	}
	s.api = gcal.NewCachedClient(client, 0, s.config.CacheTTL())
	return nil
}

func (s *session) Close() {
	if err := s.notifier.Close(); err != nil {
		s.logger.Debug("closing notifier failed", "error", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing database failed", "error", err)
	}
}

// reportFailure prints a failure line and raises a desktop notification.
// It returns err so callers can pass it on.
func (s *session) reportFailure(ctx context.Context, title string, err error) error {
	fmt.Fprintf(s.out, "❌ %s: %v\n", title, err)
	if notifyErr := s.notifier.Notify(ctx, title, err.Error()); notifyErr != nil {
		s.logger.Debug("notification failed", "error", notifyErr)
	}
	return err
}
