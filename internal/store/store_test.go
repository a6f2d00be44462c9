package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "gcalagenda.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_MigratesOnceAndReopens(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gcalagenda.db")
	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	version, err := s.Version(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != len(migrations) {
		t.Fatalf("version = %d, want %d", version, len(migrations))
	}
	if err := s.SetValue(ctx, "config", "{}"); err != nil {
		t.Fatalf("set: %v", err)
	}
	s.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	value, ok, err := reopened.GetValue(ctx, "config")
	if err != nil || !ok || value != "{}" {
		t.Fatalf("value after reopen = %q, %v, %v", value, ok, err)
	}
}

func TestStore_TokenRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTemp(t)

	if _, err := s.LoadToken(ctx, "me"); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}

	expiry := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: expiry}
	if err := s.SaveToken(ctx, "me", token); err != nil {
		t.Fatalf("save: %v", err)
	}
	token.AccessToken = "rotated"
	if err := s.SaveToken(ctx, "me", token); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, err := s.LoadToken(ctx, "me")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != "rotated" || got.RefreshToken != "refresh" || !got.Expiry.Equal(expiry) {
		t.Fatalf("unexpected token: %+v", got)
	}

	if err := s.DeleteToken(ctx, "me"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.LoadToken(ctx, "me"); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken after delete, got %v", err)
	}
}

func TestStore_Values(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTemp(t)

	if _, ok, err := s.GetValue(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key = %v, %v", ok, err)
	}
	for _, value := range []string{"first", "second"} {
		if err := s.SetValue(ctx, "config", value); err != nil {
			t.Fatalf("set %s: %v", value, err)
		}
	}
	value, ok, err := s.GetValue(ctx, "config")
	if err != nil || !ok || value != "second" {
		t.Fatalf("GetValue = %q, %v, %v", value, ok, err)
	}
}
