package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
)

// Key is the storage key the configuration record lives under.
const Key = "config"

type CalendarSettings struct {
	Hidden bool `json:"hidden"`
}

// Configuration maps calendar ids to local display settings.
type Configuration struct {
	CalendarConfiguration map[string]CalendarSettings `json:"calendarConfiguration"`
}

func Default() Configuration {
	return Configuration{CalendarConfiguration: map[string]CalendarSettings{}}
}

func (c Configuration) IsHidden(calendarID string) bool {
	return c.CalendarConfiguration[calendarID].Hidden
}

// WithHidden returns a copy of c with the flag of one calendar replaced.
func (c Configuration) WithHidden(calendarID string, hidden bool) Configuration {
	next := Configuration{CalendarConfiguration: maps.Clone(c.CalendarConfiguration)}
	if next.CalendarConfiguration == nil {
		next.CalendarConfiguration = map[string]CalendarSettings{}
	}
	item := next.CalendarConfiguration[calendarID]
	item.Hidden = hidden
	next.CalendarConfiguration[calendarID] = item
	return next
}

// KV is the key-value storage the record is persisted in.
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}

type Store struct {
	kv     KV
	logger *slog.Logger
}

func NewStore(kv KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

// Get returns the persisted record. A missing, unreadable or malformed record
// yields the empty default; the cause is only logged.
func (s *Store) Get(ctx context.Context) Configuration {
	raw, ok, err := s.kv.GetValue(ctx, Key)
	if err != nil {
		s.logger.Warn("reading configuration failed, using defaults", "error", err)
		return Default()
	}
	if !ok || raw == "" {
		return Default()
	}

	var cfg Configuration
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		s.logger.Warn("configuration is malformed, using defaults", "error", err)
		return Default()
	}
	if cfg.CalendarConfiguration == nil {
		cfg.CalendarConfiguration = map[string]CalendarSettings{}
	}
	return cfg
}

// Set overwrites the whole record. Callers read, modify and write back.
func (s *Store) Set(ctx context.Context, cfg Configuration) error {
	if cfg.CalendarConfiguration == nil {
		cfg.CalendarConfiguration = map[string]CalendarSettings{}
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}
	if err := s.kv.SetValue(ctx, Key, string(payload)); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}
	return nil
}
