package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

const (
	configFileName = ".gcalagenda.toml"
	envPrefix      = "GCALAGENDA"
)

type Config struct {
	ClientID           string `toml:"client_id"`
	ClientSecret       string `toml:"client_secret"`
	RedirectURL        string `toml:"redirect_url"`
	Account            string `toml:"account"`
	Database           string `toml:"database"`
	VerbosityLevel     int    `toml:"verbosity_level"`
	UpcomingDays       int    `toml:"upcoming_days"`
	LookbackDays       int    `toml:"lookback_days"`
	ResolveConferences bool   `toml:"resolve_conferences"`
	CacheTTLSeconds    int    `toml:"cache_ttl_seconds"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	Notifications      bool   `toml:"notifications"`
	JSONLogs           bool   `toml:"json_logs"`
}

var configDir string
var verbosityLevel int

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) UpcomingWindow() time.Duration {
	return time.Duration(c.UpcomingDays) * 24 * time.Hour
}

func (c *Config) LookbackWindow() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// loadConfig reads the config file when there is one, applies GCALAGENDA_*
// environment overrides and fills in defaults.
func loadConfig(filename string) (*Config, error) {
	config, err := readConfig(filename)
	if errors.Is(err, fs.ErrNotExist) {
		config = &Config{}
	} else if err != nil {
		return nil, err
	}

	applyEnvOverrides(config)
	applyDefaults(config)
	verbosityLevel = config.VerbosityLevel
	return config, nil
}

func readConfig(filename string) (*Config, error) {
	// Try first current dir, then `$HOME/.config/gcalagenda/`
	data, err := os.ReadFile(filename)
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, err
		}
		dir := filepath.Join(home, ".config", "gcalagenda")
		data, err = os.ReadFile(filepath.Join(dir, filename))
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return &config, nil
}

func applyEnvOverrides(config *Config) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for _, key := range []string{
		"client_id", "client_secret", "redirect_url", "account", "database",
		"verbosity_level", "upcoming_days", "lookback_days", "resolve_conferences",
		"cache_ttl_seconds", "timeout_seconds", "notifications", "json_logs",
	} {
		_ = v.BindEnv(key)
	}

	overrideString(v, "client_id", &config.ClientID)
	overrideString(v, "client_secret", &config.ClientSecret)
	overrideString(v, "redirect_url", &config.RedirectURL)
	overrideString(v, "account", &config.Account)
	overrideString(v, "database", &config.Database)
	overrideInt(v, "verbosity_level", &config.VerbosityLevel)
	overrideInt(v, "upcoming_days", &config.UpcomingDays)
	overrideInt(v, "lookback_days", &config.LookbackDays)
	overrideBool(v, "resolve_conferences", &config.ResolveConferences)
	overrideInt(v, "cache_ttl_seconds", &config.CacheTTLSeconds)
	overrideInt(v, "timeout_seconds", &config.TimeoutSeconds)
	overrideBool(v, "notifications", &config.Notifications)
	overrideBool(v, "json_logs", &config.JSONLogs)
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func overrideInt(v *viper.Viper, key string, dst *int) {
	if v.IsSet(key) {
		*dst = v.GetInt(key)
	}
}

func overrideBool(v *viper.Viper, key string, dst *bool) {
	if v.IsSet(key) {
		*dst = v.GetBool(key)
	}
}

func applyDefaults(config *Config) {
	if config.RedirectURL == "" {
		config.RedirectURL = "http://127.0.0.1:8085/callback"
	}
	if config.Account == "" {
		config.Account = "default"
	}
	if config.Database == "" {
		config.Database = "gcalagenda.db"
	}
	if config.UpcomingDays <= 0 {
		config.UpcomingDays = 7
	}
	if config.LookbackDays <= 0 {
		config.LookbackDays = 7
	}
	if config.CacheTTLSeconds <= 0 {
		config.CacheTTLSeconds = 300
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 30
	}
}

// databasePath puts a relative database next to the config file that was
// found, like the config lookup itself.
func databasePath(config *Config) string {
	if filepath.IsAbs(config.Database) || configDir == "" {
		return config.Database
	}
	return filepath.Join(configDir, config.Database)
}

func newLogger(config *Config, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case config.VerbosityLevel >= 5:
		level = slog.LevelDebug
	case config.VerbosityLevel >= 2:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if config.JSONLogs {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func printVerbosely(verbosity int, format string, a ...interface{}) {
	// Print only if verbosity is higher than verbosityLevel
	// verbosityLevel is set in the config file
	// 0 - no output, other than results and critical errors
	// 1 - progress of the command
	// 2 - calendars and task lists being fetched
	// 3 - cache and token refresh notes
	// 5 - report everything
	if verbosity <= verbosityLevel {
		fmt.Printf(format, a...)
	}
}
