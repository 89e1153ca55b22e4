package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	SecretsFileName = "secrets.json"
	TokenFileName   = "token.json"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Storage     StorageConfig     `toml:"storage"`
	Database    DatabaseConfig    `toml:"database"`
	Credentials CredentialsConfig `toml:"credentials"`
	Search      SearchConfig      `toml:"search"`
	Update      UpdateConfig      `toml:"update"`
	Retry       RetryConfig       `toml:"retry"`
	Rate        RateConfig        `toml:"rate"`
}

// StorageConfig locates the channel record directory.
type StorageConfig struct {
	Directory string `toml:"directory"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
}

// YouTubeConfig contains YouTube Data API credentials.
type YouTubeConfig struct {
	APIKey        string `toml:"api_key"`
	ClientSecrets string `toml:"client_secrets"`
	TokenFile     string `toml:"token_file"`
	RedirectURI   string `toml:"redirect_uri"`
}

// SearchConfig controls channel discovery and which uploads qualify.
type SearchConfig struct {
	Query              string   `toml:"query"`
	TitleKeywords      []string `toml:"title_keywords"`
	MinDurationSeconds int      `toml:"min_duration_seconds"`
	RegionCode         string   `toml:"region_code"`
	DiscoverMaxEntries int      `toml:"discover_max_entries"`
	IgnoreChannelIDs   []string `toml:"ignore_channel_ids"`
}

// UpdateConfig controls the incremental update cycle.
type UpdateConfig struct {
	WindowDays         int    `toml:"window_days"`
	CooldownDays       int    `toml:"cooldown_days"`
	PageSize           int    `toml:"page_size"`
	ActiveSectionID    string `toml:"active_section_id"`
	ActiveMaxPlaylists int    `toml:"active_max_playlists"`
}

// RetryConfig controls backoff for rate-limited insert calls.
type RetryConfig struct {
	MaxRetries       int `toml:"max_retries"`
	BaseSleepSeconds int `toml:"base_sleep_seconds"`
	MaxSleepSeconds  int `toml:"max_sleep_seconds"`
}

// RateConfig paces outgoing API calls.
type RateConfig struct {
	ListPerSecond   float64 `toml:"list_per_second"`
	InsertPerSecond float64 `toml:"insert_per_second"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults and YOUTUBE_API_KEY overrides the configured key.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		c.Credentials.YouTube.APIKey = key
	}
}

// Validate rejects settings the update cycle cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Storage.Directory == "":
		return fmt.Errorf("%w: storage.directory is empty", ErrInvalidConfig)
	case c.Update.WindowDays <= 0:
		return fmt.Errorf("%w: update.window_days must be positive", ErrInvalidConfig)
	case c.Update.CooldownDays < 0:
		return fmt.Errorf("%w: update.cooldown_days must not be negative", ErrInvalidConfig)
	case c.Update.PageSize <= 0:
		return fmt.Errorf("%w: update.page_size must be positive", ErrInvalidConfig)
	case c.Update.ActiveMaxPlaylists <= 0:
		return fmt.Errorf("%w: update.active_max_playlists must be positive", ErrInvalidConfig)
	case c.Retry.MaxRetries < 0:
		return fmt.Errorf("%w: retry.max_retries must not be negative", ErrInvalidConfig)
	case c.Retry.BaseSleepSeconds <= 0:
		return fmt.Errorf("%w: retry.base_sleep_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}

// StorageDir returns the expanded channel record directory.
func (c *Config) StorageDir() string {
	return ExpandPath(c.Storage.Directory)
}

// SecretsPath returns the client secrets location, defaulting to the reserved file in the storage directory.
func (c *Config) SecretsPath() string {
	if c.Credentials.YouTube.ClientSecrets != "" {
		return ExpandPath(c.Credentials.YouTube.ClientSecrets)
	}
	return filepath.Join(c.StorageDir(), SecretsFileName)
}

// TokenPath returns the OAuth token location, defaulting to the reserved file in the storage directory.
func (c *Config) TokenPath() string {
	if c.Credentials.YouTube.TokenFile != "" {
		return ExpandPath(c.Credentials.YouTube.TokenFile)
	}
	return filepath.Join(c.StorageDir(), TokenFileName)
}

// Window returns the recency window used for scheduling and active-section retention.
func (u UpdateConfig) Window() time.Duration {
	return time.Duration(u.WindowDays) * 24 * time.Hour
}

// Cooldown returns the minimum time between two updates of the same channel.
func (u UpdateConfig) Cooldown() time.Duration {
	return time.Duration(u.CooldownDays) * 24 * time.Hour
}

// BaseSleep returns the backoff base as a duration.
func (r RetryConfig) BaseSleep() time.Duration {
	return time.Duration(r.BaseSleepSeconds) * time.Second
}

// MaxSleep returns the backoff ceiling as a duration.
func (r RetryConfig) MaxSleep() time.Duration {
	return time.Duration(r.MaxSleepSeconds) * time.Second
}
