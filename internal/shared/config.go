package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	ListenBrainz ListenBrainzConfig `toml:"listenbrainz"`
	Sync         SyncConfig         `toml:"sync"`
	Cache        CacheConfig        `toml:"cache"`
	Database     DatabaseConfig     `toml:"database"`
}

// ListenBrainzConfig contains ListenBrainz API settings and credentials.
type ListenBrainzConfig struct {
	BaseURL  string `toml:"base_url"`
	Username string `toml:"username"`
	Token    string `toml:"token"`
}

// SyncConfig tunes the sync engine: paging, retry policy, and deduplication.
type SyncConfig struct {
	PageSize          int     `toml:"page_size"`            // Listens per page (newest-to-oldest crawl)
	LikesPageSize     int     `toml:"likes_page_size"`      // Liked recordings per page
	MaxRetries        int     `toml:"max_retries"`          // Attempts before a recoverable error becomes terminal
	BackoffBaseMS     int     `toml:"backoff_base_ms"`      // First retry delay; doubles per attempt
	BackoffMaxMS      int     `toml:"backoff_max_ms"`       // Ceiling for the exponential backoff
	RateLimit         float64 `toml:"rate_limit"`           // Requests per second against the API
	DedupPrecision    string  `toml:"dedup_precision"`      // second, minute, hour, or day
	MaxListensPerRun  int     `toml:"max_listens_per_run"`  // Soft cap; exceeding it ends the run as resumable (0 = unlimited)
	RequestTimeoutSec int     `toml:"request_timeout_secs"` // Per-request HTTP timeout
}

// CacheConfig locates the on-disk archive root.
type CacheConfig struct {
	Dir string `toml:"dir"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidInput)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// UserCacheDir returns the cache directory for a single user, creating it if needed.
func (c *Config) UserCacheDir(username string) (string, error) {
	dir := filepath.Join(c.Cache.Dir, "users", username)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return dir, nil
}

// CachedUsernames returns the sorted list of usernames with an on-disk cache directory.
func (c *Config) CachedUsernames() ([]string, error) {
	root := filepath.Join(c.Cache.Dir, "users")
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache root: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
