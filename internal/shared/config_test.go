package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.ListenBrainz.BaseURL == "" {
			t.Error("expected default base URL to be set")
		}
		if config.Sync.PageSize != 100 {
			t.Errorf("expected default page size 100, got %d", config.Sync.PageSize)
		}
		if config.Sync.LikesPageSize != 500 {
			t.Errorf("expected default likes page size 500, got %d", config.Sync.LikesPageSize)
		}
		if config.Sync.MaxRetries != 5 {
			t.Errorf("expected default max retries 5, got %d", config.Sync.MaxRetries)
		}
		if config.Sync.DedupPrecision != "second" {
			t.Errorf("expected default dedup precision 'second', got %q", config.Sync.DedupPrecision)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		content := `
[listenbrainz]
base_url = "http://localhost:9090/1/"
username = "testuser"
token = "token123"

[sync]
page_size = 25
max_retries = 3
dedup_precision = "minute"

[cache]
dir = "/tmp/lbx-cache"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.ListenBrainz.Username != "testuser" {
			t.Errorf("expected username 'testuser', got %q", config.ListenBrainz.Username)
		}
		if config.Sync.PageSize != 25 {
			t.Errorf("expected page size 25, got %d", config.Sync.PageSize)
		}
		if config.Sync.DedupPrecision != "minute" {
			t.Errorf("expected dedup precision 'minute', got %q", config.Sync.DedupPrecision)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig invalid TOML", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})

	t.Run("CreateConfigFile refuses to overwrite", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}
		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when config file already exists")
		}
	})

	t.Run("CachedUsernames", func(t *testing.T) {
		config := DefaultConfig()
		config.Cache.Dir = t.TempDir()

		names, err := config.CachedUsernames()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(names) != 0 {
			t.Errorf("expected no cached users, got %v", names)
		}

		for _, name := range []string{"zelda", "alice"} {
			if _, err := config.UserCacheDir(name); err != nil {
				t.Fatalf("failed to create user cache dir: %v", err)
			}
		}

		names, err = config.CachedUsernames()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(names) != 2 || names[0] != "alice" || names[1] != "zelda" {
			t.Errorf("expected sorted [alice zelda], got %v", names)
		}
	})
}
