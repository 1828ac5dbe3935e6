package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("CRON_SECRET", "test-cron-secret")
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("MONGODB_DATABASE", "pitwall_test")
	os.Setenv("YOUTUBE_API_KEY", "yt-key")
	os.Setenv("YOUTUBE_CHANNEL_ID", "UCtest")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Auth.CronSecret != "test-cron-secret" {
		t.Fatalf("CronSecret = %q, want %q", cfg.Auth.CronSecret, "test-cron-secret")
	}
	if cfg.MongoDB.Database != "pitwall_test" {
		t.Fatalf("Database = %q, want %q", cfg.MongoDB.Database, "pitwall_test")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	os.Setenv("CRON_SECRET", "test-cron-secret")
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Unsetenv("YOUTUBE_WINDOW_HOURS")
	os.Unsetenv("YOUTUBE_MAX_RESULTS")
	os.Unsetenv("BLOG_FEED_MAX_ITEMS")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.YouTube.Window != 6*time.Hour {
		t.Fatalf("YouTube.Window = %v, want 6h", cfg.YouTube.Window)
	}
	if cfg.YouTube.MaxResults != 50 {
		t.Fatalf("YouTube.MaxResults = %d, want 50", cfg.YouTube.MaxResults)
	}
	if cfg.BlogFeed.MaxItems != 50 {
		t.Fatalf("BlogFeed.MaxItems = %d, want 50", cfg.BlogFeed.MaxItems)
	}
	if cfg.MongoDB.Timeout != 10*time.Second {
		t.Fatalf("MongoDB.Timeout = %v, want 10s", cfg.MongoDB.Timeout)
	}
}
