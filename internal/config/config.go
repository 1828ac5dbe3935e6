package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	YouTube   YouTubeConfig
	BlogFeed  BlogFeedConfig

	// SourcesFile optionally points at a YAML registry of ingestion
	// sources. When empty the registry is derived from the YouTube and
	// BlogFeed sections.
	SourcesFile string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig carries the pre-shared secrets callers present as bearer tokens.
// CronSecret guards the ingestion and full-sync endpoints, APIKey guards
// single-post publishing.
type AuthConfig struct {
	CronSecret string
	APIKey     string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type YouTubeConfig struct {
	APIKey     string
	ChannelID  string
	Window     time.Duration
	MaxResults int
}

type BlogFeedConfig struct {
	URL      string
	MaxItems int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "pitwall")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("RATE_LIMIT_RPS", 5.0)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("YOUTUBE_WINDOW_HOURS", 6)
	viper.SetDefault("YOUTUBE_MAX_RESULTS", 50)
	viper.SetDefault("BLOG_FEED_MAX_ITEMS", 50)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			CronSecret: getEnvOrPanic("CRON_SECRET"),
			APIKey:     os.Getenv("API_KEY"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnvOrPanic("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		YouTube: YouTubeConfig{
			APIKey:     os.Getenv("YOUTUBE_API_KEY"),
			ChannelID:  viper.GetString("YOUTUBE_CHANNEL_ID"),
			Window:     time.Duration(viper.GetInt("YOUTUBE_WINDOW_HOURS")) * time.Hour,
			MaxResults: viper.GetInt("YOUTUBE_MAX_RESULTS"),
		},
		BlogFeed: BlogFeedConfig{
			URL:      viper.GetString("BLOG_FEED_URL"),
			MaxItems: viper.GetInt("BLOG_FEED_MAX_ITEMS"),
		},
		SourcesFile: viper.GetString("SOURCES_FILE"),
	}

	// Basic validation
	if cfg.Auth.APIKey == "" {
		log.Println("WARNING: API_KEY is not set; single-post publishing will be rejected")
	}

	return cfg, nil
}

func getEnvOrPanic(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("environment variable %s is required", key)
	}
	return v
}
