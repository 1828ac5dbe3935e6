package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source registry validation errors.
var (
	ErrNoSources         = errors.New("at least one source is required")
	ErrNoEnabledSources  = errors.New("at least one source must be enabled")
	ErrSourceMissingName = errors.New("name is required")
	ErrSourceDuplicate   = errors.New("source names must be unique")
	ErrSourceUnknownType = errors.New("type must be 'video' or 'blog'")
	ErrSourceMissingFeed = errors.New("feed_url is required for blog sources")
	ErrMissingYouTubeKey = errors.New("YOUTUBE_API_KEY is required when a video source is enabled")
	ErrMissingChannel    = errors.New("channel_id is required for video sources")
)

// SourceDef describes one ingestion source. Video sources read a YouTube
// channel through the Data API, blog sources read an RSS/Atom feed.
type SourceDef struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Enabled bool   `yaml:"enabled"`

	// video sources
	ChannelID   string `yaml:"channel_id"`
	WindowHours int    `yaml:"window_hours"`
	MaxResults  int    `yaml:"max_results"`

	// blog sources
	FeedURL  string `yaml:"feed_url"`
	MaxItems int    `yaml:"max_items"`
}

// WindowDuration returns the lookback window for video sources.
func (s *SourceDef) WindowDuration() time.Duration {
	return time.Duration(s.WindowHours) * time.Hour
}

type sourcesFile struct {
	Sources []SourceDef `yaml:"sources"`
}

// LoadSources returns the enabled ingestion sources. When cfg.SourcesFile is
// set it is parsed as a YAML registry; otherwise the registry is derived from
// the YouTube and BlogFeed config sections. Per-source fields left at zero
// fall back to the corresponding config section.
func LoadSources(cfg *Config) ([]SourceDef, error) {
	defs, err := readSources(cfg)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, ErrNoSources
	}

	seen := make(map[string]bool, len(defs))
	var enabled []SourceDef
	for i := range defs {
		def := &defs[i]
		if def.Name == "" {
			return nil, fmt.Errorf("%w: source[%d]", ErrSourceMissingName, i)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("%w: %q", ErrSourceDuplicate, def.Name)
		}
		seen[def.Name] = true

		switch def.Type {
		case "video":
			applyVideoDefaults(def, cfg)
			if def.Enabled && cfg.YouTube.APIKey == "" {
				return nil, fmt.Errorf("%w: source %q", ErrMissingYouTubeKey, def.Name)
			}
			if def.Enabled && def.ChannelID == "" {
				return nil, fmt.Errorf("%w: source %q", ErrMissingChannel, def.Name)
			}
		case "blog":
			applyBlogDefaults(def, cfg)
			if def.Enabled && def.FeedURL == "" {
				return nil, fmt.Errorf("%w: source %q", ErrSourceMissingFeed, def.Name)
			}
		default:
			return nil, fmt.Errorf("%w: source %q has type %q", ErrSourceUnknownType, def.Name, def.Type)
		}

		if def.Enabled {
			enabled = append(enabled, *def)
		}
	}

	if len(enabled) == 0 {
		return nil, ErrNoEnabledSources
	}
	return enabled, nil
}

func readSources(cfg *Config) ([]SourceDef, error) {
	if cfg.SourcesFile == "" {
		return defaultSources(cfg), nil
	}
	data, err := os.ReadFile(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}
	return f.Sources, nil
}

// defaultSources mirrors the single-channel, single-feed deployment that
// needs no registry file: one YouTube source and, when a feed URL is
// configured, one blog source.
func defaultSources(cfg *Config) []SourceDef {
	defs := []SourceDef{{
		Name:    "youtube",
		Type:    "video",
		Enabled: true,
	}}
	if cfg.BlogFeed.URL != "" {
		defs = append(defs, SourceDef{
			Name:    "blog",
			Type:    "blog",
			Enabled: true,
		})
	}
	return defs
}

func applyVideoDefaults(def *SourceDef, cfg *Config) {
	if def.ChannelID == "" {
		def.ChannelID = cfg.YouTube.ChannelID
	}
	if def.WindowHours == 0 {
		def.WindowHours = int(cfg.YouTube.Window / time.Hour)
	}
	if def.MaxResults == 0 {
		def.MaxResults = cfg.YouTube.MaxResults
	}
}

func applyBlogDefaults(def *SourceDef, cfg *Config) {
	if def.FeedURL == "" {
		def.FeedURL = cfg.BlogFeed.URL
	}
	if def.MaxItems == 0 {
		def.MaxItems = cfg.BlogFeed.MaxItems
	}
}
