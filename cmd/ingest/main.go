// Command ingest runs the ingestion pipelines once and exits. It is an
// alternative to the HTTP triggers for cron jobs that run next to the
// database, and for backfills from a shell.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ovalline/pitwall/internal/config"
	"github.com/ovalline/pitwall/internal/content"
	"github.com/ovalline/pitwall/internal/database"
	"github.com/ovalline/pitwall/internal/ingest"
	"github.com/ovalline/pitwall/internal/laptimes"
	"github.com/ovalline/pitwall/internal/source"
	"github.com/ovalline/pitwall/internal/users"
	"github.com/ovalline/pitwall/pkg/logger"
)

func main() {
	var (
		sourceName = flag.String("source", "", "run a single source instead of all registered ones")
		timeout    = flag.Duration("timeout", 5*time.Minute, "overall run deadline")
	)
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	defs, err := config.LoadSources(cfg)
	if err != nil {
		logger.Fatalf("failed to load source registry: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		logger.Fatalf("could not connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(cfg.MongoDB.Database)

	records := content.NewMongoRepository(db)
	userRepo := users.NewMongoRepository(db.Collection("User"))
	timeRepo := laptimes.NewMongoRepository(db.Collection("TrackTime"))

	runner := ingest.NewRunner(records)
	for _, def := range defs {
		switch def.Type {
		case "video":
			yt := source.NewYouTube(def.Name, cfg.YouTube.APIKey, def.ChannelID, def.WindowDuration(), def.MaxResults)
			runner.Register(yt, laptimes.NewService(yt, userRepo, timeRepo))
		case "blog":
			runner.Register(source.NewFeed(def.Name, def.FeedURL, def.MaxItems), nil)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *sourceName != "" {
		summary, err := runner.RunSource(ctx, *sourceName)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		_ = enc.Encode(summary)
		return
	}

	summaries, failures := runner.RunAll(ctx)
	for _, s := range summaries {
		_ = enc.Encode(s)
	}
	for _, f := range failures {
		fmt.Fprintln(os.Stderr, f.Error())
	}
	if len(failures) > 0 {
		os.Exit(1)
	}
}
