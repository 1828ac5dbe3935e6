package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ovalline/pitwall/handlers"
	"github.com/ovalline/pitwall/internal/blog"
	"github.com/ovalline/pitwall/internal/config"
	"github.com/ovalline/pitwall/internal/content"
	"github.com/ovalline/pitwall/internal/database"
	"github.com/ovalline/pitwall/internal/ingest"
	"github.com/ovalline/pitwall/internal/laptimes"
	"github.com/ovalline/pitwall/internal/publish"
	"github.com/ovalline/pitwall/internal/source"
	"github.com/ovalline/pitwall/internal/storage"
	"github.com/ovalline/pitwall/internal/users"
	"github.com/ovalline/pitwall/pkg/logger"
	"github.com/ovalline/pitwall/pkg/metrics"
	"github.com/ovalline/pitwall/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	defs, err := config.LoadSources(cfg)
	if err != nil {
		logger.Fatalf("failed to load source registry: %v", err)
	}
	logger.Infof("config loaded: sources=%d mongo=%v redis=%v", len(defs), cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Connect to Redis early so the rate limiter can use it when configured
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	if cfg.RateLimit.Enabled {
		// Redis-backed limiter when available so replicas share one budget
		if redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Every route writes to or reads from the site database, so a failed
	// connection is fatal. Retry to tolerate container startup races.
	ctx := context.Background()
	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	db := client.Database(cfg.MongoDB.Database)
	logger.Infof("connected to MongoDB, database %s", cfg.MongoDB.Database)

	records := content.NewMongoRepository(db)
	userRepo := users.NewMongoRepository(db.Collection("User"))
	timeRepo := laptimes.NewMongoRepository(db.Collection("TrackTime"))
	postRepo := blog.NewMongoRepository(db.Collection("BlogPost"))

	runner := ingest.NewRunner(records)
	for _, def := range defs {
		switch def.Type {
		case "video":
			yt := source.NewYouTube(def.Name, cfg.YouTube.APIKey, def.ChannelID, def.WindowDuration(), def.MaxResults)
			enricher := laptimes.NewService(yt, userRepo, timeRepo)
			runner.Register(yt, enricher)
		case "blog":
			runner.Register(source.NewFeed(def.Name, def.FeedURL, def.MaxItems), nil)
		}
		logger.Infof("registered source %s (%s)", def.Name, def.Type)
	}

	deps := handlers.StatusDeps{
		StartTime: startTime,
		Mongo: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
	}
	if redisClient != nil {
		deps.Redis = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	// Publishing needs object storage; without it the service still ingests,
	// the CRON sync just has nowhere to write.
	if minioCfg := storage.LoadMinIOConfig(); minioCfg.Configured() {
		store, err := storage.NewMinIOStorage(minioCfg)
		if err != nil {
			logger.Fatalf("failed to set up MinIO: %v", err)
		}
		deps.Storage = store.Healthy
		pub := publish.NewPublisher(postRepo, userRepo, store)
		handlers.NewPublishHandler(pub, cfg.Auth.CronSecret, cfg.Auth.APIKey).Register(r)
		logger.Infof("publishing enabled, bucket %s", minioCfg.Bucket)
	} else {
		logger.Warnf("MinIO not configured; POST /publish/blog not registered")
	}

	handlers.RegisterStatus(r, deps)
	handlers.NewIngestHandler(runner, cfg.Auth.CronSecret).Register(r)
	handlers.RegisterSwagger(r)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting pitwall on %s (env=%s)", addr, cfg.Server.Environment)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
