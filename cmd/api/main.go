package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pollbox/config"
	"pollbox/internal/cache"
	"pollbox/internal/handler"
	"pollbox/internal/ratelimit"
	pollredis "pollbox/internal/redis"
	"pollbox/internal/repository"
	"pollbox/internal/server"
	"pollbox/internal/services"
	"pollbox/internal/websocket"
	"pollbox/pkg/database"
	"pollbox/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const backendRedis = "redis"

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	log := logger.New(mode)
	logger.SetGlobalLogger(log)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "api exited", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()

	checks := map[string]server.HealthCheck{
		"database": sqlDB.PingContext,
	}

	var redisClient *goredis.Client
	if cfg.CacheBackend == backendRedis || cfg.RateLimitBackend == backendRedis || cfg.LiveBackend == backendRedis {
		redisClient, err = pollredis.Connect(ctx, pollredis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, 5*time.Second)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var store cache.Store
	if cfg.CacheBackend == backendRedis {
		store = pollredis.NewCacheStore(redisClient, pollredis.DefaultCachePrefix)
	} else {
		mem := cache.NewMemory(time.Now)
		go mem.Run(ctx, cfg.SweepInterval)
		store = mem
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimitBackend == backendRedis {
		limiter = pollredis.NewRateLimiter(redisClient)
	} else {
		mem := ratelimit.NewMemory(time.Now)
		go mem.Run(ctx, cfg.SweepInterval)
		limiter = mem
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	var publisher services.ResultsPublisher = hub
	if cfg.LiveBackend == backendRedis {
		publisher = pollredis.NewPublisher(redisClient)
		bridge := websocket.NewRedisBridge(pollredis.NewSubscriber(redisClient), hub)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				log.Error(ctx, "live results bridge stopped", zap.Error(err))
			}
		}()
	}

	log.Info(ctx, "backends ready",
		zap.String("db", cfg.DBDriver),
		zap.String("cache", cfg.CacheBackend),
		zap.String("rate_limit", cfg.RateLimitBackend),
		zap.String("live", cfg.LiveBackend),
	)

	policies := policiesFromConfig(cfg)
	ttls := services.CacheTTLs{
		PollList: cfg.PollListTTL,
		Poll:     cfg.PollTTL,
		Vote:     cfg.VoteTTL,
		Profile:  cfg.ProfileTTL,
	}

	polls := repository.NewPollRepository(db)
	options := repository.NewOptionRepository(db)
	votes := repository.NewVoteRepository(db)
	profiles := repository.NewProfileRepository(db)

	identity := services.NewIdentityService(cfg)
	queries := services.NewPollQueryService(polls, options, votes, store, ttls, log)
	handlers := &server.Handlers{
		Polls:    handler.NewPollHandler(services.NewPollService(polls, options, votes, store, limiter, policies, log), queries),
		Votes:    handler.NewVoteHandler(services.NewVoteService(polls, options, votes, store, limiter, policies, ttls, publisher, log)),
		Profiles: handler.NewProfileHandler(services.NewProfileService(profiles, polls, options, votes, store, limiter, policies, ttls, log)),
		Live:     websocket.NewHandler(identity, queries, hub, log),
	}

	srv := server.New(cfg, log)
	srv.SetupRoutes(handlers, identity, limiter, policies, checks)
	return srv.Start()
}

func policiesFromConfig(cfg *config.Config) ratelimit.Policies {
	return ratelimit.Policies{
		CreatePoll:    ratelimit.Policy{Max: cfg.CreatePollLimit, Window: cfg.CreatePollWindow},
		Vote:          ratelimit.Policy{Max: cfg.VoteLimit, Window: cfg.VoteWindow},
		UpdateProfile: ratelimit.Policy{Max: cfg.UpdateProfileLimit, Window: cfg.UpdateProfileWindow},
		DeleteAccount: ratelimit.Policy{Max: cfg.DeleteAccountLimit, Window: cfg.DeleteAccountWindow},
		LiveConnect:   ratelimit.Policy{Max: cfg.LiveConnectLimit, Window: cfg.LiveConnectWindow},
	}
}
