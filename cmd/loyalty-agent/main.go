package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/clubly/loyalty-agent/internal/api"
	"github.com/clubly/loyalty-agent/internal/core/ports"
	"github.com/clubly/loyalty-agent/internal/core/service"
	apiclient "github.com/clubly/loyalty-agent/internal/infrastructure/api"
	"github.com/clubly/loyalty-agent/internal/infrastructure/config"
	mongodb "github.com/clubly/loyalty-agent/internal/infrastructure/db/mongo"
	redisdb "github.com/clubly/loyalty-agent/internal/infrastructure/db/redis"
	"github.com/clubly/loyalty-agent/internal/infrastructure/push"
	"github.com/clubly/loyalty-agent/internal/infrastructure/realtime"
	"github.com/clubly/loyalty-agent/internal/infrastructure/store/filestore"
	"github.com/clubly/loyalty-agent/internal/infrastructure/store/redisstore"
	"github.com/clubly/loyalty-agent/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Backing stores (both optional) ---
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer func() { _ = rdb.Close() }()
	}

	var mongoClient *mongodriver.Client
	var db *mongodriver.Database
	if cfg.Mongo.URI != "" {
		mongoClient, db, err = mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connect failed")
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	}

	// --- Platform backend client and the session's collaborators ---
	client := apiclient.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log)

	var store ports.TokenStore
	switch cfg.Token.Store {
	case "redis":
		if rdb == nil {
			log.Fatal().Msg("TOKEN_STORE=redis requires REDIS_ADDR")
		}
		store = redisstore.New(rdb)
	default:
		store = filestore.New(cfg.Token.Path)
	}

	registrar := push.NewRegistrar(cfg.Push.InstanceID, cfg.Push.StateDir, client, log)
	sessions := service.NewSessionService(client, store, registrar, log)
	client.OnAuthRejected(func() { sessions.ForceLogout(context.Background()) })

	// --- Realtime channel client ---
	rt := realtime.Disabled()
	if cfg.AMQP.URI != "" {
		rtClient, err := realtime.Connect(realtime.Config{URI: cfg.AMQP.URI, Exchange: cfg.AMQP.Exchange}, client, log)
		if err != nil {
			log.Fatal().Err(err).Msg("realtime connect failed")
		}
		defer func() { _ = rtClient.Close() }()
		rt = rtClient
	}

	var cache ports.SnapshotCache
	if db != nil {
		cache = mongodb.NewSnapshotCache(db)
	}

	notifications := service.NewNotificationService(client, rt, cache, log, service.NotificationOptions{
		ListInterval:  cfg.Notifications.ListInterval,
		CountInterval: cfg.Notifications.CountInterval,
		PerPage:       cfg.Notifications.PerPage,
		BufferCap:     cfg.Notifications.BufferCap,
		RefreshDelay:  cfg.Notifications.RefreshDelay,
	})
	sessions.OnIdentityChange(notifications.SetUser)
	notifications.Start(ctx)

	// Bootstrap runs concurrently: the HTTP surface serves the loading
	// placeholder until it resolves.
	go sessions.Bootstrap(ctx)

	e := api.NewRouter(sessions, notifications, rdb, db, log)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("loyalty agent started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	log.Info().Msg("loyalty agent stopped")
}
