package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/DysphoDE/nerdquiz-next-sub001/internal/cache"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/config"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/game"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/repository"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/service"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/session"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/transport/rest"
	"github.com/DysphoDE/nerdquiz-next-sub001/internal/transport/ws"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	cfg := config.Load()
	ctx := context.Background()

	// Question source: Mongo when configured, the built-in bank otherwise.
	var questions game.QuestionRepository
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		defer mongoClient.Disconnect(ctx)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := mongoClient.Ping(pingCtx, nil); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to ping MongoDB")
		}
		cancel()
		log.Info().Msg("connected to MongoDB")

		questions = repository.NewQuestionRepo(mongoClient.Database(cfg.MongoDB))
	} else {
		log.Warn().Msg("MONGO_URI not set, using built-in question bank")
		questions = repository.Seeded()
	}

	// Leaderboard mirror: optional, rooms run fine without it.
	var leaderboard cache.LeaderboardCache
	if cfg.RedisURI != "" {
		opts, err := redis.ParseURL(cfg.RedisURI)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URI")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatal().Err(err).Msg("failed to ping Redis")
		}
		log.Info().Msg("connected to Redis")

		leaderboard = cache.NewLeaderboardCache(rdb, log)
	} else {
		log.Warn().Msg("REDIS_URI not set, leaderboard mirror disabled")
	}

	tokens := service.NewResumeTokens(cfg.JWTSecret)
	if !tokens.Enabled() {
		log.Warn().Msg("JWT_SECRET not set, resume tokens disabled")
	}

	hub := ws.NewHub(log)
	store := session.NewStore(log, hub, questions, leaderboard, session.Options{
		GracePeriod: cfg.GracePeriod,
		EmptyTTL:    cfg.EmptyRoomTTL,
		Tick:        cfg.TickInterval,
	})
	gateway := ws.NewGateway(store, hub, tokens, log)
	wsHandler := ws.NewHandler(gateway, log)

	router := rest.NewRouter(&rest.Container{
		Store:              store,
		Leaderboard:        leaderboard,
		WSHandler:          wsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go store.Run(sweepCtx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	stopSweep()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
