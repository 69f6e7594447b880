package main

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cosmos-backend/internal/anomaly"
	"cosmos-backend/internal/api"
	"cosmos-backend/internal/auth"
	"cosmos-backend/internal/civilization"
	"cosmos-backend/internal/config"
	"cosmos-backend/internal/events"
	"cosmos-backend/internal/health"
	"cosmos-backend/internal/lock"
	"cosmos-backend/internal/metrics"
	"cosmos-backend/internal/repository"
	"cosmos-backend/internal/rng"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("Starting Universe Service...")

	cfg := config.Load()
	if err := config.ValidateCORSOrigins(cfg.CORSAllowedOrigins); err != nil {
		log.Fatal().Err(err).Msg("invalid CORS configuration")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		log.Warn().Msg("JWT_SECRET not set, generating random key (dev mode)")
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatal().Err(err).Msg("failed to generate dev signing key")
		}
		jwtSecret = string(secret)
	}
	tokenManager, err := auth.NewTokenManager([]byte(jwtSecret))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token manager")
	}

	log.Info().Msg("Connecting to MongoDB...")
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	db := mongoClient.Database("cosmos")

	universeRepo := repository.NewUniverseRepository(db)
	if err := universeRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure universe indexes")
	}

	log.Info().Str("addr", cfg.RedisAddr).Msg("Connecting to Redis...")
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	var limiter *auth.RateLimiter
	var distLock *lock.DistributedLock
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; rate limiting and cross-instance locking disabled")
	} else {
		limiter = auth.NewRateLimiter(redisClient)
		distLock = lock.NewDistributedLock(redisClient, 30*time.Second)
	}
	defer redisClient.Close()

	var publisher *events.Publisher
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Warn().Err(err).Msg("NATS unavailable; audit events disabled")
		} else {
			defer nc.Close()
			publisher = events.NewPublisher(nc)
			listener := events.NewListener(nc, func(ctx context.Context, cmd events.CleanupCommand) error {
				return runCleanupSweepFor(ctx, universeRepo, cmd.UniverseID, cmd.KeepRecentMinutes)
			})
			if err := listener.ListenForCleanupCommands(); err != nil {
				log.Warn().Err(err).Msg("failed to subscribe to cleanup commands")
			}
		}
	}

	checker := health.NewHealthChecker(mongoPinger{mongoClient}, redisPinger{redisClient}, ncOrNil(nc))
	locks := lock.NewRegistry()
	constants := config.NewConstantsStore()

	handler := api.NewHandler(universeRepo, locks, distLock, publisher, constants, cfg.Verbose)
	router := api.NewRouter(handler, tokenManager, checker, limiter, cfg.CORSAllowedOrigins)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every 5m", func() {
		runGlobalSweep(context.Background(), universeRepo)
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule cleanup sweep")
	}
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("Shutting down Universe Service...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("Universe Service listening")
	if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}

	log.Info().Msg("Universe Service stopped")
}

// runGlobalSweep culls anomalies and extinct civilizations across every
// running universe, persisting any that changed.
func runGlobalSweep(ctx context.Context, repo *repository.UniverseRepository) {
	universes, err := repo.ListRunning(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sweep: failed to list running universes")
		return
	}
	for _, u := range universes {
		removed, _ := anomaly.Cleanup(u, time.Now(), 5*time.Minute)
		civsBefore := len(u.Civilizations)
		u.CullExtinctCivilizations()
		stream := rng.New(u.Seed)
		civilization.New(u, civilization.Options{}, stream).MaybeCull(u.Metrics.TicksSimulated)
		if removed == 0 && len(u.Civilizations) == civsBefore {
			continue
		}
		if err := repo.Save(ctx, u); err != nil {
			log.Error().Err(err).Str("universeId", u.ID).Msg("sweep: failed to persist cleanup")
		}
	}
	metrics.SetActiveUniverses(len(universes))
}

func runCleanupSweepFor(ctx context.Context, repo *repository.UniverseRepository, universeID string, keepRecentMinutes int) error {
	u, err := repo.Get(ctx, universeID)
	if err != nil {
		return err
	}
	if keepRecentMinutes <= 0 {
		keepRecentMinutes = 5
	}
	anomaly.Cleanup(u, time.Now(), time.Duration(keepRecentMinutes)*time.Minute)
	return repo.Save(ctx, u)
}

type mongoPinger struct {
	client *mongo.Client
}

func (m mongoPinger) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

type redisPinger struct {
	client *redis.Client
}

func (r redisPinger) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func ncOrNil(nc *nats.Conn) *natsStatusAdapter {
	return &natsStatusAdapter{nc}
}

type natsStatusAdapter struct {
	nc *nats.Conn
}

func (a *natsStatusAdapter) Status() nats.Status {
	if a.nc == nil {
		return nats.CLOSED
	}
	return a.nc.Status()
}
