package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"predictbattle/internal/cache"
	"predictbattle/internal/config"
	"predictbattle/internal/repository"
	"predictbattle/internal/service"
)

const pingTimeout = 5 * time.Second

// App owns the store connections and the services built on them
type App struct {
	Mongo *mongo.Client
	DB    *mongo.Database
	Redis *redis.Client // nil when REDIS_URI is unset

	UserRepo       repository.UserRepo
	SessionRepo    repository.SessionRepo
	PredictionRepo repository.PredictionRepo
	Seats          cache.SeatCache

	AuthService       *service.AuthService
	SessionService    *service.SessionService
	PredictionService *service.PredictionService
}

// New connects to MongoDB (and Redis when configured), ensures indexes and wires the services
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a := &App{Mongo: client, DB: client.Database(cfg.MongoDatabase)}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", slog.String("database", cfg.MongoDatabase))

	if err := repository.EnsureIndexes(ctx, a.DB); err != nil {
		a.Close(ctx)
		return nil, err
	}

	if cfg.RedisURI != "" {
		opts, err := cfg.RedisOptions()
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.Redis = redis.NewClient(opts)
		redisCtx, cancelRedis := context.WithTimeout(ctx, pingTimeout)
		defer cancelRedis()
		if err := a.Redis.Ping(redisCtx).Err(); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to ping Redis: %w", err)
		}
		a.Seats = cache.NewSeatCache(a.Redis)
		logger.Info("connected to Redis", slog.String("addr", opts.Addr))
	} else {
		logger.Warn("REDIS_URI not set, seat counter disabled")
	}

	a.UserRepo = repository.NewUserRepo(a.DB)
	a.SessionRepo = repository.NewSessionRepo(a.DB)
	a.PredictionRepo = repository.NewPredictionRepo(a.DB)

	a.AuthService = service.NewAuthService(a.UserRepo, cfg.JWTSecret, cfg.TokenTTL)
	a.SessionService = service.NewSessionService(a.SessionRepo, a.PredictionRepo)
	a.PredictionService = service.NewPredictionService(a.SessionRepo, a.PredictionRepo, a.Seats)

	return a, nil
}

// SetBroadcaster routes live events from both session and prediction services
func (a *App) SetBroadcaster(b service.Broadcaster) {
	a.SessionService.SetBroadcaster(b)
	a.PredictionService.SetBroadcaster(b)
}

// Close releases the store connections
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}
