package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeHotel0815/casa-belegung-app/config"
	"github.com/MikeHotel0815/casa-belegung-app/internal/bootstrap"
	"github.com/MikeHotel0815/casa-belegung-app/internal/cache"
	"github.com/MikeHotel0815/casa-belegung-app/internal/dateutil"
	"github.com/MikeHotel0815/casa-belegung-app/internal/kafka"
	"github.com/MikeHotel0815/casa-belegung-app/internal/repository"
	"github.com/MikeHotel0815/casa-belegung-app/internal/service/booking"
	"github.com/MikeHotel0815/casa-belegung-app/internal/service/users"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.SegmentsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	clock := dateutil.SystemClock()
	segmentRepo := repository.NewSegmentRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	store := booking.NewStore(segmentRepo, clock)
	if err := store.Load(ctx); err != nil {
		log.Fatalf("seed booking store: %v", err)
	}

	bookingService := booking.NewBookingService(
		store,
		userRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		clock,
		logger,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	userService := users.NewUserService(userRepo, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	if err := bootstrap.Run(ctx, cfg, logger, bookingService, userService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
