package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeHotel0815/casa-belegung-app/config"
	"github.com/MikeHotel0815/casa-belegung-app/internal/cache"
	"github.com/MikeHotel0815/casa-belegung-app/internal/email"
	"github.com/MikeHotel0815/casa-belegung-app/internal/kafka"
	"github.com/MikeHotel0815/casa-belegung-app/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.SegmentsCacheTTL)*time.Second)
	segmentRepo := repository.NewSegmentRepository(pool)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode event error: %v", err)
				return nil
			}
			return emailSender.Send(ctx, event)
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	warmTicker := time.NewTicker(time.Duration(cfg.Worker.CacheWarmMinutes) * time.Minute)
	defer warmTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-warmTicker.C:
			segments, err := segmentRepo.LoadAll(ctx)
			if err != nil {
				log.Printf("warm calendar cache error: %v", err)
				continue
			}
			if err := redisCache.SetSegments(ctx, segments); err != nil {
				log.Printf("write calendar cache error: %v", err)
				continue
			}
			log.Printf("warmed calendar cache with %d segments", len(segments))
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
