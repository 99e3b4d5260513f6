/**
 * @description
 * This is the main entry point for the banking-service. It is responsible for
 * initializing all components: configuration, the database connection (with a
 * bounded startup wait), the optional Redis login limiter and RabbitMQ event
 * producer, the repository, the core application service, and the HTTP server.
 *
 * Only startup connectivity failure is fatal; once serving, infrastructure
 * errors fail the individual request, not the process.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: PostgreSQL connection pool.
 * - github.com/joho/godotenv: Optional .env loading for local development.
 * - github.com/redis/go-redis/v9: Login rate limiting backend.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages.
 * - pkg/middleware, pkg/rabbitmq: Session layer and event publishing.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/minibank/banking-service/internal/api"
	"github.com/minibank/banking-service/internal/app"
	"github.com/minibank/banking-service/internal/config"
	"github.com/minibank/banking-service/internal/store"
	"github.com/minibank/banking-service/pkg/middleware"
	"github.com/minibank/banking-service/pkg/rabbitmq"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.SessionSecret) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"session secret must be configured\" env=SESSION_SECRET")
	}

	databaseURL, err := cfg.ResolveDatabaseURL()
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database config invalid\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting banking-service\" port=%s", cfg.ServerPort)

	// Wait for the database with a bounded retry budget, then migrate.
	dbpool, err := store.Connect(context.Background(), databaseURL, store.ConnectOptions{
		Attempts: cfg.DBConnectAttempts,
		Delay:    time.Duration(cfg.DBConnectDelaySeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()

	// Initialize the RabbitMQ producer to publish bank events. The service
	// stays up without a broker; events fall back to log lines.
	var eventProducer rabbitmq.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"rabbitmq url missing; event publishing disabled\" env=RABBITMQ_URL")
		eventProducer = &rabbitmq.NoopPublisher{}
	} else {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
			eventProducer = &rabbitmq.NoopPublisher{}
		} else {
			defer producer.Close()
			eventProducer = producer
			log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
		}
	}

	// Optional Redis-backed login throttling.
	var redisClient *redis.Client
	if cfg.LoginRateLimitPerMin > 0 && strings.TrimSpace(cfg.RedisURL) != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; login throttling disabled\" err=%v", parseErr)
		} else {
			redisClient = redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; login throttling disabled\" err=%v", pingErr)
				redisClient = nil
			} else {
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
			cancelPing()
		}
	}

	// Set up dependencies.
	repo := store.NewPostgresRepository(dbpool)
	service := app.NewService(repo, eventProducer)
	sessions := middleware.NewSessionManager(cfg.SessionSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute)
	var limiterClient redis.UniversalClient
	if redisClient != nil {
		limiterClient = redisClient
	}
	loginLimiter := app.NewLoginRateLimiter(limiterClient, "minibank:rate_limit", cfg.LoginRateLimitPerMin, time.Minute)

	router := api.NewRouter(service, sessions, loginLimiter, cfg.AllowedOriginList())
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("level=info component=bootstrap msg=\"http server listening\" addr=%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=bootstrap msg=\"http server failed\" err=%v", err)
		}
	}()

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("level=info component=bootstrap msg=\"shutting down banking-service\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"server shutdown failed\" err=%v", err)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}

	log.Println("level=info component=bootstrap msg=\"server gracefully stopped\"")
}
