package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicreport-be/config"
	"civicreport-be/controllers"
	"civicreport-be/events"
	"civicreport-be/middlewares"
	"civicreport-be/repository"
	"civicreport-be/routes"
	"civicreport-be/services"
	"civicreport-be/storage"
	"civicreport-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := config.NewLogger(cfg)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := config.ConnectDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("disconnecting MongoDB")
		}
	}()
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create indexes")
	}

	// rdb stays a nil interface when Redis is off so the issue limiter passes through.
	var rdb redis.Cmdable
	if cfg.RedisEnabled() {
		redisClient, err := config.ConnectRedis(ctx, cfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		rdb = redisClient
	} else {
		logger.Warn().Msg("REDIS_ADDRESS not set, issue rate limiting disabled")
	}

	var objects storage.ObjectStore
	if cfg.Storage.Enabled() {
		objects = storage.NewS3Store(config.NewS3Client(cfg.Storage), cfg.Storage.Bucket, cfg.Storage.PublicURL)
	} else {
		logger.Warn().Msg("object storage not configured, image uploads disabled")
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.KafkaEnabled() {
		writer := config.NewKafkaWriter(cfg)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error().Err(err).Msg("closing Kafka writer")
			}
		}()
		publisher = events.NewKafkaPublisher(writer)
	} else {
		logger.Warn().Msg("KAFKA_BROKERS not set, issue events disabled")
	}

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create token manager")
	}
	validate := services.NewValidator()
	users := repository.NewMongoUserStore(db)
	issues := repository.NewMongoIssueStore(db)

	authService := services.NewAuthService(users, tokens, utils.NewPasswordHasher(cfg.BcryptCost), validate, logger)
	issueService := services.NewIssueService(issues, users, validate, publisher, logger)
	imageService := services.NewImageService(objects, logger)

	r := routes.NewRouter(routes.RouterConfig{
		Auth:         &controllers.AuthController{Auth: authService},
		Issues:       &controllers.IssueController{Issues: issueService},
		Images:       &controllers.ImageController{Images: imageService},
		Verifier:     authService,
		LoginLimiter: middlewares.NewLoginRateLimiter(cfg.LoginRatePerMinute),
		IssueLimiter: middlewares.IssueRateLimiter(rdb, cfg.IssueLimitQueue, cfg.IssueRateLimit, cfg.IssueRateWindow),
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		HealthCheck: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
