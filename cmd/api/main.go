package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-rental-api/internal/application/scheduler"
	"github.com/go-rental-api/internal/config"
	"github.com/go-rental-api/internal/infrastructure/chapa"
	"github.com/go-rental-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-rental-api/internal/infrastructure/jwt"
	s3infra "github.com/go-rental-api/internal/infrastructure/s3"
	"github.com/go-rental-api/internal/infrastructure/smtp"
	"github.com/go-rental-api/internal/infrastructure/sns"
	transporthttp "github.com/go-rental-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SNS SMS sender (optional, graceful fallback).
	var smsSender sns.SMSSender
	if cfg.SMSEnabled {
		if sender, err := sns.NewSender(cfg); err == nil {
			smsSender = sender
		} else {
			slog.Warn("SNS sender not available", "err", err)
		}
	}

	if cfg.ChapaSecretKey == "" {
		slog.Warn("CHAPA_SECRET_KEY is empty, featured upgrades will fail at the gateway")
	}

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		PropertyRepo:     dynamo.NewPropertyRepo(dynamoClient, cfg.DynamoTables.Properties),
		ImageRepo:        dynamo.NewImageRepo(dynamoClient, cfg.DynamoTables.PropertyImages),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		PaymentRepo:      dynamo.NewPaymentRepo(dynamoClient, cfg.DynamoTables.FeaturedPayments),
		FavoriteRepo:     dynamo.NewFavoriteRepo(dynamoClient, cfg.DynamoTables.Favorites),
		ViewRepo:         dynamo.NewViewRepo(dynamoClient, cfg.DynamoTables.PropertyViews),
		RecentRepo:       dynamo.NewRecentlyViewedRepo(dynamoClient, cfg.DynamoTables.RecentlyViewed),
		ReviewRepo:       dynamo.NewReviewRepo(dynamoClient, cfg.DynamoTables.Reviews),
		ConversationRepo: dynamo.NewConversationRepo(dynamoClient, cfg.DynamoTables.Conversations),
		MessageRepo:      dynamo.NewMessageRepo(dynamoClient, cfg.DynamoTables.Messages),
		S3Store:          s3Store,
		Mailer:           smtp.NewMailer(cfg),
		SMSSender:        smsSender,
		Gateway:          chapa.NewClient(cfg),
		JWTProvider:      jwtProvider,
	}
	svcs := transporthttp.NewServices(cfg, deps)

	// The scheduler is always built so admins can trigger sweeps by hand;
	// cron only runs when enabled.
	sched, err := scheduler.New(svcs.Properties, scheduler.Config{
		AutoDelete:  cfg.AutoDeleteSchedule,
		ExpiryScan:  cfg.ExpiryScanSchedule,
		ExpirySweep: cfg.ExpirySweepSchedule,
		JobTimeout:  cfg.JobTimeout,
	})
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	deps.Jobs = sched
	if cfg.SchedulerEnabled {
		sched.Start()
	}

	router := transporthttp.NewRouter(ctx, cfg, deps, svcs)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	sched.Stop(shutdownCtx)
	log.Println("Server stopped")
}
