package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/coffeemorning/cmc-backend/api/routes"
	"github.com/coffeemorning/cmc-backend/internal/approval"
	adminauth "github.com/coffeemorning/cmc-backend/internal/auth"
	"github.com/coffeemorning/cmc-backend/internal/campaigns"
	"github.com/coffeemorning/cmc-backend/internal/donations"
	"github.com/coffeemorning/cmc-backend/internal/mailer"
	"github.com/coffeemorning/cmc-backend/internal/notifications"
	"github.com/coffeemorning/cmc-backend/internal/packorders"
	"github.com/coffeemorning/cmc-backend/internal/realtime"
	stripewebhook "github.com/coffeemorning/cmc-backend/internal/webhooks/stripe"
	"github.com/coffeemorning/cmc-backend/pkg/auth/session"
	"github.com/coffeemorning/cmc-backend/pkg/config"
	"github.com/coffeemorning/cmc-backend/pkg/db"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
	"github.com/coffeemorning/cmc-backend/pkg/migrate"
	"github.com/coffeemorning/cmc-backend/pkg/pubsub"
	"github.com/coffeemorning/cmc-backend/pkg/redis"
	"github.com/coffeemorning/cmc-backend/pkg/stripe"
)

const webhookDedupTTL = 7 * 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	var publisher *realtime.Publisher
	if cfg.Features.Realtime {
		pubsubClient, psErr := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if psErr != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", psErr)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		publisher = realtime.NewPublisher(pubsubClient.ChangesPublisher(), logg)
	} else {
		publisher = realtime.NewPublisher(nil, logg)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	campaignRepo := campaigns.NewRepository(dbClient.DB())
	orderRepo := packorders.NewRepository(dbClient.DB())
	donationRepo := donations.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())

	mailService, err := mailer.NewService(mailer.NewTemplateRepository(dbClient.DB()), cfg.SMTP, cfg.Templates, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create mailer", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notificationRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	campaignService, err := campaigns.NewService(campaignRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create campaigns service", err)
		os.Exit(1)
	}

	packOrderService, err := packorders.NewService(packorders.ServiceParams{
		Repo:              orderRepo,
		CampaignRepo:      campaignRepo,
		Gateway:           stripeClient,
		TransactionRunner: dbClient,
		Mailer:            mailService,
		Notifier:          notificationService,
		Publisher:         publisher,
		PublicBaseURL:     cfg.App.PublicBaseURL,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pack orders service", err)
		os.Exit(1)
	}

	donationService, err := donations.NewService(donations.ServiceParams{
		Repo:           donationRepo,
		CampaignRepo:   campaignRepo,
		Gateway:        stripeClient,
		Mailer:         mailService,
		Notifier:       notificationService,
		Publisher:      publisher,
		MinAmountMinor: cfg.Donations.MinAmountMinor,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create donations service", err)
		os.Exit(1)
	}

	approvalService, err := approval.NewService(approval.ServiceParams{
		CampaignRepo:      campaignRepo,
		TransactionRunner: dbClient,
		Mailer:            mailService,
		Publisher:         publisher,
		PublicBaseURL:     cfg.App.PublicBaseURL,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create approval service", err)
		os.Exit(1)
	}

	authService, err := adminauth.NewService(adminauth.ServiceParams{
		Repo:     adminauth.NewRepository(dbClient.DB()),
		Sessions: sessionManager,
		JWT:      cfg.JWT,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		PackOrders: packOrderService,
		Donations:  donationService,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookDedupTTL, "stripe_events")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:       cfg,
		Logger:       logg,
		DB:           dbClient,
		Redis:        redisClient,
		Sessions:     sessionManager,
		AuthService:  authService,
		Campaigns:    campaignService,
		PackOrders:   packOrderService,
		Donations:    donationService,
		Approval:     approvalService,
		Notification: notificationService,
		StripeClient: stripeClient,
		WebhookSvc:   webhookService,
		WebhookGuard: webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
