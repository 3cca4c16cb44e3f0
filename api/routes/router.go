package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coffeemorning/cmc-backend/api/controllers"
	webhookcontrollers "github.com/coffeemorning/cmc-backend/api/controllers/webhooks"
	"github.com/coffeemorning/cmc-backend/api/middleware"
	"github.com/coffeemorning/cmc-backend/internal/approval"
	adminauth "github.com/coffeemorning/cmc-backend/internal/auth"
	"github.com/coffeemorning/cmc-backend/internal/campaigns"
	"github.com/coffeemorning/cmc-backend/internal/donations"
	"github.com/coffeemorning/cmc-backend/internal/notifications"
	"github.com/coffeemorning/cmc-backend/internal/packorders"
	stripewebhook "github.com/coffeemorning/cmc-backend/internal/webhooks/stripe"
	"github.com/coffeemorning/cmc-backend/pkg/auth/session"
	"github.com/coffeemorning/cmc-backend/pkg/config"
	"github.com/coffeemorning/cmc-backend/pkg/db"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
	"github.com/coffeemorning/cmc-backend/pkg/redis"
	"github.com/coffeemorning/cmc-backend/pkg/stripe"
)

// Deps collects everything the HTTP surface needs.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	Sessions     *session.Manager
	AuthService  *adminauth.Service
	Campaigns    *campaigns.Service
	PackOrders   *packorders.Service
	Donations    *donations.Service
	Approval     *approval.Service
	Notification *notifications.Service
	StripeClient *stripe.Client
	WebhookSvc   *stripewebhook.Service
	WebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRate.LoginWindow,
		cfg.AuthRate.LoginIPLimit,
		cfg.AuthRate.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.WebhookSvc, deps.StripeClient, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Route("/campaigns", func(r chi.Router) {
				r.Get("/", controllers.ListCampaigns(deps.Campaigns, logg))
				r.Post("/", controllers.CreateCampaign(deps.PackOrders, logg))
				r.Get("/{campaignId}", controllers.GetCampaign(deps.Campaigns, logg))
				r.Get("/{campaignId}/donations", controllers.ListCampaignDonations(deps.Donations, logg))
				r.Post("/{campaignId}/donations", controllers.InitiateDonation(deps.Donations, logg))
			})
			r.Route("/donations", func(r chi.Router) {
				r.Post("/intent", controllers.DonationIntent(deps.Donations, logg))
				r.Post("/finalize", controllers.FinalizeDonation(deps.Donations, logg))
			})
			r.Get("/packs", controllers.ListPackContents(deps.PackOrders, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
				Post("/auth/login", controllers.AdminLogin(deps.AuthService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
				r.Use(middleware.Idempotency(deps.Redis, logg))

				r.Post("/auth/logout", controllers.AdminLogout(deps.AuthService, logg))

				r.Route("/campaigns", func(r chi.Router) {
					r.Get("/", controllers.AdminListCampaigns(deps.Campaigns, logg))
					r.Get("/{campaignId}", controllers.AdminGetCampaign(deps.Campaigns, logg))
					r.Patch("/{campaignId}", controllers.AdminUpdateCampaign(deps.Campaigns, logg))
					r.Post("/{campaignId}/approve", controllers.AdminApproveCampaign(deps.Approval, logg))
					r.Post("/{campaignId}/reject", controllers.AdminRejectCampaign(deps.Approval, logg))
					r.Post("/{campaignId}/deactivate", controllers.AdminDeactivateCampaign(deps.Approval, logg))
					r.Get("/{campaignId}/donations", controllers.AdminListCampaignDonations(deps.Donations, logg))
				})

				r.Route("/pack-orders", func(r chi.Router) {
					r.Get("/", controllers.AdminListPackOrders(deps.PackOrders, logg))
					r.Post("/{orderId}/payment-link", controllers.AdminSendPaymentLink(deps.PackOrders, logg))
					r.Put("/{orderId}/tracking", controllers.AdminSetTracking(deps.PackOrders, logg))
				})

				r.Route("/notifications", func(r chi.Router) {
					r.Get("/", controllers.ListNotifications(deps.Notification, logg))
					r.Get("/unread-count", controllers.UnreadNotificationCount(deps.Notification, logg))
					r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notification, logg))
					r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notification, logg))
				})
			})
		})
	})

	return r
}
