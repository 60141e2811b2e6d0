package main

import (
	"context"
	"log"
	"time"

	"tipbox-backend/config"
	"tipbox-backend/database"
	billingapi "tipbox-backend/internal/api/billing"
	companiesapi "tipbox-backend/internal/api/companies"
	servicesapi "tipbox-backend/internal/api/services"
	staffapi "tipbox-backend/internal/api/staff"
	stripewebhooks "tipbox-backend/internal/api/stripewebhook"
	tipsapi "tipbox-backend/internal/api/tips"
	routes "tipbox-backend/internal/app/http"
	"tipbox-backend/internal/app/http/middleware"
	"tipbox-backend/internal/domain/plans"
	"tipbox-backend/internal/infra/insee"
	"tipbox-backend/internal/infra/stripegateway"
	"tipbox-backend/internal/ledger"
	"tipbox-backend/internal/mail"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	cfg := config.Load()

	db, err := database.Init(cfg.DBURL)
	if err != nil {
		log.Fatal("❌ Database init failed: ", err)
	}

	auth, err := middleware.NewAuthenticator(context.Background(), cfg.JWTSecret, cfg.OIDCIssuer, cfg.OIDCAudience)
	if err != nil {
		log.Fatal("❌ OIDC setup failed: ", err)
	}

	gateway := stripegateway.New(cfg.StripeSecretKey, cfg.FrontendURL)
	store := ledger.NewStore(db)
	planTable := plans.NewTable(cfg.PriceStarter, cfg.PriceStandard, cfg.PricePremium)

	var mailer mail.Mailer = mail.Noop{}
	if cfg.SMTPHost != "" {
		mailer = &mail.SMTPMailer{
			From:     cfg.SMTPFrom,
			Password: cfg.SMTPPassword,
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
		}
	}

	var verifier *insee.Client
	if cfg.INSEEClientID != "" {
		verifier = insee.New(cfg.INSEEClientID, cfg.INSEEClientSecret)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORS},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, &routes.Handlers{
		Auth:      auth,
		Tips:      tipsapi.NewHandler(gateway),
		Billing:   billingapi.NewHandler(gateway, store, planTable),
		Companies: companiesapi.NewHandler(store, planTable, verifier),
		Staff:     staffapi.NewHandler(db, mailer),
		Services:  servicesapi.NewHandler(db),
		Webhook:   stripewebhooks.NewHandler(gateway, store, cfg.StripeWebhookSecret),
	})

	r.Run(":" + cfg.Port)
}
