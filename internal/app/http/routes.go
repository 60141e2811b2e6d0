package routes

import (
	billingapi "tipbox-backend/internal/api/billing"
	companiesapi "tipbox-backend/internal/api/companies"
	servicesapi "tipbox-backend/internal/api/services"
	staffapi "tipbox-backend/internal/api/staff"
	stripewebhooks "tipbox-backend/internal/api/stripewebhook"
	tipsapi "tipbox-backend/internal/api/tips"
	"tipbox-backend/internal/app/http/middleware"
	"tipbox-backend/internal/domain/staff"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything RegisterRoutes wires up; main builds it once.
type Handlers struct {
	Auth      *middleware.Authenticator
	Tips      *tipsapi.Handler
	Billing   *billingapi.Handler
	Companies *companiesapi.Handler
	Staff     *staffapi.Handler
	Services  *servicesapi.Handler
	Webhook   *stripewebhooks.Handler
}

func RegisterRoutes(r *gin.Engine, h *Handlers) {
	// The webhook reads the raw body for signature verification and must not
	// go through the JSON sanitizer.
	r.POST("/webhook", h.Webhook.HandleWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/plans", h.Billing.ListPlans)

	// Public, sanitized: the tip page is reached from a QR code, no account.
	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.POST("/create-checkout-session", h.Tips.CreateCheckoutSession)

	// Authenticated
	auth := r.Group("/")
	auth.Use(h.Auth.Middleware())
	auth.POST("/create-subscription-session", h.Billing.CreateSubscriptionSession)
	auth.POST("/create-connected-account", h.Billing.CreateConnectedAccount)
	auth.POST("/register-company", h.Companies.RegisterCompany)

	auth.GET("/users", h.Staff.ListUsers)
	auth.GET("/services", h.Services.ListServices)

	// Staff and service mutations are director-only.
	director := auth.Group("/")
	director.Use(middleware.RequireRole(staff.RoleDirector))
	director.POST("/create-user", h.Staff.CreateUser)
	director.POST("/add-service-user", h.Staff.AddServiceUser)
	director.POST("/update-user-services", h.Staff.UpdateUserServices)
	director.POST("/remove-service-user", h.Staff.RemoveServiceUser)
	director.POST("/lock-service-user", h.Staff.LockServiceUser)
	director.POST("/services", h.Services.CreateService)
}
