package billing

import (
	"errors"
	"log"
	"net/http"

	"tipbox-backend/internal/app/http/middleware"
	"tipbox-backend/internal/domain/plans"
	"tipbox-backend/internal/infra/stripegateway"
	"tipbox-backend/internal/ledger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	gateway stripegateway.Gateway
	store   *ledger.Store
	plans   *plans.Table
}

func NewHandler(gateway stripegateway.Gateway, store *ledger.Store, table *plans.Table) *Handler {
	return &Handler{gateway: gateway, store: store, plans: table}
}

// CreateSubscriptionSession starts a subscription checkout for the caller's
// company. The company id and plan name ride in the session metadata; they
// are the only way the webhook can attribute the subscription later, so they
// are always attached.
func (h *Handler) CreateSubscriptionSession(c *gin.Context) {
	var body struct {
		Plan string `json:"plan"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Plan == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid plan"})
		return
	}

	companyID := middleware.CompanyID(c)
	if companyID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Company not identified"})
		return
	}

	plan, err := h.plans.Lookup(body.Plan)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan"})
		return
	}

	url, err := h.gateway.CreateSubscriptionCheckout(c.Request.Context(), plan.StripePriceID, map[string]string{
		"companyId": companyID,
		"plan":      plan.Name,
	})
	if err != nil {
		log.Println("Stripe subscription checkout error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur Stripe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ListPlans serves the public plan catalog.
func (h *Handler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.plans.All())
}

func isNotFound(err error) bool {
	return errors.Is(err, ledger.ErrCompanyNotFound)
}
