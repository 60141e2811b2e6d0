package billing

import (
	"log"
	"net/http"

	"tipbox-backend/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateConnectedAccount provisions the company's payout account with the
// processor and returns the onboarding link.
//
// Account creation and the ledger write cannot be made atomic across the
// process and the store, so the handler persists a setup key first and hands
// it to Stripe as the idempotency key: re-running after a crash between the
// two steps replays the same account instead of creating a second one.
func (h *Handler) CreateConnectedAccount(c *gin.Context) {
	companyID := middleware.CompanyID(c)
	if companyID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Company not identified"})
		return
	}

	ctx := c.Request.Context()
	company, err := h.store.Get(ctx, companyID)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Company not registered"})
			return
		}
		log.Println("ledger read error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	accountID := ""
	if company.StripeAccountID != nil {
		accountID = *company.StripeAccountID
	}

	if accountID == "" {
		setupKey := ""
		if company.StripeAccountSetupKey != nil {
			setupKey = *company.StripeAccountSetupKey
		}
		if setupKey == "" {
			setupKey = uuid.NewString()
			if err := h.store.Upsert(ctx, companyID, map[string]interface{}{
				"stripe_account_setup_key": setupKey,
			}); err != nil {
				log.Println("ledger write error:", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
				return
			}
		}

		accountID, err = h.gateway.CreateConnectedAccount(ctx, c.GetString(middleware.CtxEmail), setupKey, map[string]string{
			"companyId": companyID,
		})
		if err != nil {
			log.Println("Stripe connected account error:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur Stripe"})
			return
		}

		if err := h.store.Upsert(ctx, companyID, map[string]interface{}{
			"stripe_account_id": accountID,
		}); err != nil {
			// The setup key already went out with the account; the next call
			// replays the creation and lands the id.
			log.Println("ledger write error after account creation:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
			return
		}
	}

	url, err := h.gateway.CreateAccountOnboardingLink(ctx, accountID)
	if err != nil {
		log.Println("Stripe account link error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur Stripe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
