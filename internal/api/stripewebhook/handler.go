package stripewebhooks

import (
	"io"
	"log"
	"net/http"

	"tipbox-backend/internal/infra/stripegateway"
	"tipbox-backend/internal/ledger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	gateway        stripegateway.Gateway
	store          *ledger.Store
	endpointSecret string
}

func NewHandler(gateway stripegateway.Gateway, store *ledger.Store, endpointSecret string) *Handler {
	return &Handler{gateway: gateway, store: store, endpointSecret: endpointSecret}
}

// HandleWebhook verifies and reconciles one processor event.
//
// A bad signature is the only 4xx this endpoint produces. Once the signature
// validates, the answer is 200 no matter what happens inside: the processor
// retries on any non-200, and retrying a reconciliation failure that is not
// transient would just redeliver the same failure forever. Internal errors
// are logged instead.
func (h *Handler) HandleWebhook(c *gin.Context) {
	payload, err := readRawBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := stripegateway.VerifyWebhookSignature(payload, c.GetHeader("Stripe-Signature"), h.endpointSecret)
	if err != nil {
		log.Println("Stripe signature verification failed:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	switch event.Type {
	case "customer.subscription.created", "invoice.paid":
		if err := h.applySubscriptionActive(c.Request.Context(), event); err != nil {
			log.Printf("webhook %s (%s): %v", event.Type, event.ID, err)
		}
		c.JSON(http.StatusOK, gin.H{"status": "received"})

	case "invoice.payment_failed":
		if err := h.applyPaymentFailed(c.Request.Context(), event); err != nil {
			log.Printf("webhook %s (%s): %v", event.Type, event.ID, err)
		}
		c.JSON(http.StatusOK, gin.H{"status": "received"})

	case "customer.subscription.deleted":
		if err := h.applySubscriptionDeleted(c.Request.Context(), event); err != nil {
			log.Printf("webhook %s (%s): %v", event.Type, event.ID, err)
		}
		c.JSON(http.StatusOK, gin.H{"status": "received"})

	default:
		// The event taxonomy grows over time; unknown types are acknowledged
		// so the processor does not retry them.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

func readRawBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
