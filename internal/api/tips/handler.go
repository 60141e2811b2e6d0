package tips

import (
	"log"
	"math"
	"net/http"
	"strings"

	"tipbox-backend/internal/infra/stripegateway"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
)

// MinAmountMinorUnits is the smallest accepted tip (0,50 €). Below this the
// processor's fixed fees eat the whole charge.
const MinAmountMinorUnits = 50

// MaxAmountMinorUnits caps a tip at 1 000 €. Anything above is a typo or
// abuse, and the bound keeps the float→int64 conversion in range.
const MaxAmountMinorUnits = 100000

const maxMessageRunes = 200

type Handler struct {
	gateway stripegateway.Gateway
	policy  *bluemonday.Policy
}

func NewHandler(gateway stripegateway.Gateway) *Handler {
	return &Handler{gateway: gateway, policy: bluemonday.StrictPolicy()}
}

// CreateCheckoutSession starts a tip payment and returns the processor's
// redirect URL. Nothing is persisted locally; the checkout session is the
// only state created.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body struct {
		Amount  float64 `json:"amount"`
		Message string  `json:"message"`
		Service string  `json:"service"`
		UID     string  `json:"uid"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	service := strings.TrimSpace(body.Service)
	if service == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le service est obligatoire"})
		return
	}

	if body.Amount > MaxAmountMinorUnits {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant invalide (maximum 1000€)"})
		return
	}
	unitAmount := int64(math.Round(body.Amount))
	if unitAmount < MinAmountMinorUnits {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Montant invalide (minimum 0,50€)"})
		return
	}

	message := h.cleanMessage(body.Message)

	metadata := map[string]string{"service": service}
	if body.UID != "" {
		metadata["uid"] = body.UID
	}
	if message != "" {
		metadata["message"] = message
	}

	url, err := h.gateway.CreateTipCheckout(c.Request.Context(), stripegateway.TipCheckout{
		AmountMinorUnits: unitAmount,
		ServiceName:      service,
		Message:          message,
		Metadata:         metadata,
	})
	if err != nil {
		log.Println("Stripe checkout error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur Stripe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// cleanMessage trims, caps and strips markup from the guest message. An
// empty result is dropped entirely so no empty description reaches the
// processor.
func (h *Handler) cleanMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ""
	}
	runes := []rune(msg)
	if len(runes) > maxMessageRunes {
		msg = string(runes[:maxMessageRunes])
	}
	return strings.TrimSpace(h.policy.Sanitize(msg))
}
