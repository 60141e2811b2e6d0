package stripewebhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"tipbox-backend/internal/domain/companies"
	"tipbox-backend/internal/domain/plans"
	"tipbox-backend/internal/ledger"

	"github.com/stripe/stripe-go/v75"
)

// applySubscriptionActive reconciles a created or renewed subscription.
//
// The webhook payload is never trusted for the write: payloads can be
// partial or stale, so the subscription is re-fetched by id and only the
// authoritative snapshot drives the ledger update, status included: a
// late-redelivered invoice event for a since-canceled subscription writes
// canceled, not active. The update itself is an idempotent merge,
// redelivered events land on the same state.
func (h *Handler) applySubscriptionActive(ctx context.Context, event stripe.Event) error {
	subscriptionID, err := subscriptionIDFromEvent(event)
	if err != nil {
		return err
	}
	if subscriptionID == "" {
		log.Printf("webhook %s: no subscription reference, dropping", event.Type)
		return nil
	}

	snapshot, err := h.gateway.RetrieveSubscription(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("retrieve subscription %s: %w", subscriptionID, err)
	}

	companyID := snapshot.Metadata["companyId"]
	planName := snapshot.Metadata["plan"]
	if companyID == "" || planName == "" {
		// Without metadata the event cannot be attributed to a tenant. That
		// is an upstream data gap, not something a retry fixes.
		log.Printf("subscription %s missing companyId/plan metadata, dropping", subscriptionID)
		return nil
	}

	return h.store.Upsert(ctx, companyID, map[string]interface{}{
		"payment_status":         plans.NormalizePaymentStatus(snapshot.Status),
		"plan":                   planName,
		"stripe_subscription_id": subscriptionID,
	})
}

func (h *Handler) applyPaymentFailed(ctx context.Context, event stripe.Event) error {
	subscriptionID, err := subscriptionIDFromEvent(event)
	if err != nil {
		return err
	}
	if subscriptionID == "" {
		return nil
	}

	snapshot, err := h.gateway.RetrieveSubscription(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("retrieve subscription %s: %w", subscriptionID, err)
	}

	companyID := snapshot.Metadata["companyId"]
	if companyID == "" {
		company, err := h.store.FindBySubscription(ctx, subscriptionID)
		if errors.Is(err, ledger.ErrCompanyNotFound) {
			log.Printf("subscription %s not attributable, dropping payment_failed", subscriptionID)
			return nil
		}
		if err != nil {
			return err
		}
		companyID = company.ID
	}

	// The snapshot decides the status here too: Stripe may have already
	// collected a retry (active again) or canceled the subscription by the
	// time this delivery lands.
	return h.store.Upsert(ctx, companyID, map[string]interface{}{
		"payment_status":         plans.NormalizePaymentStatus(snapshot.Status),
		"stripe_subscription_id": subscriptionID,
	})
}

func (h *Handler) applySubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("parse subscription payload: %w", err)
	}
	if sub.ID == "" {
		return nil
	}

	companyID := sub.Metadata["companyId"]
	if companyID == "" {
		company, err := h.store.FindBySubscription(ctx, sub.ID)
		if errors.Is(err, ledger.ErrCompanyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		companyID = company.ID
	}

	return h.store.Upsert(ctx, companyID, map[string]interface{}{
		"payment_status": companies.StatusCanceled,
	})
}

// subscriptionIDFromEvent pulls the subscription reference out of the two
// payload shapes this reconciler sees: subscription objects and invoices.
func subscriptionIDFromEvent(event stripe.Event) (string, error) {
	switch event.Type {
	case "invoice.paid", "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return "", fmt.Errorf("parse invoice payload: %w", err)
		}
		if inv.Subscription == nil {
			return "", nil
		}
		return inv.Subscription.ID, nil
	default:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return "", fmt.Errorf("parse subscription payload: %w", err)
		}
		return sub.ID, nil
	}
}
