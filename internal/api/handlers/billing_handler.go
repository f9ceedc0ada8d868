package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/core/billing"
	"github.com/markdave123-py/Admitly/internal/models"
)

// Stripe documents webhook payloads under 64KB.
const maxWebhookBytes = 65536

type BillingHandler struct {
	dbclient core.DbClient
	billing  *billing.Service
}

func NewBillingHandler(dbclient core.DbClient, svc *billing.Service) *BillingHandler {
	return &BillingHandler{dbclient: dbclient, billing: svc}
}

type checkoutRequest struct {
	Plan models.Plan `json:"plan"`
}

// CreateCheckout returns a Stripe Checkout URL for upgrading to a paid plan.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Plan != models.PlanPlus && req.Plan != models.PlanPro {
		http.Error(w, "plan must be plus or pro", http.StatusBadRequest)
		return
	}

	url, err := h.billing.CheckoutURL(r.Context(), userID, req.Plan)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// CreatePortal returns a Stripe billing portal URL for managing the
// subscription.
func (h *BillingHandler) CreatePortal(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	url, err := h.billing.PortalURL(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GetSubscription reports the caller's current plan and subscription status.
func (h *BillingHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sub, err := h.dbclient.GetSubscription(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":         billing.PlanFor(r.Context(), h.dbclient, userID),
		"subscription": sub,
	})
}

// Webhook receives Stripe subscription lifecycle events. Signature failures
// are 400s; everything else that goes wrong is a 500 so Stripe retries.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	err = h.billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrBadSignature) {
			http.Error(w, "bad signature", http.StatusBadRequest)
			return
		}
		log.Printf("stripe webhook failed: %v", err)
		http.Error(w, "webhook failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
