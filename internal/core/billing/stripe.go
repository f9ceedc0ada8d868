// Package billing wraps Stripe: checkout and customer-portal session
// creation, and the webhook that keeps the subscriptions table in sync.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/markdave123-py/Admitly/internal/config"
	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/models"
)

// ErrBadSignature marks a webhook whose signature did not verify.
var ErrBadSignature = errors.New("webhook signature verification failed")

type Service struct {
	dbclient      core.DbClient
	webhookSecret string
	frontendURL   string
	priceIDs      map[models.Plan]string
}

func NewService(dbclient core.DbClient, cfg *config.Config) *Service {
	stripe.Key = cfg.StripeSecretKey
	return &Service{
		dbclient:      dbclient,
		webhookSecret: cfg.StripeWebhookSecret,
		frontendURL:   strings.TrimRight(cfg.FrontendURL, "/"),
		priceIDs: map[models.Plan]string{
			models.PlanPlus: cfg.StripePricePlus,
			models.PlanPro:  cfg.StripePricePro,
		},
	}
}

// ensureCustomer finds or creates the Stripe customer for a user and stores
// the ID on the users row.
func (s *Service) ensureCustomer(ctx context.Context, userID string) (string, error) {
	user, err := s.dbclient.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("user not found: %s", userID)
	}
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Metadata: map[string]string{
			"user_id": user.ID,
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}

	if err := s.dbclient.SetStripeCustomerID(ctx, user.ID, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}

// CheckoutURL starts a subscription checkout session for the given plan and
// returns the redirect URL.
func (s *Service) CheckoutURL(ctx context.Context, userID string, plan models.Plan) (string, error) {
	priceID := s.priceIDs[plan]
	if priceID == "" || s.frontendURL == "" {
		return "", fmt.Errorf("billing not configured for plan %q", plan)
	}

	customerID, err := s.ensureCustomer(ctx, userID)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		Metadata: map[string]string{
			"user_id": userID,
			"plan":    string(plan),
		},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": userID,
				"plan":    string(plan),
			},
		},
		SuccessURL: stripe.String(s.frontendURL + "/billing/success"),
		CancelURL:  stripe.String(s.frontendURL + "/billing/cancel"),
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// PortalURL opens a customer-portal session so the user can manage or cancel
// their subscription.
func (s *Service) PortalURL(ctx context.Context, userID string) (string, error) {
	if s.frontendURL == "" {
		return "", errors.New("billing not configured")
	}

	user, err := s.dbclient.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || user.StripeCustomerID == "" {
		return "", fmt.Errorf("no stripe customer for user %s", userID)
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID),
		ReturnURL: stripe.String(s.frontendURL + "/settings/billing"),
	}
	sess, err := portal.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

// HandleWebhook verifies and applies one Stripe event. Subscription
// create/update events carry the user and plan in metadata set at checkout;
// deletion downgrades to free.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if s.webhookSecret == "" {
		return errors.New("webhook secret not configured")
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		sigHeader,
		s.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		userID := sess.Metadata["user_id"]
		plan := models.Plan(sess.Metadata["plan"])
		if userID == "" || (plan != models.PlanPlus && plan != models.PlanPro) {
			return fmt.Errorf("checkout session %s missing user/plan metadata", sess.ID)
		}
		subID := ""
		if sess.Subscription != nil {
			subID = sess.Subscription.ID
		}
		// The subscription.created event follows with the period end; this
		// grants access immediately after payment.
		return s.dbclient.UpsertSubscription(ctx, &models.Subscription{
			UserID:               userID,
			Plan:                 plan,
			Status:               "active",
			StripeSubscriptionID: subID,
			CurrentPeriodEnd:     time.Now().UTC().AddDate(0, 1, 0),
		})

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		userID := sub.Metadata["user_id"]
		plan := models.Plan(sub.Metadata["plan"])
		if userID == "" || (plan != models.PlanPlus && plan != models.PlanPro) {
			return fmt.Errorf("subscription %s missing user/plan metadata", sub.ID)
		}
		return s.dbclient.UpsertSubscription(ctx, &models.Subscription{
			UserID:               userID,
			Plan:                 plan,
			Status:               string(sub.Status),
			StripeSubscriptionID: sub.ID,
			CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		})

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		userID := sub.Metadata["user_id"]
		if userID == "" {
			return fmt.Errorf("subscription %s missing user metadata", sub.ID)
		}
		return s.dbclient.UpsertSubscription(ctx, &models.Subscription{
			UserID:               userID,
			Plan:                 models.PlanFree,
			Status:               "canceled",
			StripeSubscriptionID: sub.ID,
			CurrentPeriodEnd:     time.Now().UTC(),
		})

	default:
		// Intentionally ignore unhandled events.
		log.Printf("stripe: ignoring event %s", event.Type)
		return nil
	}
}

// PlanFor resolves the active plan for a user; missing or lapsed
// subscriptions fall back to free.
func PlanFor(ctx context.Context, dbclient core.DbClient, userID string) models.Plan {
	sub, err := dbclient.GetSubscription(ctx, userID)
	if err != nil || sub == nil {
		return models.PlanFree
	}
	if sub.Status != "active" && sub.Status != "trialing" {
		return models.PlanFree
	}
	return sub.Plan
}
