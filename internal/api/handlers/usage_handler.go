package handlers

import (
	"net/http"

	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/core/quota"
	"github.com/markdave123-py/Admitly/internal/models"
)

type UsageHandler struct {
	dbclient core.DbClient
	limiter  *quota.Limiter
}

func NewUsageHandler(dbclient core.DbClient, limiter *quota.Limiter) *UsageHandler {
	return &UsageHandler{dbclient: dbclient, limiter: limiter}
}

var gatedFeatures = []models.Feature{
	models.FeatureChat,
	models.FeatureEssay,
	models.FeatureRecommender,
}

// GetUsage reports remaining quota per feature without consuming anything.
// The dashboard polls this to decide which feature buttons to enable.
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := identityFromContext(ctx, h.dbclient)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	out := map[models.Feature]quota.Status{}
	for _, f := range gatedFeatures {
		out[f] = h.limiter.Check(ctx, id, f)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":     id.Plan,
		"features": out,
	})
}

// GetUsageGuest is the anonymous variant keyed by X-Guest-ID.
func (h *UsageHandler) GetUsageGuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	guestID, ok := ctx.Value("guest_id").(string)
	if !ok {
		http.Error(w, "missing guest id", http.StatusBadRequest)
		return
	}

	out := map[models.Feature]quota.Status{}
	for _, f := range gatedFeatures {
		out[f] = h.limiter.CheckGuest(ctx, guestID, f)
	}
	writeJSON(w, http.StatusOK, map[string]any{"features": out})
}
