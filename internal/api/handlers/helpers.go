package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/core/billing"
	"github.com/markdave123-py/Admitly/internal/core/quota"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// identityFromContext resolves the authenticated caller and their active
// plan for quota decisions.
func identityFromContext(ctx context.Context, dbclient core.DbClient) (quota.Identity, bool) {
	userID, ok := ctx.Value("user_id").(string)
	if !ok || userID == "" {
		return quota.Identity{}, false
	}
	email, _ := ctx.Value("email").(string)
	return quota.Identity{
		UserID: userID,
		Email:  email,
		Plan:   billing.PlanFor(ctx, dbclient, userID),
	}, true
}
