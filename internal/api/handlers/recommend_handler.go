package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/core/quota"
	"github.com/markdave123-py/Admitly/internal/core/recommend"
	"github.com/markdave123-py/Admitly/internal/models"
)

type RecommendHandler struct {
	dbclient    core.DbClient
	recommender *recommend.Recommender
	limiter     *quota.Limiter
}

func NewRecommendHandler(dbclient core.DbClient, recommender *recommend.Recommender, limiter *quota.Limiter) *RecommendHandler {
	return &RecommendHandler{dbclient: dbclient, recommender: recommender, limiter: limiter}
}

type recommendResponse struct {
	Quota           quota.Status            `json:"quota"`
	Recommendations []models.Recommendation `json:"recommendations,omitempty"`
}

// Recommend runs the matcher against the caller's stored profile.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := identityFromContext(ctx, h.dbclient)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := h.dbclient.GetProfile(ctx, id.UserID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "complete your profile before requesting recommendations", http.StatusBadRequest)
		return
	}

	st := h.limiter.Consume(ctx, id, models.FeatureRecommender)
	if !st.CanUse {
		writeJSON(w, http.StatusOK, recommendResponse{Quota: st})
		return
	}

	recs, err := h.recommender.Run(ctx, profile)
	if err != nil {
		http.Error(w, fmt.Sprintf("recommendation failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{Quota: st, Recommendations: recs})
}

// RecommendGuest runs the matcher against preferences supplied in the body.
// Nothing is persisted for anonymous visitors.
func (h *RecommendHandler) RecommendGuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	guestID, ok := ctx.Value("guest_id").(string)
	if !ok {
		http.Error(w, "missing guest id", http.StatusBadRequest)
		return
	}

	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	st := h.limiter.ConsumeGuest(ctx, guestID, models.FeatureRecommender)
	if !st.CanUse {
		writeJSON(w, http.StatusOK, recommendResponse{Quota: st})
		return
	}

	recs, err := h.recommender.Run(ctx, &models.Profile{Preferences: prefs})
	if err != nil {
		http.Error(w, fmt.Sprintf("recommendation failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{Quota: st, Recommendations: recs})
}

type saveUniversityRequest struct {
	UniversityID string `json:"university_id"`
	Name         string `json:"name"`
	Note         string `json:"note"`
}

func (h *RecommendHandler) SaveUniversity(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req saveUniversityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.UniversityID == "" || req.Name == "" {
		http.Error(w, "university_id and name are required", http.StatusBadRequest)
		return
	}

	saved := &models.SavedUniversity{
		ID:           uuid.NewString(),
		UserID:       userID,
		UniversityID: req.UniversityID,
		Name:         req.Name,
		Note:         req.Note,
		CreatedAt:    time.Now(),
	}
	if err := h.dbclient.SaveUniversity(r.Context(), saved); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *RecommendHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	saved, err := h.dbclient.ListSavedUniversities(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *RecommendHandler) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.dbclient.DeleteSavedUniversity(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
