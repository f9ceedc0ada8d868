package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/markdave123-py/Admitly/internal/config"
	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/core/essay"
	"github.com/markdave123-py/Admitly/internal/core/quota"
	"github.com/markdave123-py/Admitly/internal/models"
)

const maxEssayBytes = 1 << 20 // essays are small; anything bigger is not an essay

type EssayHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	llm          core.LLMProvider
	limiter      *quota.Limiter
	cfg          *config.Config
}

func NewEssayHandler(dbclient core.DbClient, objectclient core.ObjectClient, llm core.LLMProvider, limiter *quota.Limiter, cfg *config.Config) *EssayHandler {
	return &EssayHandler{dbclient: dbclient, objectclient: objectclient, llm: llm, limiter: limiter, cfg: cfg}
}

type analyzeRequest struct {
	EssayText string `json:"essay_text"`
}

type analyzeResponse struct {
	Quota    quota.Status          `json:"quota"`
	Analysis *models.EssayAnalysis `json:"analysis,omitempty"`
}

// essayFromRequest accepts either a JSON body with essay_text or a
// multipart upload whose file is run through text extraction.
func essayFromRequest(r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxEssayBytes); err != nil {
			return "", fmt.Errorf("invalid multipart form")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", fmt.Errorf("invalid file")
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxEssayBytes+1))
		if err != nil {
			return "", fmt.Errorf("read file")
		}
		if len(data) > maxEssayBytes {
			return "", fmt.Errorf("file exceeds %d bytes", maxEssayBytes)
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return essay.ExtractText(data, contentType)
	}

	var req analyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEssayBytes)).Decode(&req); err != nil {
		return "", fmt.Errorf("invalid body")
	}
	return strings.TrimSpace(req.EssayText), nil
}

// AnalyzeEssay runs one quota-gated analysis and stores the result.
func (h *EssayHandler) AnalyzeEssay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := identityFromContext(ctx, h.dbclient)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	essayText, err := essayFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if essayText == "" {
		http.Error(w, "essay text is empty", http.StatusBadRequest)
		return
	}

	st := h.limiter.Consume(ctx, id, models.FeatureEssay)
	if !st.CanUse {
		writeJSON(w, http.StatusOK, analyzeResponse{Quota: st})
		return
	}

	system, user := essay.BuildPrompt(essayText)
	response, err := h.llm.Generate(ctx, system, user)
	if err != nil {
		http.Error(w, fmt.Sprintf("analysis failed: %v", err), http.StatusInternalServerError)
		return
	}

	parsed := essay.Parse(essayText, response)
	analysis := &models.EssayAnalysis{
		ID:         uuid.NewString(),
		UserID:     id.UserID,
		EssayText:  essayText,
		Feedback:   parsed.Feedback,
		Highlights: parsed.Highlights,
		Ratings:    parsed.Ratings,
		CreatedAt:  time.Now(),
	}

	if err := h.dbclient.CreateEssayAnalysis(ctx, analysis); err != nil {
		http.Error(w, fmt.Sprintf("failed to store analysis: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{Quota: st, Analysis: analysis})
}

func (h *EssayHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	analyses, err := h.dbclient.ListEssayAnalysesByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

// GetAnalysis returns one stored analysis, owner only.
func (h *EssayHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := ctx.Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	analysis, err := h.dbclient.GetEssayAnalysis(ctx, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if analysis == nil || analysis.UserID != userID {
		http.Error(w, "analysis not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// ExportReport renders a stored analysis as a plain-text report, uploads it
// to object storage and records the URL. Re-exporting overwrites in place.
func (h *EssayHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := ctx.Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	analysis, err := h.dbclient.GetEssayAnalysis(ctx, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if analysis == nil || analysis.UserID != userID {
		http.Error(w, "analysis not found", http.StatusNotFound)
		return
	}

	key := fmt.Sprintf("%s/%s/report.txt", userID, analysis.ID)
	report := essay.RenderReport(analysis)
	url, err := h.objectclient.UploadFile(ctx, h.cfg.BucketName, key, strings.NewReader(report), "text/plain; charset=utf-8")
	if err != nil {
		log.Printf("essay report upload failed for %s: %v", analysis.ID, err)
		http.Error(w, "report export failed", http.StatusInternalServerError)
		return
	}
	if err := h.dbclient.SetEssayReportURL(ctx, analysis.ID, url); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"report_url": url})
}

// AnalyzeEssayGuest is the anonymous path: one use per feature per week,
// nothing persisted, no report export.
func (h *EssayHandler) AnalyzeEssayGuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	guestID, ok := ctx.Value("guest_id").(string)
	if !ok {
		http.Error(w, "missing guest id", http.StatusBadRequest)
		return
	}

	essayText, err := essayFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if essayText == "" {
		http.Error(w, "essay text is empty", http.StatusBadRequest)
		return
	}

	st := h.limiter.ConsumeGuest(ctx, guestID, models.FeatureEssay)
	if !st.CanUse {
		writeJSON(w, http.StatusOK, analyzeResponse{Quota: st})
		return
	}

	system, user := essay.BuildPrompt(essayText)
	response, err := h.llm.Generate(ctx, system, user)
	if err != nil {
		http.Error(w, fmt.Sprintf("analysis failed: %v", err), http.StatusInternalServerError)
		return
	}

	parsed := essay.Parse(essayText, response)
	writeJSON(w, http.StatusOK, analyzeResponse{
		Quota: st,
		Analysis: &models.EssayAnalysis{
			EssayText:  essayText,
			Feedback:   parsed.Feedback,
			Highlights: parsed.Highlights,
			Ratings:    parsed.Ratings,
			CreatedAt:  time.Now(),
		},
	})
}
