package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/core/quota"
	"github.com/markdave123-py/Admitly/internal/models"
)

// historyWindow caps how many prior turns are replayed to the model.
const historyWindow = 12

type ChatHandler struct {
	dbclient core.DbClient
	llm      core.LLMProvider
	limiter  *quota.Limiter
}

func NewChatHandler(dbclient core.DbClient, llm core.LLMProvider, limiter *quota.Limiter) *ChatHandler {
	return &ChatHandler{dbclient: dbclient, llm: llm, limiter: limiter}
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type sendMessageResponse struct {
	Quota          quota.Status        `json:"quota"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Reply          *models.ChatMessage `json:"reply,omitempty"`
}

const consultantPrompt = "You are an experienced college admissions consultant. " +
	"Give specific, honest advice on applications, essays, school selection, " +
	"test prep and financial aid. Keep answers focused and practical."

// systemPromptFor folds the student's profile into the consultant prompt so
// advice reflects their background. A missing profile is fine.
func (h *ChatHandler) systemPromptFor(r *http.Request, userID string) string {
	profile, err := h.dbclient.GetProfile(r.Context(), userID)
	if err != nil || profile == nil {
		return consultantPrompt
	}
	summary := profileLine(profile)
	if summary == "" {
		return consultantPrompt
	}
	return consultantPrompt + "\n\nStudent background: " + summary
}

func profileLine(p *models.Profile) string {
	var parts []string
	prefs := p.Preferences
	if prefs.IntendedMajor != "" {
		parts = append(parts, "intended major "+prefs.IntendedMajor)
	}
	if prefs.Curriculum != "" {
		parts = append(parts, "curriculum "+prefs.Curriculum)
	}
	if prefs.GPA > 0 {
		parts = append(parts, fmt.Sprintf("GPA %.2f", prefs.GPA))
	}
	if prefs.SATScore > 0 {
		parts = append(parts, fmt.Sprintf("SAT %d", prefs.SATScore))
	}
	return strings.Join(parts, ", ")
}

// SendMessage appends a user turn to a conversation (creating one on first
// use) and returns the assistant reply. Each call costs one chat quota unit.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := identityFromContext(ctx, h.dbclient)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		http.Error(w, "message is empty", http.StatusBadRequest)
		return
	}

	var conv *models.Conversation
	if req.ConversationID != "" {
		existing, err := h.dbclient.GetConversation(ctx, req.ConversationID)
		if err != nil || existing == nil {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		if existing.UserID != id.UserID {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		conv = existing
	}

	st := h.limiter.Consume(ctx, id, models.FeatureChat)
	if !st.CanUse {
		writeJSON(w, http.StatusOK, sendMessageResponse{Quota: st})
		return
	}

	if conv == nil {
		conv = &models.Conversation{
			ID:        uuid.NewString(),
			UserID:    id.UserID,
			Title:     conversationTitle(req.Message),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := h.dbclient.CreateConversation(ctx, conv); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	history, err := h.dbclient.ListMessagesByConversation(ctx, conv.ID, historyWindow)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var sb strings.Builder
	for _, m := range history {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&sb, "user: %s", req.Message)

	answer, err := h.llm.Generate(ctx, h.systemPromptFor(r, id.UserID), sb.String())
	if err != nil {
		http.Error(w, fmt.Sprintf("chat failed: %v", err), http.StatusInternalServerError)
		return
	}

	userMsg := &models.ChatMessage{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           "user",
		Content:        req.Message,
		CreatedAt:      time.Now(),
	}
	reply := &models.ChatMessage{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           "assistant",
		Content:        answer,
		CreatedAt:      time.Now(),
	}
	if err := h.dbclient.AddChatMessage(ctx, userMsg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := h.dbclient.AddChatMessage(ctx, reply); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		Quota:          st,
		ConversationID: conv.ID,
		Reply:          reply,
	})
}

// conversationTitle derives a short title from the opening message,
// truncating on a rune boundary so multi-byte text stays valid UTF-8.
func conversationTitle(firstMessage string) string {
	const maxTitle = 60
	title := strings.TrimSpace(firstMessage)
	if len(title) <= maxTitle {
		return title
	}
	cut := maxTitle
	for cut > 0 && !utf8.RuneStart(title[cut]) {
		cut--
	}
	return title[:cut]
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	convs, err := h.dbclient.ListConversationsByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := ctx.Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	convID := chi.URLParam(r, "id")
	conv, err := h.dbclient.GetConversation(ctx, convID)
	if err != nil || conv == nil || conv.UserID != userID {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	msgs, err := h.dbclient.ListMessagesByConversation(ctx, convID, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := ctx.Value("user_id").(string)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	convID := chi.URLParam(r, "id")
	conv, err := h.dbclient.GetConversation(ctx, convID)
	if err != nil || conv == nil || conv.UserID != userID {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	if err := h.dbclient.DeleteConversation(ctx, convID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendMessageGuest answers a single stateless question for an anonymous
// visitor. No conversation is created and nothing is stored.
func (h *ChatHandler) SendMessageGuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	guestID, ok := ctx.Value("guest_id").(string)
	if !ok {
		http.Error(w, "missing guest id", http.StatusBadRequest)
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		http.Error(w, "message is empty", http.StatusBadRequest)
		return
	}

	st := h.limiter.ConsumeGuest(ctx, guestID, models.FeatureChat)
	if !st.CanUse {
		writeJSON(w, http.StatusOK, sendMessageResponse{Quota: st})
		return
	}

	answer, err := h.llm.Generate(ctx, consultantPrompt, "user: "+req.Message)
	if err != nil {
		http.Error(w, fmt.Sprintf("chat failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		Quota: st,
		Reply: &models.ChatMessage{
			Role:      "assistant",
			Content:   answer,
			CreatedAt: time.Now(),
		},
	})
}
