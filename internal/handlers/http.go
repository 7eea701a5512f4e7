package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/nexa-digital/nexus-chat-go/internal/config"
	"github.com/nexa-digital/nexus-chat-go/internal/i18n"
	"github.com/nexa-digital/nexus-chat-go/internal/middleware"
	"github.com/nexa-digital/nexus-chat-go/internal/models"
	"github.com/nexa-digital/nexus-chat-go/internal/services/catalog"
	"github.com/nexa-digital/nexus-chat-go/internal/services/chat"
	"github.com/nexa-digital/nexus-chat-go/internal/services/gpt"
	"github.com/nexa-digital/nexus-chat-go/internal/services/voice"
	"github.com/nexa-digital/nexus-chat-go/pkg/markdown"
)

// Server exposes the stores and the orchestrator over HTTP.
type Server struct {
	cfg       *config.Config
	orch      *Orchestrator
	catalog   *catalog.Catalog
	gpts      *gpt.Store
	chats     *chat.Store
	voice     *voice.Controller
	localizer *i18n.Localizer
	limiter   middleware.RateLimiter
	metrics   *middleware.Metrics
	logger    *logrus.Logger
	now       func() time.Time
}

// NewServer creates the HTTP server.
func NewServer(
	cfg *config.Config,
	orch *Orchestrator,
	cat *catalog.Catalog,
	gpts *gpt.Store,
	chats *chat.Store,
	voiceController *voice.Controller,
	localizer *i18n.Localizer,
	limiter middleware.RateLimiter,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		orch:      orch,
		catalog:   cat,
		gpts:      gpts,
		chats:     chats,
		voice:     voiceController,
		localizer: localizer,
		limiter:   limiter,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Router builds the API routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.rateLimitMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/assistants", s.handleListAssistants).Methods(http.MethodGet)
	api.HandleFunc("/assistants/{id}/activate", s.handleActivateAssistant).Methods(http.MethodPost)
	api.HandleFunc("/assistants/{id}/rating", s.handleRateAssistant).Methods(http.MethodPost)
	api.HandleFunc("/assistants/{id}/pin", s.handlePinAssistant).Methods(http.MethodPost)
	api.HandleFunc("/assistants/{id}/voice", s.handleSetVoice).Methods(http.MethodPost)

	api.HandleFunc("/chats", s.handleListChats).Methods(http.MethodGet)
	api.HandleFunc("/chats", s.handleCreateChat).Methods(http.MethodPost)
	api.HandleFunc("/chats/active", s.handleSetActiveChat).Methods(http.MethodPost)
	api.HandleFunc("/chats/{id}", s.handleRenameChat).Methods(http.MethodPatch)
	api.HandleFunc("/chats/{id}", s.handleDeleteChat).Methods(http.MethodDelete)
	api.HandleFunc("/chats/{id}/archive", s.handleArchiveChat).Methods(http.MethodPost)

	api.HandleFunc("/messages", s.handleListMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages", s.handleSendMessage).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id}", s.handleUpdateMessage).Methods(http.MethodPatch)
	api.HandleFunc("/messages/{id}/feedback", s.handleAddFeedback).Methods(http.MethodPost)

	api.HandleFunc("/gpts", s.handleListGPTs).Methods(http.MethodGet)
	api.HandleFunc("/gpts", s.handleAddGPT).Methods(http.MethodPost)
	api.HandleFunc("/gpts/import", s.handleImportGPTs).Methods(http.MethodPost)
	api.HandleFunc("/gpts/{id}", s.handleUpdateGPT).Methods(http.MethodPut)
	api.HandleFunc("/gpts/{id}", s.handleDeleteGPT).Methods(http.MethodDelete)
	api.HandleFunc("/gpts/{id}/default", s.handleSetDefaultGPT).Methods(http.MethodPost)

	api.HandleFunc("/state", s.handleGetState).Methods(http.MethodGet)
	api.HandleFunc("/state/sidebar", s.handleSetSidebar).Methods(http.MethodPost)

	api.HandleFunc("/voice/transcript", s.handleTranscript).Methods(http.MethodPost)

	// Deep link entry point
	r.HandleFunc("/go/{id}", s.handleDeepLink).Methods(http.MethodGet)

	return r
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.clientID(r)
		if !s.limiter.Allow(clientID) {
			s.metrics.RecordRateLimitExceeded(clientID)
			s.writeError(w, r, http.StatusTooManyRequests, i18n.MsgRateLimitExceeded)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) clientID(r *http.Request) string {
	if id := r.Header.Get("X-Client-ID"); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// elevated reports whether the caller presented the admin token.
func (s *Server) elevated(r *http.Request) bool {
	if s.cfg.Server.AdminToken == "" {
		return false
	}
	token := r.Header.Get("X-Admin-Token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	return token == s.cfg.Server.AdminToken
}

func (s *Server) lang(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	accept := r.Header.Get("Accept-Language")
	if len(accept) >= 2 {
		return accept[:2]
	}
	return s.cfg.I18n.DefaultLanguage
}

// --- assistants ---

func (s *Server) handleListAssistants(w http.ResponseWriter, r *http.Request) {
	merged := chat.MergeAssistants(s.catalog.ListAll(), s.gpts.ListVisible(s.elevated(r)))
	pinned := s.chats.PinnedIDs()

	switch r.URL.Query().Get("view") {
	case "pinned":
		s.writeJSON(w, http.StatusOK, chat.FilterPinned(merged, pinned))
	case "browsable":
		s.writeJSON(w, http.StatusOK, chat.FilterBrowsable(merged, pinned, r.URL.Query().Get("query")))
	default:
		s.writeJSON(w, http.StatusOK, merged)
	}
}

func (s *Server) handleActivateAssistant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewChat *bool `json:"newChat"`
	}
	s.decode(r, &body)
	createNewChat := body.NewChat == nil || *body.NewChat

	if err := s.orch.SelectAssistant(r.Context(), mux.Vars(r)["id"], createNewChat); err != nil {
		s.writeError(w, r, http.StatusNotFound, i18n.MsgAssistantNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, s.chats.ActiveAssistant())
}

func (s *Server) handleRateAssistant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rating int `json:"rating"`
	}
	if err := s.decode(r, &body); err != nil || body.Rating < 1 || body.Rating > 5 {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}
	s.orch.RateAssistant(r.Context(), mux.Vars(r)["id"], body.Rating)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePinAssistant(w http.ResponseWriter, r *http.Request) {
	s.orch.TogglePinnedAssistant(r.Context(), mux.Vars(r)["id"])
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"pinnedAssistants": s.chats.PinnedIDs()})
}

func (s *Server) handleSetVoice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Voice models.Voice `json:"voice"`
	}
	if err := s.decode(r, &body); err != nil || !body.Voice.Valid() {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}
	if err := s.orch.SetAssistantVoice(r.Context(), mux.Vars(r)["id"], body.Voice); err != nil {
		s.writeError(w, r, http.StatusNotFound, i18n.MsgAssistantNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeepLink(w http.ResponseWriter, r *http.Request) {
	err := s.orch.ActivateFromLink(r.Context(), mux.Vars(r)["id"], s.elevated(r))
	switch {
	case errors.Is(err, ErrDraftNotVisible):
		s.writeError(w, r, http.StatusForbidden, i18n.MsgDraftNotVisible)
	case err != nil:
		s.writeError(w, r, http.StatusNotFound, i18n.MsgAssistantNotFound)
	default:
		s.writeJSON(w, http.StatusOK, s.chats.ActiveAssistant())
	}
}

// --- chats ---

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	visible := chat.VisibleChats(s.chats.Chats())
	if r.URL.Query().Get("grouped") == "true" {
		s.writeJSON(w, http.StatusOK, chat.GroupByRecency(visible, s.now()))
		return
	}
	s.writeJSON(w, http.StatusOK, visible)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssistantID string `json:"assistantId"`
	}
	if err := s.decode(r, &body); err != nil || body.AssistantID == "" {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.orch.CreateNewChat(r.Context(), body.AssistantID))
}

func (s *Server) handleSetActiveChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChatID string `json:"chatId"`
	}
	s.decode(r, &body)
	s.orch.SetActiveChat(r.Context(), body.ChatID)

	if active, ok := s.chats.ActiveChat(); ok {
		s.writeJSON(w, http.StatusOK, active)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := s.decode(r, &body); err != nil || body.Title == "" {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}
	s.orch.RenameChat(r.Context(), mux.Vars(r)["id"], body.Title)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArchiveChat(w http.ResponseWriter, r *http.Request) {
	s.orch.ArchiveChat(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	s.orch.DeleteChat(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// --- messages ---

type messageDTO struct {
	models.Message
	HTML string `json:"html,omitempty"`
}

func renderMessage(m models.Message) messageDTO {
	dto := messageDTO{Message: m}
	if m.Role == models.RoleAssistant {
		dto.HTML = markdown.ToChatHTML(m.Content)
	}
	return dto
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs := s.chats.Messages()
	out := make([]messageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, renderMessage(m))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content     string              `json:"content"`
		Attachments []models.Attachment `json:"attachments"`
	}
	if err := s.decode(r, &body); err != nil || strings.TrimSpace(body.Content) == "" {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}

	reply, err := s.orch.Send(r.Context(), body.Content, body.Attachments, s.lang(r))
	switch {
	case errors.Is(err, ErrStaleResponse):
		w.WriteHeader(http.StatusConflict)
	case err != nil:
		s.writeError(w, r, http.StatusNotFound, i18n.MsgAssistantNotFound)
	default:
		s.writeJSON(w, http.StatusOK, renderMessage(reply))
	}
}

func (s *Server) handleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := s.decode(r, &body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}
	s.orch.UpdateMessage(r.Context(), mux.Vars(r)["id"], body.Content)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddFeedback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsPositive bool   `json:"isPositive"`
		Comment    string `json:"comment"`
	}
	if err := s.decode(r, &body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}
	s.orch.AddFeedback(r.Context(), mux.Vars(r)["id"], body.IsPositive, body.Comment)
	w.WriteHeader(http.StatusNoContent)
}

// --- GPTs ---

func (s *Server) handleListGPTs(w http.ResponseWriter, r *http.Request) {
	if s.elevated(r) && r.URL.Query().Get("all") == "true" {
		s.writeJSON(w, http.StatusOK, s.gpts.List())
		return
	}
	s.writeJSON(w, http.StatusOK, s.gpts.ListVisible(s.elevated(r)))
}

func (s *Server) handleAddGPT(w http.ResponseWriter, r *http.Request) {
	var g models.GPT
	if err := s.decode(r, &g); err != nil || g.ID == "" {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}
	// GPT ids share a namespace with built-ins; collisions are rejected
	// here because the merged view does not deduplicate.
	if _, exists := s.catalog.Get(g.ID); exists {
		s.writeError(w, r, http.StatusConflict, i18n.MsgError)
		return
	}
	s.orch.AddGPT(r.Context(), g)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleUpdateGPT(w http.ResponseWriter, r *http.Request) {
	var g models.GPT
	if err := s.decode(r, &g); err != nil {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}
	g.ID = mux.Vars(r)["id"]
	s.orch.UpdateGPT(r.Context(), g)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteGPT(w http.ResponseWriter, r *http.Request) {
	s.orch.DeleteGPT(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDefaultGPT(w http.ResponseWriter, r *http.Request) {
	s.orch.SetDefaultGPT(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportGPTs(w http.ResponseWriter, r *http.Request) {
	s.orch.ImportGPTs(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]int{"gpts": len(s.gpts.List())})
}

// --- state ---

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state := map[string]interface{}{
		"activeAssistant":  s.chats.ActiveAssistant(),
		"isSidebarOpen":    s.chats.SidebarOpen(),
		"isLoading":        s.chats.Loading(),
		"pinnedAssistants": s.chats.PinnedIDs(),
		"voice":            s.voice.Settings(),
	}
	if active, ok := s.chats.ActiveChat(); ok {
		state["activeChat"] = active
	}
	if g, ok := s.gpts.Active(); ok {
		state["activeGPT"] = g
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSetSidebar(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Open bool `json:"open"`
	}
	if err := s.decode(r, &body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}
	s.orch.SetSidebarOpen(r.Context(), body.Open)
	w.WriteHeader(http.StatusNoContent)
}

// --- voice ---

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := s.decode(r, &body); err != nil || strings.TrimSpace(body.Text) == "" {
		s.writeError(w, r, http.StatusBadRequest, i18n.MsgError)
		return
	}
	s.voice.HandleTranscript(body.Text)
	w.WriteHeader(http.StatusAccepted)
}

// --- helpers ---

func (s *Server) decode(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, messageID string) {
	s.writeJSON(w, status, map[string]string{
		"error": s.localizer.Get(s.lang(r), messageID, nil),
	})
}
