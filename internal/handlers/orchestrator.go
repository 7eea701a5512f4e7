package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexa-digital/nexus-chat-go/internal/config"
	"github.com/nexa-digital/nexus-chat-go/internal/i18n"
	"github.com/nexa-digital/nexus-chat-go/internal/middleware"
	"github.com/nexa-digital/nexus-chat-go/internal/models"
	"github.com/nexa-digital/nexus-chat-go/internal/services/ai"
	"github.com/nexa-digital/nexus-chat-go/internal/services/cache"
	"github.com/nexa-digital/nexus-chat-go/internal/services/catalog"
	"github.com/nexa-digital/nexus-chat-go/internal/services/chat"
	"github.com/nexa-digital/nexus-chat-go/internal/services/gpt"
	"github.com/nexa-digital/nexus-chat-go/internal/services/storage"
	"github.com/nexa-digital/nexus-chat-go/internal/services/voice"
)

var (
	// ErrAssistantNotFound is returned when an id resolves against neither
	// the catalog nor the GPT store.
	ErrAssistantNotFound = errors.New("assistant not found")
	// ErrDraftNotVisible is returned when a link targets a draft GPT and
	// the caller is not elevated.
	ErrDraftNotVisible = errors.New("assistant is not published")
	// ErrStaleResponse is returned when a backend reply arrives after the
	// user switched away and is discarded.
	ErrStaleResponse = errors.New("stale backend response discarded")
)

// assistantResolver resolves ids against the catalog first and the GPT store
// second. It is the only piece that sees both stores, so neither store
// depends on the other.
type assistantResolver struct {
	catalog *catalog.Catalog
	gpts    *gpt.Store
}

// NewResolver builds the catalog-then-GPT resolver the chat store is
// constructed with.
func NewResolver(cat *catalog.Catalog, gpts *gpt.Store) chat.AssistantResolver {
	return &assistantResolver{catalog: cat, gpts: gpts}
}

func (r *assistantResolver) ResolveAssistant(id string) (models.Assistant, bool) {
	if a, ok := r.catalog.Get(id); ok {
		return a, true
	}
	if g, ok := r.gpts.Get(id); ok {
		return g.AsAssistant(), true
	}
	return models.Assistant{}, false
}

// Orchestrator coordinates the stores, the backend call and persistence. It
// owns the cross-store synchronization the stores themselves must not do:
// activating an assistant updates both active pointers, and every mutation
// is followed by a state snapshot.
type Orchestrator struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	gpts      *gpt.Store
	chats     *chat.Store
	backend   ai.Service
	cache     cache.Service
	storage   *storage.Manager
	voice     *voice.Controller
	localizer *i18n.Localizer
	metrics   *middleware.Metrics
	logger    *logrus.Logger

	// inflight is the token of the one outstanding backend request; a
	// reply whose token no longer matches is stale and dropped.
	mu       sync.Mutex
	inflight uint64
	tokens   uint64
}

// NewOrchestrator wires the session orchestrator.
func NewOrchestrator(
	cfg *config.Config,
	cat *catalog.Catalog,
	gpts *gpt.Store,
	chats *chat.Store,
	backend ai.Service,
	cacheService cache.Service,
	storageManager *storage.Manager,
	voiceController *voice.Controller,
	localizer *i18n.Localizer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		catalog:   cat,
		gpts:      gpts,
		chats:     chats,
		backend:   backend,
		cache:     cacheService,
		storage:   storageManager,
		voice:     voiceController,
		localizer: localizer,
		metrics:   metrics,
		logger:    logger,
	}

	voiceController.SetHandler(func(text string) {
		if _, err := o.Send(context.Background(), text, nil, cfg.I18n.DefaultLanguage); err != nil {
			logger.WithError(err).Warn("Transcript message not delivered")
		}
	})

	return o
}

// Bootstrap rehydrates both stores from persisted state and establishes the
// initial active assistant.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	gptSnap, err := o.storage.LoadGPTState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load gpt state: %w", err)
	}
	o.gpts.Restore(gptSnap)
	o.gpts.ImportFromCatalog(o.catalog.ListAll())

	chatSnap, err := o.storage.LoadChatState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chat state: %w", err)
	}
	o.chats.Restore(chatSnap)

	if o.chats.ActiveAssistant().ID == "" {
		if a, ok := o.catalog.DefaultAssistant(); ok {
			o.chats.SetActiveAssistant(a.ID, false)
			o.gpts.SetActive(a.ID)
		}
	}
	o.voice.ApplyAssistant(o.chats.ActiveAssistant())

	o.persistGPTs(ctx)
	o.persistChats(ctx)

	o.logger.WithFields(logrus.Fields{
		"chats":            len(o.chats.Chats()),
		"gpts":             len(o.gpts.List()),
		"active_assistant": o.chats.ActiveAssistant().ID,
	}).Info("State rehydrated")
	return nil
}

// SelectAssistant handles the "assistant selected" event: it updates the
// chat store, mirrors the active pointer into the GPT store, retargets the
// voice collaborator and invalidates any in-flight backend request.
func (o *Orchestrator) SelectAssistant(ctx context.Context, id string, createNewChat bool) error {
	if !o.chats.SetActiveAssistant(id, createNewChat) {
		return fmt.Errorf("%w: %s", ErrAssistantNotFound, id)
	}
	o.gpts.SetActive(id)
	o.voice.ApplyAssistant(o.chats.ActiveAssistant())
	o.invalidateInflight()

	o.persistChats(ctx)
	o.persistGPTs(ctx)
	return nil
}

// ActivateFromLink honors an externally supplied assistant id (deep link)
// only when the target resolves and is not a draft, unless the caller is
// elevated.
func (o *Orchestrator) ActivateFromLink(ctx context.Context, id string, elevated bool) error {
	if g, ok := o.gpts.Get(id); ok && g.Visibility == models.VisibilityDraft && !elevated {
		return fmt.Errorf("%w: %s", ErrDraftNotVisible, id)
	}
	return o.SelectAssistant(ctx, id, true)
}

// Send appends the user's message, calls the backend and appends the reply.
// A GPT without a backend id never reaches the backend: the rejection is
// rendered as an ordinary assistant message. Replies that arrive after the
// user switched away are discarded.
func (o *Orchestrator) Send(ctx context.Context, content string, attachments []models.Attachment, lang string) (models.Message, error) {
	assistant := o.chats.ActiveAssistant()
	if assistant.ID == "" {
		return models.Message{}, ErrAssistantNotFound
	}

	o.chats.AddMessage(content, models.RoleUser, assistant.ID, attachments)
	o.metrics.RecordMessageAppended(string(models.RoleUser))
	o.persistChats(ctx)

	gptCfg, haveGPT := o.gpts.Get(assistant.ID)
	if !haveGPT || gptCfg.BackendID == "" {
		reply := o.localizer.Get(lang, i18n.MsgMissingBackendID, map[string]interface{}{"Name": assistant.Name})
		msg := o.appendAssistantReply(ctx, assistant.ID, reply)
		return msg, nil
	}

	token := o.beginRequest()
	o.chats.SetLoading(true)

	if answer, hit := o.cache.Get(ctx, content, gptCfg.BackendID); hit {
		o.metrics.RecordCacheHit()
		o.finishRequest(token)
		o.chats.SetLoading(false)
		msg := o.appendAssistantReply(ctx, assistant.ID, answer)
		return msg, nil
	}
	o.metrics.RecordCacheMiss()

	start := time.Now()
	resp := o.backend.Ask(ctx, content, ai.RequestConfig{
		BackendID: gptCfg.BackendID,
		Model:     gptCfg.Model,
	})

	status := "success"
	if resp.Error != "" {
		status = "error"
	}
	o.metrics.RecordBackendRequest(gptCfg.Model, status, time.Since(start))

	if !o.finishRequest(token) {
		o.chats.SetLoading(false)
		o.metrics.RecordStaleResponseDropped()
		o.logger.WithField("assistant_id", assistant.ID).Info("Dropped stale backend response")
		return models.Message{}, ErrStaleResponse
	}
	o.chats.SetLoading(false)

	// Backend errors still surface as the assistant's message.
	msg := o.appendAssistantReply(ctx, assistant.ID, resp.Content)
	if resp.Error == "" {
		if err := o.cache.Set(ctx, content, gptCfg.BackendID, resp.Content); err != nil {
			o.logger.WithError(err).Debug("Response not cached")
		}
	}
	return msg, nil
}

func (o *Orchestrator) appendAssistantReply(ctx context.Context, assistantID, content string) models.Message {
	msg := o.chats.AddMessage(content, models.RoleAssistant, assistantID, nil)
	o.metrics.RecordMessageAppended(string(models.RoleAssistant))
	o.persistChats(ctx)
	return msg
}

// SetActiveChat switches chats and invalidates any in-flight request so a
// late reply cannot land on the newly opened chat.
func (o *Orchestrator) SetActiveChat(ctx context.Context, id string) {
	o.chats.SetActiveChat(id)
	o.voice.ApplyAssistant(o.chats.ActiveAssistant())
	o.invalidateInflight()
	o.persistChats(ctx)
}

// CreateNewChat starts an empty chat for the assistant.
func (o *Orchestrator) CreateNewChat(ctx context.Context, assistantID string) models.Chat {
	c := o.chats.CreateNewChat(assistantID)
	o.invalidateInflight()
	o.persistChats(ctx)
	return c
}

// RenameChat sets a chat title.
func (o *Orchestrator) RenameChat(ctx context.Context, id, title string) {
	o.chats.RenameChat(id, title)
	o.persistChats(ctx)
}

// ArchiveChat hides a chat from listings.
func (o *Orchestrator) ArchiveChat(ctx context.Context, id string) {
	o.chats.ArchiveChat(id)
	o.persistChats(ctx)
}

// DeleteChat removes a chat outright.
func (o *Orchestrator) DeleteChat(ctx context.Context, id string) {
	o.chats.DeleteChat(id)
	o.persistChats(ctx)
}

// UpdateMessage edits a message in place.
func (o *Orchestrator) UpdateMessage(ctx context.Context, messageID, content string) {
	o.chats.UpdateMessage(messageID, content)
	o.persistChats(ctx)
}

// AddFeedback sets feedback on a message.
func (o *Orchestrator) AddFeedback(ctx context.Context, messageID string, isPositive bool, comment string) {
	o.chats.AddFeedback(messageID, isPositive, comment)
	o.persistChats(ctx)
}

// TogglePinnedAssistant toggles the pinned set.
func (o *Orchestrator) TogglePinnedAssistant(ctx context.Context, id string) {
	o.chats.TogglePinnedAssistant(id)
	o.persistChats(ctx)
}

// SetSidebarOpen persists the sidebar flag.
func (o *Orchestrator) SetSidebarOpen(ctx context.Context, open bool) {
	o.chats.SetSidebarOpen(open)
	o.persistChats(ctx)
}

// RateAssistant folds a rating into the built-in catalog via the chat store.
func (o *Orchestrator) RateAssistant(ctx context.Context, id string, rating int) {
	o.chats.UpdateAssistantStats(id, rating)
	o.metrics.RecordRating(id)
}

// SetAssistantVoice assigns a voice to a built-in assistant and retargets
// the collaborator when that assistant is active.
func (o *Orchestrator) SetAssistantVoice(ctx context.Context, id string, v models.Voice) error {
	if err := o.catalog.SetVoice(id, v); err != nil {
		return err
	}
	if o.chats.ActiveAssistant().ID == id {
		if a, ok := o.catalog.Get(id); ok {
			o.voice.ApplyAssistant(a)
		}
	}
	return nil
}

// AddGPT stores a new configuration.
func (o *Orchestrator) AddGPT(ctx context.Context, g models.GPT) {
	o.gpts.Add(g)
	o.persistGPTs(ctx)
}

// UpdateGPT upserts a configuration.
func (o *Orchestrator) UpdateGPT(ctx context.Context, g models.GPT) {
	o.gpts.Update(g)
	o.persistGPTs(ctx)
}

// DeleteGPT removes a configuration.
func (o *Orchestrator) DeleteGPT(ctx context.Context, id string) {
	o.gpts.Delete(id)
	o.persistGPTs(ctx)
}

// SetDefaultGPT makes the given configuration the single default.
func (o *Orchestrator) SetDefaultGPT(ctx context.Context, id string) {
	o.gpts.SetDefault(id)
	o.persistGPTs(ctx)
}

// ImportGPTs seeds the GPT store from the catalog when empty.
func (o *Orchestrator) ImportGPTs(ctx context.Context) {
	o.gpts.ImportFromCatalog(o.catalog.ListAll())
	o.persistGPTs(ctx)
}

func (o *Orchestrator) beginRequest() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tokens++
	o.inflight = o.tokens
	return o.inflight
}

// finishRequest reports whether the token still owns the in-flight slot and
// releases it when it does.
func (o *Orchestrator) finishRequest(token uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight != token {
		return false
	}
	o.inflight = 0
	return true
}

func (o *Orchestrator) invalidateInflight() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inflight = 0
}

func (o *Orchestrator) persistChats(ctx context.Context) {
	snap := o.chats.Snapshot()
	if err := o.storage.SaveChatState(ctx, snap); err == nil {
		o.metrics.SetActiveChats(float64(len(chat.VisibleChats(snap.Chats))))
	}
}

func (o *Orchestrator) persistGPTs(ctx context.Context) {
	o.storage.SaveGPTState(ctx, o.gpts.Snapshot())
}
