package handlers

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

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

type fakeBackend struct {
	fn func(ctx context.Context, prompt string, cfg ai.RequestConfig) ai.Response
}

func (f *fakeBackend) Ask(ctx context.Context, prompt string, cfg ai.RequestConfig) ai.Response {
	if f.fn == nil {
		return ai.Response{Content: "ok"}
	}
	return f.fn(ctx, prompt, cfg)
}

type testEnv struct {
	cfg     *config.Config
	orch    *Orchestrator
	cat     *catalog.Catalog
	gpts    *gpt.Store
	chats   *chat.Store
	voice   *voice.Controller
	backend *fakeBackend
	storage *storage.Manager
	limiter middleware.RateLimiter
	logger  *logrus.Logger
}

func testLocalizer(t *testing.T) (*i18n.Localizer, *config.I18nConfig) {
	t.Helper()

	dir := t.TempDir()
	messages := `{
  "missing_backend_id": "{{.Name}} is offline",
  "rate_limit_exceeded": "slow down",
  "assistant_not_found": "assistant not found",
  "draft_not_visible": "draft not visible",
  "error": "invalid request"
}`
	if err := os.WriteFile(filepath.Join(dir, "en.json"), []byte(messages), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.I18nConfig{
		DefaultLanguage: "en",
		Languages:       []string{"en"},
		Directory:       dir,
	}
	loc, err := i18n.NewLocalizer(cfg)
	if err != nil {
		t.Fatalf("failed to build localizer: %v", err)
	}
	return loc, cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	localizer, i18nCfg := testLocalizer(t)
	cfg := &config.Config{
		Server:  config.ServerConfig{AdminToken: "secret"},
		Storage: config.StorageConfig{Type: "memory"},
		I18n:    *i18nCfg,
	}

	cat := catalog.New([]models.Assistant{
		{ID: "asst-1", Name: "Ada", IsDefault: true, Stats: &models.AssistantStats{}},
		{ID: "asst-2", Name: "Bo", Stats: &models.AssistantStats{}},
	}, logger)

	gpts := gpt.NewStore(logger)
	chats := chat.NewStore(NewResolver(cat, gpts), cat, logger)

	metrics := middleware.NewMetrics()
	manager, err := storage.NewManager(cfg, metrics, logger)
	if err != nil {
		t.Fatalf("failed to build storage: %v", err)
	}

	backend := &fakeBackend{}
	voiceController := voice.NewController(1.0, 1.0, logger)

	orch := NewOrchestrator(cfg, cat, gpts, chats, backend, cache.NewCache(cfg, logger), manager, voiceController, localizer, metrics, logger)

	return &testEnv{
		cfg:     cfg,
		orch:    orch,
		cat:     cat,
		gpts:    gpts,
		chats:   chats,
		voice:   voiceController,
		backend: backend,
		storage: manager,
		limiter: middleware.NewRateLimiter(cfg, logger),
		logger:  logger,
	}
}

func TestBootstrap_SeedsFromCatalog(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.orch.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	if got := len(env.gpts.List()); got != 2 {
		t.Errorf("expected GPT store seeded with 2 entries, got %d", got)
	}
	if got := env.chats.ActiveAssistant().ID; got != "asst-1" {
		t.Errorf("expected default assistant active, got %q", got)
	}

	// Bootstrap persisted both blobs
	snap, err := env.storage.LoadGPTState(context.Background())
	if err != nil || snap == nil || len(snap.GPTs) != 2 {
		t.Errorf("expected persisted gpt state, got %+v / %v", snap, err)
	}
}

func TestBootstrap_RestoresPersistedState(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.orch.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}
	if err := env.orch.SelectAssistant(ctx, "asst-2", true); err != nil {
		t.Fatal(err)
	}
	if _, err := env.orch.Send(ctx, "remember me", nil, "en"); err != nil {
		t.Fatal(err)
	}

	// A new process over the same storage picks up where the first left off
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	localizer, _ := testLocalizer(t)
	cat := catalog.New([]models.Assistant{
		{ID: "asst-1", Name: "Ada", IsDefault: true},
		{ID: "asst-2", Name: "Bo"},
	}, logger)
	gpts := gpt.NewStore(logger)
	chats := chat.NewStore(NewResolver(cat, gpts), cat, logger)
	orch := NewOrchestrator(env.cfg, cat, gpts, chats, env.backend, cache.NewCache(env.cfg, logger), env.storage, voice.NewController(1, 1, logger), localizer, middleware.NewMetrics(), logger)

	if err := orch.Bootstrap(ctx); err != nil {
		t.Fatalf("second Bootstrap failed: %v", err)
	}
	if got := chats.ActiveAssistant().ID; got != "asst-2" {
		t.Errorf("expected restored active assistant asst-2, got %q", got)
	}
	active, ok := chats.ActiveChat()
	if !ok || len(active.Messages) != 2 {
		t.Errorf("expected restored chat with 2 messages, got %+v (ok=%v)", active, ok)
	}
}

func TestSelectAssistant_Unknown(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	if err := env.orch.SelectAssistant(context.Background(), "ghost", true); !errors.Is(err, ErrAssistantNotFound) {
		t.Errorf("expected ErrAssistantNotFound, got %v", err)
	}
}

func TestSend_MissingBackendIDBecomesAssistantMessage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.orch.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}

	// Imported GPTs carry no backend id, so the send is rejected in-band
	reply, err := env.orch.Send(ctx, "hello", nil, "en")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Role != models.RoleAssistant {
		t.Errorf("rejection must be an assistant message, got role %s", reply.Role)
	}
	if reply.Content != "Ada is offline" {
		t.Errorf("expected localized rejection, got %q", reply.Content)
	}

	active, _ := env.chats.ActiveChat()
	if len(active.Messages) != 2 {
		t.Errorf("expected user message plus rejection, got %d messages", len(active.Messages))
	}
}

func TestSend_AppendsBackendReply(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.orch.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}

	g, _ := env.gpts.Get("asst-1")
	g.BackendID = "asst_backend"
	env.gpts.Update(g)

	env.backend.fn = func(ctx context.Context, prompt string, cfg ai.RequestConfig) ai.Response {
		if cfg.BackendID != "asst_backend" {
			t.Errorf("expected backend id routed through, got %q", cfg.BackendID)
		}
		return ai.Response{Content: "the answer is 42"}
	}

	reply, err := env.orch.Send(ctx, "what is the answer?", nil, "en")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Content != "the answer is 42" || reply.Role != models.RoleAssistant {
		t.Errorf("unexpected reply: %+v", reply)
	}
	if env.chats.Loading() {
		t.Error("loading flag must be cleared after the reply")
	}
}

func TestSend_BackendErrorStillAppended(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.orch.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}

	g, _ := env.gpts.Get("asst-1")
	g.BackendID = "asst_backend"
	env.gpts.Update(g)

	env.backend.fn = func(ctx context.Context, prompt string, cfg ai.RequestConfig) ai.Response {
		return ai.Response{Content: "Error processing your message: boom", Error: "boom"}
	}

	reply, err := env.orch.Send(ctx, "hello", nil, "en")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reply.Content != "Error processing your message: boom" {
		t.Errorf("backend errors must surface as the assistant's message, got %q", reply.Content)
	}
}

func TestSend_StaleReplyDropped(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.orch.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}

	g, _ := env.gpts.Get("asst-1")
	g.BackendID = "asst_backend"
	env.gpts.Update(g)

	// The user switches away while the request is in flight
	env.backend.fn = func(ctx context.Context, prompt string, cfg ai.RequestConfig) ai.Response {
		env.orch.invalidateInflight()
		return ai.Response{Content: "too late"}
	}

	if _, err := env.orch.Send(ctx, "hello", nil, "en"); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("expected ErrStaleResponse, got %v", err)
	}

	active, _ := env.chats.ActiveChat()
	if len(active.Messages) != 1 {
		t.Errorf("stale reply must not be appended, got %d messages", len(active.Messages))
	}
	for _, m := range active.Messages {
		if m.Content == "too late" {
			t.Error("stale content leaked into the transcript")
		}
	}
}

func TestActivateFromLink_DraftVisibility(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.orch.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}

	env.gpts.Add(models.GPT{ID: "draft-gpt", Name: "WIP", Visibility: models.VisibilityDraft})

	if err := env.orch.ActivateFromLink(ctx, "draft-gpt", false); !errors.Is(err, ErrDraftNotVisible) {
		t.Errorf("expected ErrDraftNotVisible for regular caller, got %v", err)
	}
	if err := env.orch.ActivateFromLink(ctx, "draft-gpt", true); err != nil {
		t.Errorf("elevated caller should activate a draft, got %v", err)
	}
	if got := env.chats.ActiveAssistant().ID; got != "draft-gpt" {
		t.Errorf("expected draft-gpt active for elevated caller, got %q", got)
	}
}

func TestRateAssistant_FoldsIntoCatalog(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	env.orch.RateAssistant(ctx, "asst-1", 5)
	env.orch.RateAssistant(ctx, "asst-1", 4)

	a, _ := env.cat.Get("asst-1")
	if a.Stats.Users != 2 || a.Stats.Rating != 4.5 {
		t.Errorf("expected 2 users with mean 4.5, got %+v", a.Stats)
	}
}

func TestSetAssistantVoice_RetargetsActive(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.orch.Bootstrap(ctx); err != nil {
		t.Fatal(err)
	}

	if err := env.orch.SetAssistantVoice(ctx, "asst-1", models.VoiceOnyx); err != nil {
		t.Fatalf("SetAssistantVoice failed: %v", err)
	}
	if got := env.voice.Settings().Voice; got != models.VoiceOnyx {
		t.Errorf("expected voice collaborator retargeted to onyx, got %s", got)
	}

	// Setting a voice on an inactive assistant leaves the collaborator alone
	if err := env.orch.SetAssistantVoice(ctx, "asst-2", models.VoiceNova); err != nil {
		t.Fatalf("SetAssistantVoice failed: %v", err)
	}
	if got := env.voice.Settings().Voice; got != models.VoiceOnyx {
		t.Errorf("inactive assistant must not retarget the collaborator, got %s", got)
	}
}

func TestResolver_CatalogBeforeGPTs(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.gpts.Add(models.GPT{ID: "custom-1", Name: "Custom"})

	resolver := NewResolver(env.cat, env.gpts)

	if a, ok := resolver.ResolveAssistant("asst-1"); !ok || a.Name != "Ada" {
		t.Errorf("expected catalog hit, got %+v (ok=%v)", a, ok)
	}
	if a, ok := resolver.ResolveAssistant("custom-1"); !ok || a.Name != "Custom" {
		t.Errorf("expected GPT fallback, got %+v (ok=%v)", a, ok)
	}
	if _, ok := resolver.ResolveAssistant("ghost"); ok {
		t.Error("unknown id must not resolve")
	}
}
