package chat

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexa-digital/nexus-chat-go/internal/models"
)

type stubResolver map[string]models.Assistant

func (r stubResolver) ResolveAssistant(id string) (models.Assistant, bool) {
	a, ok := r[id]
	return a, ok
}

type stubRater struct {
	lastID     string
	lastRating int
	err        error
}

func (r *stubRater) RecordRating(id string, rating int) (models.Assistant, error) {
	r.lastID = id
	r.lastRating = rating
	return models.Assistant{ID: id}, r.err
}

func testStore(resolver stubResolver) (*Store, *stubRater) {
	l := logrus.New()
	l.SetOutput(io.Discard)

	rater := &stubRater{}
	s := NewStore(resolver, rater, l)
	return s, rater
}

func defaultResolver() stubResolver {
	return stubResolver{
		"asst-1": {ID: "asst-1", Name: "Ada"},
		"asst-2": {ID: "asst-2", Name: "Bo"},
	}
}

func TestSetActiveAssistant(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())

	if !s.SetActiveAssistant("asst-1", true) {
		t.Fatal("expected activation to succeed")
	}
	if got := s.ActiveAssistant().ID; got != "asst-1" {
		t.Errorf("expected active asst-1, got %s", got)
	}

	active, ok := s.ActiveChat()
	if !ok {
		t.Fatal("expected a new active chat")
	}
	if active.Title != "Ada" {
		t.Errorf("new chat should be titled after the assistant, got %q", active.Title)
	}
	if len(s.Messages()) != 0 {
		t.Error("new chat must start with an empty message buffer")
	}
}

func TestSetActiveAssistant_UnknownLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)

	if s.SetActiveAssistant("ghost", true) {
		t.Fatal("unknown assistant must not activate")
	}
	if got := s.ActiveAssistant().ID; got != "asst-1" {
		t.Errorf("active assistant must be unchanged, got %s", got)
	}
	if len(s.Chats()) != 1 {
		t.Errorf("no chat should be created for a failed activation, got %d", len(s.Chats()))
	}
}

func TestSetActiveAssistant_WithoutNewChatKeepsChat(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)
	before, _ := s.ActiveChat()

	s.SetActiveAssistant("asst-2", false)

	after, ok := s.ActiveChat()
	if !ok || after.ID != before.ID {
		t.Error("activation without a new chat must keep the active chat")
	}
	if got := s.ActiveAssistant().ID; got != "asst-2" {
		t.Errorf("expected active asst-2, got %s", got)
	}
}

func TestAddMessage(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)

	before, _ := s.ActiveChat()
	msg := s.AddMessage("hello", models.RoleUser, "asst-1", nil)

	if msg.ID == "" {
		t.Error("message must get an id")
	}
	if msg.Role != models.RoleUser || msg.Content != "hello" {
		t.Errorf("unexpected message: %+v", msg)
	}

	after, _ := s.ActiveChat()
	if len(after.Messages) != 1 {
		t.Fatalf("expected 1 message in chat, got %d", len(after.Messages))
	}
	if !after.HasInteraction {
		t.Error("AddMessage must mark the interaction")
	}
	if after.LastUpdated.Before(before.LastUpdated) {
		t.Error("AddMessage must advance LastUpdated")
	}
	if len(s.Messages()) != 1 {
		t.Errorf("visible buffer should mirror the chat, got %d messages", len(s.Messages()))
	}
}

func TestAddMessage_ConversationTurn(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)

	s.AddMessage("hi", models.RoleUser, "asst-1", nil)
	afterUser, _ := s.ActiveChat()
	s.AddMessage("hello", models.RoleAssistant, "asst-1", nil)
	afterAssistant, _ := s.ActiveChat()

	if len(afterAssistant.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(afterAssistant.Messages))
	}
	if !afterAssistant.HasInteraction {
		t.Error("expected interaction marked")
	}
	if afterAssistant.LastUpdated.Before(afterUser.LastUpdated) {
		t.Error("LastUpdated must advance on every append")
	}
	if got := len(s.Chats()); got != 1 {
		t.Errorf("both appends target the one active chat, got %d chats", got)
	}
}

func TestAddMessage_WithoutActiveChatCreatesOne(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())

	s.AddMessage("hello", models.RoleUser, "asst-1", nil)

	active, ok := s.ActiveChat()
	if !ok {
		t.Fatal("expected a chat to be created for the message")
	}
	if active.AssistantID != "asst-1" || !active.HasInteraction {
		t.Errorf("unexpected created chat: %+v", active)
	}
	if len(active.Messages) != 1 {
		t.Errorf("expected the message inside the new chat, got %d", len(active.Messages))
	}
}

func TestUpdateMessage_SearchesAllChats(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)
	msg := s.AddMessage("original", models.RoleUser, "asst-1", nil)

	// Switch to a different chat so the edit targets a non-active chat
	s.CreateNewChat("asst-2")

	s.UpdateMessage(msg.ID, "edited")

	for _, c := range s.Chats() {
		for _, m := range c.Messages {
			if m.ID == msg.ID && m.Content != "edited" {
				t.Errorf("expected edited content, got %q", m.Content)
			}
		}
	}
}

func TestAddFeedback(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)
	msg := s.AddMessage("answer", models.RoleAssistant, "asst-1", nil)

	s.AddFeedback(msg.ID, false, "not helpful")

	buffer := s.Messages()
	if buffer[0].Feedback == nil {
		t.Fatal("expected feedback set on buffered message")
	}
	if buffer[0].Feedback.IsPositive || buffer[0].Feedback.Comment != "not helpful" {
		t.Errorf("unexpected feedback: %+v", buffer[0].Feedback)
	}

	// Overwrite replaces the feedback as a whole
	s.AddFeedback(msg.ID, true, "")
	if fb := s.Messages()[0].Feedback; !fb.IsPositive || fb.Comment != "" {
		t.Errorf("expected overwritten feedback, got %+v", fb)
	}
}

func TestSetActiveChat(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)
	s.AddMessage("first chat", models.RoleUser, "asst-1", nil)
	first, _ := s.ActiveChat()

	s.SetActiveAssistant("asst-2", true)

	s.SetActiveChat(first.ID)

	active, ok := s.ActiveChat()
	if !ok || active.ID != first.ID {
		t.Fatal("expected first chat re-activated")
	}
	if len(s.Messages()) != 1 {
		t.Errorf("buffer should be rebuilt from the chat, got %d messages", len(s.Messages()))
	}
	if got := s.ActiveAssistant().ID; got != "asst-1" {
		t.Errorf("expected assistant resolved from the chat, got %s", got)
	}
}

func TestSetActiveChat_EmptyClearsPointer(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)
	s.AddMessage("hello", models.RoleUser, "asst-1", nil)

	s.SetActiveChat("")

	if _, ok := s.ActiveChat(); ok {
		t.Error("empty id must clear the active chat")
	}
	if len(s.Messages()) != 0 {
		t.Error("empty id must clear the message buffer")
	}
}

func TestSetActiveChat_UnknownIsNoOp(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)
	before, _ := s.ActiveChat()

	s.SetActiveChat("ghost")

	after, ok := s.ActiveChat()
	if !ok || after.ID != before.ID {
		t.Error("unknown chat id must leave the active chat unchanged")
	}
}

func TestSetActiveChat_UnresolvableAssistantKeepsCurrent(t *testing.T) {
	t.Parallel()

	resolver := defaultResolver()
	s, _ := testStore(resolver)
	s.SetActiveAssistant("asst-2", true)
	orphan, _ := s.ActiveChat()
	s.SetActiveAssistant("asst-1", true)

	// The orphan chat's assistant disappears from the resolver
	delete(resolver, "asst-2")

	s.SetActiveChat(orphan.ID)

	active, ok := s.ActiveChat()
	if !ok || active.ID != orphan.ID {
		t.Fatal("chat switch must succeed even when the assistant is gone")
	}
	if got := s.ActiveAssistant().ID; got != "asst-1" {
		t.Errorf("expected current assistant kept, got %s", got)
	}
}

func TestArchiveChat_ActiveClearsPointer(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)
	active, _ := s.ActiveChat()
	s.AddMessage("hello", models.RoleUser, "asst-1", nil)

	s.ArchiveChat(active.ID)

	if _, ok := s.ActiveChat(); ok {
		t.Error("archiving the active chat must clear the pointer")
	}
	if len(s.Messages()) != 0 {
		t.Error("archiving the active chat must clear the buffer")
	}

	// The chat survives, hidden from listings
	if len(s.Chats()) != 1 {
		t.Fatalf("archived chat must not be deleted, got %d chats", len(s.Chats()))
	}
	if !s.Chats()[0].Archived {
		t.Error("chat should be flagged archived")
	}
	if len(VisibleChats(s.Chats())) != 0 {
		t.Error("archived chats must not appear in listings")
	}
}

func TestDeleteChat(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)
	active, _ := s.ActiveChat()
	s.AddMessage("hello", models.RoleUser, "asst-1", nil)

	s.DeleteChat(active.ID)

	if len(s.Chats()) != 0 {
		t.Errorf("expected chat removed, got %d", len(s.Chats()))
	}
	if _, ok := s.ActiveChat(); ok {
		t.Error("deleting the active chat must clear the pointer")
	}
	if len(s.Messages()) != 0 {
		t.Error("deleting the active chat must clear the buffer")
	}
}

func TestRenameChat(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)
	active, _ := s.ActiveChat()

	s.RenameChat(active.ID, "Project kickoff")

	renamed, _ := s.ActiveChat()
	if renamed.Title != "Project kickoff" {
		t.Errorf("expected renamed title, got %q", renamed.Title)
	}
}

func TestTogglePinnedAssistant_Involution(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())

	s.TogglePinnedAssistant("asst-1")
	s.TogglePinnedAssistant("asst-2")
	if got := s.PinnedIDs(); len(got) != 2 || got[0] != "asst-1" || got[1] != "asst-2" {
		t.Errorf("expected insertion order [asst-1 asst-2], got %v", got)
	}

	s.TogglePinnedAssistant("asst-1")
	if got := s.PinnedIDs(); len(got) != 1 || got[0] != "asst-2" {
		t.Errorf("expected [asst-2] after unpin, got %v", got)
	}
}

func TestUpdateAssistantStats_Delegates(t *testing.T) {
	t.Parallel()

	s, rater := testStore(defaultResolver())

	s.UpdateAssistantStats("asst-1", 4)
	if rater.lastID != "asst-1" || rater.lastRating != 4 {
		t.Errorf("expected delegation to the rater, got %s/%d", rater.lastID, rater.lastRating)
	}

	// Recorder errors are swallowed; custom GPTs carry no distribution
	rater.err = errors.New("not in catalog")
	s.UpdateAssistantStats("custom-gpt", 5)
}

func TestSidebarAndLoadingFlags(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())

	if !s.SidebarOpen() {
		t.Error("sidebar starts open")
	}
	if got := s.ToggleSidebar(); got || s.SidebarOpen() {
		t.Error("toggle should close the sidebar")
	}
	s.SetSidebarOpen(true)
	if !s.SidebarOpen() {
		t.Error("SetSidebarOpen(true) should open the sidebar")
	}

	s.SetLoading(true)
	if !s.Loading() {
		t.Error("expected loading flag set")
	}
}

func TestSnapshotRestore(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.SetActiveAssistant("asst-1", true)
	s.AddMessage("hello", models.RoleUser, "asst-1", nil)
	s.TogglePinnedAssistant("asst-2")
	s.SetSidebarOpen(false)
	active, _ := s.ActiveChat()

	snap := s.Snapshot()

	restored, _ := testStore(defaultResolver())
	restored.Restore(snap)

	got, ok := restored.ActiveChat()
	if !ok || got.ID != active.ID {
		t.Fatal("expected active chat restored")
	}
	if len(restored.Messages()) != 1 {
		t.Errorf("buffer should be rebuilt on restore, got %d messages", len(restored.Messages()))
	}
	if restored.ActiveAssistant().ID != "asst-1" {
		t.Errorf("expected assistant re-resolved, got %s", restored.ActiveAssistant().ID)
	}
	if restored.SidebarOpen() {
		t.Error("sidebar flag should be restored")
	}
	if got := restored.PinnedIDs(); len(got) != 1 || got[0] != "asst-2" {
		t.Errorf("expected pinned set restored, got %v", got)
	}
}

func TestRestore_DropsDanglingActiveChat(t *testing.T) {
	t.Parallel()

	s, _ := testStore(defaultResolver())
	s.Restore(&Snapshot{
		Chats:      []models.Chat{{ID: "kept", AssistantID: "asst-1", LastUpdated: time.Now()}},
		ActiveChat: "gone",
	})

	if _, ok := s.ActiveChat(); ok {
		t.Error("active chat referencing a missing chat must be dropped on restore")
	}
	if len(s.Chats()) != 1 {
		t.Errorf("expected 1 chat restored, got %d", len(s.Chats()))
	}
}
