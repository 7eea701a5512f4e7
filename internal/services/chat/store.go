package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/nexa-digital/nexus-chat-go/internal/models"
)

// AssistantResolver resolves an assistant id to its display assistant. The
// orchestrating layer wires a resolver that consults the built-in catalog
// first and the GPT store second, so this store depends on neither.
type AssistantResolver interface {
	ResolveAssistant(id string) (models.Assistant, bool)
}

// RatingRecorder is the catalog's rating entry point, injected so stats
// updates delegate without a package dependency.
type RatingRecorder interface {
	RecordRating(id string, rating int) (models.Assistant, error)
}

// Store owns chat sessions, their messages, and the active-chat and
// active-assistant pointers. Mutations are synchronous and run to completion
// under one lock hold, so the active-pointer invariants never expose
// intermediate state.
type Store struct {
	mu              sync.Mutex
	chats           []models.Chat // front = newest
	activeChatID    string
	activeAssistant models.Assistant
	messages        []models.Message // visible buffer, mirrors the active chat
	sidebarOpen     bool
	loading         bool
	pinned          []string

	resolver AssistantResolver
	rater    RatingRecorder
	logger   *logrus.Logger
	now      func() time.Time
}

// NewStore creates an empty chat store.
func NewStore(resolver AssistantResolver, rater RatingRecorder, logger *logrus.Logger) *Store {
	return &Store{
		resolver:    resolver,
		rater:       rater,
		logger:      logger,
		now:         time.Now,
		sidebarOpen: true,
	}
}

func newChatID() string    { return ulid.Make().String() }
func newMessageID() string { return uuid.NewString() }

// SetActiveAssistant resolves the id and updates the active-assistant
// pointer. With createNewChat a fresh empty chat for that assistant is
// prepended, made active, and the visible message buffer cleared. An
// unresolvable id leaves the state unchanged and returns false.
func (s *Store) SetActiveAssistant(id string, createNewChat bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	assistant, ok := s.resolver.ResolveAssistant(id)
	if !ok {
		s.logger.WithField("assistant_id", id).Warn("Cannot activate unknown assistant")
		return false
	}

	s.activeAssistant = assistant
	if createNewChat {
		chat := s.newChatLocked(id)
		s.chats = append([]models.Chat{chat}, s.chats...)
		s.activeChatID = chat.ID
		s.messages = nil
	}
	return true
}

// CreateNewChat starts a fresh empty chat for the assistant, makes it active
// and clears the visible message buffer.
func (s *Store) CreateNewChat(assistantID string) models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.newChatLocked(assistantID)
	s.chats = append([]models.Chat{chat}, s.chats...)
	s.activeChatID = chat.ID
	s.messages = nil
	return cloneChat(chat)
}

func (s *Store) newChatLocked(assistantID string) models.Chat {
	title := "New Chat"
	if a, ok := s.resolver.ResolveAssistant(assistantID); ok {
		title = a.Name
	}
	now := s.now()
	return models.Chat{
		ID:          newChatID(),
		Title:       title,
		AssistantID: assistantID,
		Messages:    []models.Message{},
		LastUpdated: now,
		CreatedAt:   now,
	}
}

// AddMessage appends a message to the active chat, stamping LastUpdated and
// marking the interaction. With no active chat a new chat for assistantID is
// created to hold the message. This is the only path that flips
// HasInteraction to true.
func (s *Store) AddMessage(content string, role models.Role, assistantID string, attachments []models.Attachment) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := models.Message{
		ID:          newMessageID(),
		Content:     content,
		Role:        role,
		Timestamp:   s.now(),
		AssistantID: assistantID,
		Attachments: attachments,
	}

	idx := s.chatIndexLocked(s.activeChatID)
	if idx < 0 {
		chat := s.newChatLocked(assistantID)
		chat.Messages = []models.Message{msg}
		chat.HasInteraction = true
		s.chats = append([]models.Chat{chat}, s.chats...)
		s.activeChatID = chat.ID
		idx = 0
	} else {
		s.chats[idx].Messages = append(s.chats[idx].Messages, msg)
		s.chats[idx].LastUpdated = s.now()
		s.chats[idx].HasInteraction = true
	}

	s.messages = append([]models.Message(nil), s.chats[idx].Messages...)
	return msg
}

// UpdateMessage replaces a message's content in place, searching every chat,
// not only the active one. Unknown ids are a no-op.
func (s *Store) UpdateMessage(messageID, newContent string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ci := range s.chats {
		for mi := range s.chats[ci].Messages {
			if s.chats[ci].Messages[mi].ID == messageID {
				s.chats[ci].Messages[mi].Content = newContent
			}
		}
	}
	for mi := range s.messages {
		if s.messages[mi].ID == messageID {
			s.messages[mi].Content = newContent
		}
	}
}

// AddFeedback sets or overwrites the feedback on a message, with the same
// cross-chat lookup as UpdateMessage.
func (s *Store) AddFeedback(messageID string, isPositive bool, comment string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb := &models.Feedback{IsPositive: isPositive, Comment: comment}
	for ci := range s.chats {
		for mi := range s.chats[ci].Messages {
			if s.chats[ci].Messages[mi].ID == messageID {
				s.chats[ci].Messages[mi].Feedback = fb
			}
		}
	}
	for mi := range s.messages {
		if s.messages[mi].ID == messageID {
			s.messages[mi].Feedback = fb
		}
	}
}

// SetActiveChat switches the active chat. An empty id clears the pointer and
// the message buffer; an unknown id is a no-op. On a match the chat's
// assistant is resolved, falling back to the currently active assistant when
// resolution fails.
func (s *Store) SetActiveChat(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		s.activeChatID = ""
		s.messages = nil
		return
	}

	idx := s.chatIndexLocked(id)
	if idx < 0 {
		return
	}

	s.activeChatID = id
	s.messages = append([]models.Message(nil), s.chats[idx].Messages...)

	if assistant, ok := s.resolver.ResolveAssistant(s.chats[idx].AssistantID); ok {
		s.activeAssistant = assistant
	} else {
		s.logger.WithField("assistant_id", s.chats[idx].AssistantID).
			Warn("Chat references unknown assistant, keeping current")
	}
}

// RenameChat sets a chat's title. Unknown ids are a no-op.
func (s *Store) RenameChat(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.chatIndexLocked(id); idx >= 0 {
		s.chats[idx].Title = title
	}
}

// ArchiveChat hides a chat from listings without deleting it. Archiving the
// active chat clears the active pointer and the message buffer.
func (s *Store) ArchiveChat(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.chatIndexLocked(id)
	if idx < 0 {
		return
	}
	s.chats[idx].Archived = true
	if s.activeChatID == id {
		s.activeChatID = ""
		s.messages = nil
	}
}

// DeleteChat removes a chat outright, with the same active-pointer side
// effect as ArchiveChat.
func (s *Store) DeleteChat(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.chatIndexLocked(id)
	if idx < 0 {
		return
	}
	s.chats = append(s.chats[:idx], s.chats[idx+1:]...)
	if s.activeChatID == id {
		s.activeChatID = ""
		s.messages = nil
	}
}

// TogglePinnedAssistant toggles membership in the pinned set. Display order
// is insertion order.
func (s *Store) TogglePinnedAssistant(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, pinned := range s.pinned {
		if pinned == id {
			s.pinned = append(s.pinned[:i], s.pinned[i+1:]...)
			return
		}
	}
	s.pinned = append(s.pinned, id)
}

// UpdateAssistantStats folds a rating into the built-in catalog. Custom GPTs
// carry no rating distribution, so an unknown id is logged and ignored.
func (s *Store) UpdateAssistantStats(id string, rating int) {
	if _, err := s.rater.RecordRating(id, rating); err != nil {
		s.logger.WithError(err).WithField("assistant_id", id).Debug("Rating not recorded")
	}
}

// SetSidebarOpen sets the persisted sidebar flag.
func (s *Store) SetSidebarOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebarOpen = open
}

// ToggleSidebar flips the sidebar flag and returns the new value.
func (s *Store) ToggleSidebar() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sidebarOpen = !s.sidebarOpen
	return s.sidebarOpen
}

// SetLoading records the externally held in-flight flag. The store does not
// compute it.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// Loading reports the in-flight flag.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// SidebarOpen reports the sidebar flag.
func (s *Store) SidebarOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sidebarOpen
}

// ActiveChat returns the active chat, if any.
func (s *Store) ActiveChat() (models.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.chatIndexLocked(s.activeChatID)
	if idx < 0 {
		return models.Chat{}, false
	}
	return cloneChat(s.chats[idx]), true
}

// ActiveAssistant returns the assistant the user currently sees.
func (s *Store) ActiveAssistant() models.Assistant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeAssistant.Clone()
}

// Messages returns the visible message buffer.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

// Chats returns every chat, newest first.
func (s *Store) Chats() []models.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Chat, 0, len(s.chats))
	for i := range s.chats {
		out = append(out, cloneChat(s.chats[i]))
	}
	return out
}

// PinnedIDs returns the pinned assistant ids in insertion order.
func (s *Store) PinnedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pinned...)
}

func (s *Store) chatIndexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.chats {
		if s.chats[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneChat(c models.Chat) models.Chat {
	out := c
	out.Messages = append([]models.Message(nil), c.Messages...)
	return out
}
