package chat

import (
	"github.com/nexa-digital/nexus-chat-go/internal/models"
)

// Snapshot is the persisted shape of the chat store. The visible message
// buffer is redundant with the active chat's messages and is rebuilt on
// restore rather than persisted. New fields must be optional so older blobs
// keep loading.
type Snapshot struct {
	Chats            []models.Chat `json:"chats"`
	ActiveChat       string        `json:"activeChat,omitempty"`
	ActiveAssistant  string        `json:"activeAssistant,omitempty"`
	IsSidebarOpen    bool          `json:"isSidebarOpen"`
	PinnedAssistants []string      `json:"pinnedAssistants,omitempty"`
}

// Snapshot captures the current store state for persistence.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats := make([]models.Chat, 0, len(s.chats))
	for i := range s.chats {
		chats = append(chats, cloneChat(s.chats[i]))
	}
	return &Snapshot{
		Chats:            chats,
		ActiveChat:       s.activeChatID,
		ActiveAssistant:  s.activeAssistant.ID,
		IsSidebarOpen:    s.sidebarOpen,
		PinnedAssistants: append([]string(nil), s.pinned...),
	}
}

// Restore rehydrates the store from a persisted snapshot. The active
// assistant id is re-resolved; when it no longer resolves the current
// assistant is kept. An active chat id that no longer exists is dropped.
func (s *Store) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chats = append([]models.Chat(nil), snap.Chats...)
	s.sidebarOpen = snap.IsSidebarOpen
	s.pinned = append([]string(nil), snap.PinnedAssistants...)

	if assistant, ok := s.resolver.ResolveAssistant(snap.ActiveAssistant); ok {
		s.activeAssistant = assistant
	}

	s.activeChatID = ""
	s.messages = nil
	if idx := s.chatIndexLocked(snap.ActiveChat); idx >= 0 {
		s.activeChatID = snap.ActiveChat
		s.messages = append([]models.Message(nil), s.chats[idx].Messages...)
	}
}
