package gpt

import (
	"github.com/nexa-digital/nexus-chat-go/internal/models"
)

// Snapshot is the persisted shape of the GPT store. New fields must be
// optional so older blobs keep loading.
type Snapshot struct {
	GPTs      []models.GPT `json:"gpts"`
	ActiveGPT string       `json:"activeGPT,omitempty"`
}

// Snapshot captures the current store state for persistence.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Snapshot{
		GPTs:      append([]models.GPT(nil), s.gpts...),
		ActiveGPT: s.activeID,
	}
}

// Restore rehydrates the store from a persisted snapshot, replacing any
// current state.
func (s *Store) Restore(snap *Snapshot) {
	if snap == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gpts = append([]models.GPT(nil), snap.GPTs...)
	s.activeID = snap.ActiveGPT
	if s.indexLocked(s.activeID) < 0 {
		s.activeID = ""
	}
}
