package gpt

import (
	"sort"
	"sync"
	"time"

	"github.com/nexa-digital/nexus-chat-go/internal/models"
	"github.com/sirupsen/logrus"
)

// Store owns user-authored assistant configurations. The list is kept in
// recency order (front = most recently touched) and at most one GPT carries
// the default flag at any time; every mutation that sets the flag clears it
// elsewhere under the same lock hold.
type Store struct {
	mu       sync.Mutex
	gpts     []models.GPT
	activeID string
	logger   *logrus.Logger
	now      func() time.Time
}

// NewStore creates an empty GPT store.
func NewStore(logger *logrus.Logger) *Store {
	return &Store{
		logger: logger,
		now:    time.Now,
	}
}

// Add inserts a GPT at the front of the list. The first GPT ever added
// becomes default; a caller-requested default clears the flag on all others.
func (s *Store) Add(g models.GPT) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	if len(s.gpts) == 0 {
		g.IsDefault = true
	}
	if g.IsDefault {
		s.clearDefaultLocked()
	}
	s.gpts = append([]models.GPT{g}, s.gpts...)

	s.logger.WithFields(logrus.Fields{
		"gpt_id":  g.ID,
		"default": g.IsDefault,
	}).Info("GPT added")
}

// Update replaces the GPT with the same id and stamps UpdatedAt, or inserts
// it as new when the id is unknown. Afterwards the list is re-sorted so the
// most recently touched configurations surface first.
func (s *Store) Update(g models.GPT) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if g.IsDefault {
		s.clearDefaultLocked()
	}

	idx := s.indexLocked(g.ID)
	if idx >= 0 {
		g.UpdatedAt = &now
		s.gpts[idx] = g
	} else {
		g.CreatedAt = now
		g.UpdatedAt = &now
		s.gpts = append([]models.GPT{g}, s.gpts...)
	}

	sort.SliceStable(s.gpts, func(i, j int) bool {
		return s.gpts[i].LastTouched().After(s.gpts[j].LastTouched())
	})
}

// Delete removes the GPT with the given id. An unknown id is logged and
// ignored. When the removed GPT was default and others remain, the most
// recently touched survivor becomes the new default.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.logger.WithField("gpt_id", id).Warn("Attempted to delete non-existent GPT")
		return
	}

	wasDefault := s.gpts[idx].IsDefault
	s.gpts = append(s.gpts[:idx], s.gpts[idx+1:]...)

	if s.activeID == id {
		s.activeID = ""
	}

	if wasDefault && len(s.gpts) > 0 {
		newest := 0
		for i := 1; i < len(s.gpts); i++ {
			if s.gpts[i].LastTouched().After(s.gpts[newest].LastTouched()) {
				newest = i
			}
		}
		s.gpts[newest].IsDefault = true
		s.logger.WithField("gpt_id", s.gpts[newest].ID).Info("Default GPT reassigned")
	}
}

// SetDefault makes the GPT with the given id the single default.
func (s *Store) SetDefault(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.gpts {
		s.gpts[i].IsDefault = s.gpts[i].ID == id
	}
}

// GetDefault returns the GPT flagged default, else the first in list order.
func (s *Store) GetDefault() (models.GPT, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.gpts {
		if g.IsDefault {
			return g, true
		}
	}
	if len(s.gpts) > 0 {
		return s.gpts[0], true
	}
	return models.GPT{}, false
}

// SetActive points the active-GPT pointer at the matching GPT, or clears it
// when the id is unknown. The default flag is untouched.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		s.activeID = ""
		return
	}
	s.activeID = id
}

// Active returns the currently active GPT.
func (s *Store) Active() (models.GPT, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(s.activeID)
	if idx < 0 {
		return models.GPT{}, false
	}
	return s.gpts[idx], true
}

// Get returns the GPT with the given id.
func (s *Store) Get(id string) (models.GPT, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return models.GPT{}, false
	}
	return s.gpts[idx], true
}

// List returns every GPT in recency order.
func (s *Store) List() []models.GPT {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.GPT(nil), s.gpts...)
}

// ListVisible returns the GPTs an audience may see: public configurations,
// plus private ones for an elevated caller. Drafts are never listed.
func (s *Store) ListVisible(elevated bool) []models.GPT {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.GPT, 0, len(s.gpts))
	for _, g := range s.gpts {
		switch g.Visibility {
		case models.VisibilityDraft:
			continue
		case models.VisibilityPrivate:
			if !elevated {
				continue
			}
		}
		out = append(out, g)
	}
	return out
}

// ImportFromCatalog seeds the store from the built-in assistants. It runs
// only when the store is empty; a second call is a no-op.
func (s *Store) ImportFromCatalog(assistants []models.Assistant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.gpts) > 0 {
		return
	}

	now := s.now()
	for _, a := range assistants {
		s.gpts = append(s.gpts, models.GPT{
			ID:           a.ID,
			Name:         a.Name,
			Description:  a.Description,
			Role:         a.Role,
			Instructions: "You are " + a.Name + ", " + a.Description,
			Avatar:       a.Avatar,
			Capabilities: models.AllCapabilities(),
			Files:        []string{},
			CreatedAt:    now,
			Model:        "gpt-4",
			Visibility:   models.VisibilityPublic,
			IsDefault:    a.IsDefault,
			APIConfig:    &models.APIConfig{},
		})
	}

	s.logger.WithField("gpts", len(s.gpts)).Info("GPT store seeded from catalog")
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.gpts {
		if s.gpts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) clearDefaultLocked() {
	for i := range s.gpts {
		s.gpts[i].IsDefault = false
	}
}
