package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nexa-digital/nexus-chat-go/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when an assistant id is not in the catalog.
var ErrNotFound = errors.New("assistant not found")

// Catalog owns the built-in assistant definitions. Assistants are seeded once
// at construction and never deleted; only their stats and voice change. All
// reads return copies so no mutable reference crosses the package boundary.
type Catalog struct {
	mu         sync.RWMutex
	order      []string
	assistants map[string]*models.Assistant
	logger     *logrus.Logger
}

// New creates a catalog seeded with the given assistants in the given order.
// Duplicate ids keep the first occurrence.
func New(seed []models.Assistant, logger *logrus.Logger) *Catalog {
	c := &Catalog{
		assistants: make(map[string]*models.Assistant, len(seed)),
		logger:     logger,
	}
	for i := range seed {
		a := seed[i].Clone()
		if _, exists := c.assistants[a.ID]; exists {
			logger.WithField("assistant_id", a.ID).Warn("Duplicate assistant id in seed, keeping first")
			continue
		}
		c.assistants[a.ID] = &a
		c.order = append(c.order, a.ID)
	}
	logger.WithField("assistants", len(c.order)).Info("Assistant catalog seeded")
	return c
}

// Default creates a catalog seeded with the built-in personas.
func Default(logger *logrus.Logger) *Catalog {
	return New(builtinAssistants(), logger)
}

// ListAll returns every assistant in seed order.
func (c *Catalog) ListAll() []models.Assistant {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Assistant, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.assistants[id].Clone())
	}
	return out
}

// Get returns the assistant with the given id.
func (c *Catalog) Get(id string) (models.Assistant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.assistants[id]
	if !ok {
		return models.Assistant{}, false
	}
	return a.Clone(), true
}

// RecordRating folds a 1..5 rating into the assistant's distribution and
// returns the updated assistant. The mutation is visible to every subsequent
// read.
func (c *Catalog) RecordRating(id string, rating int) (models.Assistant, error) {
	if rating < 1 || rating > 5 {
		return models.Assistant{}, fmt.Errorf("rating out of range: %d", rating)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.assistants[id]
	if !ok {
		return models.Assistant{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if a.Stats == nil {
		a.Stats = &models.AssistantStats{}
	}
	foldRating(a.Stats, rating)

	c.logger.WithFields(logrus.Fields{
		"assistant_id": id,
		"rating":       rating,
		"mean":         a.Stats.Rating,
		"users":        a.Stats.Users,
	}).Debug("Rating recorded")

	return a.Clone(), nil
}

// SetVoice assigns one of the fixed voices to an assistant.
func (c *Catalog) SetVoice(id string, voice models.Voice) error {
	if !voice.Valid() {
		return fmt.Errorf("invalid voice: %q", voice)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.assistants[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	a.Voice = voice
	return nil
}

// DefaultAssistant returns the assistant flagged default, else the first in
// seed order.
func (c *Catalog) DefaultAssistant() (models.Assistant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, id := range c.order {
		if c.assistants[id].IsDefault {
			return c.assistants[id].Clone(), true
		}
	}
	if len(c.order) > 0 {
		return c.assistants[c.order[0]].Clone(), true
	}
	return models.Assistant{}, false
}
