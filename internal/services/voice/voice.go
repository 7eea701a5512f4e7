package voice

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nexa-digital/nexus-chat-go/internal/models"
)

// TranscriptFunc receives finalized transcript strings from the speech
// collaborator.
type TranscriptFunc func(text string)

// Controller is the thin bridge to the external speech pipeline. It holds
// the resolved voice settings for the active assistant and forwards
// transcripts to the registered handler; it never touches audio.
type Controller struct {
	mu           sync.Mutex
	settings     models.VoiceSettings
	onTranscript TranscriptFunc
	logger       *logrus.Logger
}

// NewController creates a controller with the given default speed and
// volume.
func NewController(speed, volume float64, logger *logrus.Logger) *Controller {
	return &Controller{
		settings: models.VoiceSettings{
			Speed:  speed,
			Volume: volume,
			Voice:  models.VoiceAlloy,
		},
		logger: logger,
	}
}

// SetHandler registers the transcript consumer.
func (c *Controller) SetHandler(fn TranscriptFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTranscript = fn
}

// HandleTranscript forwards a finalized transcript to the handler. With no
// handler registered the transcript is dropped and logged.
func (c *Controller) HandleTranscript(text string) {
	c.mu.Lock()
	fn := c.onTranscript
	c.mu.Unlock()

	if fn == nil {
		c.logger.Warn("Transcript received with no handler registered")
		return
	}
	fn(text)
}

// ApplyAssistant adopts the voice of the newly active assistant, keeping the
// user-tuned speed and volume.
func (c *Controller) ApplyAssistant(a models.Assistant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a.Voice.Valid() {
		c.settings.Voice = a.Voice
	} else {
		c.settings.Voice = models.VoiceAlloy
	}
}

// SetSpeed sets playback speed.
func (c *Controller) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Speed = speed
}

// SetVolume sets playback volume.
func (c *Controller) SetVolume(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings.Volume = volume
}

// Settings returns the current voice settings.
func (c *Controller) Settings() models.VoiceSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}
