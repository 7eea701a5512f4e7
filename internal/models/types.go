package models

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Voice is one of the fixed synthesizer voices.
type Voice string

const (
	VoiceAlloy   Voice = "alloy"
	VoiceEcho    Voice = "echo"
	VoiceFable   Voice = "fable"
	VoiceOnyx    Voice = "onyx"
	VoiceNova    Voice = "nova"
	VoiceShimmer Voice = "shimmer"
)

func (v Voice) Valid() bool {
	switch v {
	case VoiceAlloy, VoiceEcho, VoiceFable, VoiceOnyx, VoiceNova, VoiceShimmer:
		return true
	}
	return false
}

// Visibility controls who can see a GPT in merged listings.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityDraft   Visibility = "draft"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityDraft:
		return true
	}
	return false
}

// RatingBuckets holds the per-star rating counts.
type RatingBuckets struct {
	Five  int `json:"five"`
	Four  int `json:"four"`
	Three int `json:"three"`
	Two   int `json:"two"`
	One   int `json:"one"`
}

// Total returns the number of recorded ratings across all buckets.
func (b RatingBuckets) Total() int {
	return b.Five + b.Four + b.Three + b.Two + b.One
}

// AssistantStats is aggregate usage and rating data for a built-in assistant.
// Rating is the bucket-weighted mean rounded to one decimal; Users counts one
// increment per rating submission.
type AssistantStats struct {
	Users   int           `json:"users"`
	Rating  float64       `json:"rating"`
	Ratings RatingBuckets `json:"ratings"`
}

// Assistant is a built-in conversational persona. Instances are owned by the
// catalog; only Stats and Voice change after seeding.
type Assistant struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Avatar      string          `json:"avatar"`
	Role        string          `json:"role"`
	IsPrimary   bool            `json:"isPrimary"`
	IsDefault   bool            `json:"isDefault,omitempty"`
	Category    string          `json:"category,omitempty"`
	Creator     string          `json:"creator,omitempty"`
	ChatCount   int             `json:"chatCount,omitempty"`
	Voice       Voice           `json:"voice,omitempty"`
	Stats       *AssistantStats `json:"stats,omitempty"`
}

// Clone returns a deep copy so catalog internals never leak as shared
// mutable references.
func (a Assistant) Clone() Assistant {
	out := a
	if a.Stats != nil {
		stats := *a.Stats
		out.Stats = &stats
	}
	return out
}

// Capabilities are the four independent feature switches of a GPT.
type Capabilities struct {
	WebSearch       bool `json:"webSearch"`
	CodeInterpreter bool `json:"codeInterpreter"`
	ImageGeneration bool `json:"imageGeneration"`
	FileUpload      bool `json:"fileUpload"`
}

// AllCapabilities returns every capability enabled.
func AllCapabilities() Capabilities {
	return Capabilities{WebSearch: true, CodeInterpreter: true, ImageGeneration: true, FileUpload: true}
}

// APIConfig records whether a caller-supplied credential is used for a GPT.
type APIConfig struct {
	UseCustomAPI bool `json:"useCustomApi"`
}

// GPT is a user-authored assistant configuration.
type GPT struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Role         string       `json:"role"`
	Instructions string       `json:"instructions,omitempty"`
	Avatar       string       `json:"avatar"`
	Capabilities Capabilities `json:"capabilities"`
	Files        []string     `json:"files"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    *time.Time   `json:"updatedAt,omitempty"`
	Model        string       `json:"model,omitempty"`
	Visibility   Visibility   `json:"visibility,omitempty"`
	IsDefault    bool         `json:"isDefault,omitempty"`
	BackendID    string       `json:"backendId"`
	APIConfig    *APIConfig   `json:"apiConfig,omitempty"`
}

// LastTouched is the recency timestamp used for ordering and default
// reassignment: UpdatedAt when set, CreatedAt otherwise.
func (g GPT) LastTouched() time.Time {
	if g.UpdatedAt != nil {
		return *g.UpdatedAt
	}
	return g.CreatedAt
}

// AsAssistant converts a GPT into the display assistant shape used by the
// merged listings and the active-assistant pointer.
func (g GPT) AsAssistant() Assistant {
	return Assistant{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Avatar:      g.Avatar,
		Role:        g.Role,
		IsDefault:   g.IsDefault,
		Voice:       VoiceAlloy,
	}
}

// Attachment is an inline document or image carried by a message. Width and
// Height are zero for non-image attachments.
type Attachment struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
	Content string `json:"content"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// Feedback is a user's thumbs rating on an assistant message. It is set as a
// whole, never partially.
type Feedback struct {
	IsPositive bool   `json:"isPositive"`
	Comment    string `json:"comment,omitempty"`
}

// Message is one entry in a chat transcript. Content is editable after the
// fact; AssistantID never changes.
type Message struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	Role        Role         `json:"role"`
	Timestamp   time.Time    `json:"timestamp"`
	AssistantID string       `json:"assistantId"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Feedback    *Feedback    `json:"feedback,omitempty"`
}

// Chat is a single conversation thread bound to one assistant.
type Chat struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	AssistantID    string    `json:"assistantId"`
	Messages       []Message `json:"messages"`
	LastUpdated    time.Time `json:"lastUpdated"`
	CreatedAt      time.Time `json:"createdAt"`
	Archived       bool      `json:"archived,omitempty"`
	HasInteraction bool      `json:"hasInteraction,omitempty"`
}

// VoiceSettings are handed to the speech collaborator alongside transcripts.
type VoiceSettings struct {
	Speed  float64 `json:"speed"`
	Volume float64 `json:"volume"`
	Voice  Voice   `json:"voice"`
}
