package chat

import (
	"strings"
	"time"

	"github.com/nexa-digital/nexus-chat-go/internal/models"
)

// Derived views are pure functions of the current snapshot. They are
// recomputed on every read and never stored.

// MergeAssistants concatenates the built-in catalog with visible GPT entries
// converted to their display shape. A GPT whose id collides with a built-in
// is not deduplicated here; callers prevent the collision.
func MergeAssistants(builtins []models.Assistant, gpts []models.GPT) []models.Assistant {
	out := make([]models.Assistant, 0, len(builtins)+len(gpts))
	out = append(out, builtins...)
	for _, g := range gpts {
		out = append(out, g.AsAssistant())
	}
	return out
}

// FilterPinned returns the merged list narrowed to pinned ids, keeping the
// pinned set's insertion order.
func FilterPinned(merged []models.Assistant, pinned []string) []models.Assistant {
	byID := make(map[string]models.Assistant, len(merged))
	for _, a := range merged {
		if _, dup := byID[a.ID]; !dup {
			byID[a.ID] = a
		}
	}
	out := make([]models.Assistant, 0, len(pinned))
	for _, id := range pinned {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// FilterBrowsable returns the merged list minus pinned ids, optionally
// narrowed by a case-insensitive substring match on name or role.
func FilterBrowsable(merged []models.Assistant, pinned []string, query string) []models.Assistant {
	pinnedSet := make(map[string]struct{}, len(pinned))
	for _, id := range pinned {
		pinnedSet[id] = struct{}{}
	}

	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Assistant, 0, len(merged))
	for _, a := range merged {
		if _, isPinned := pinnedSet[a.ID]; isPinned {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(a.Name), query) &&
			!strings.Contains(strings.ToLower(a.Role), query) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// VisibleChats returns the chats that appear in listings, i.e. everything
// not archived, preserving order.
func VisibleChats(chats []models.Chat) []models.Chat {
	out := make([]models.Chat, 0, len(chats))
	for _, c := range chats {
		if !c.Archived {
			out = append(out, c)
		}
	}
	return out
}

// ChatGroups buckets chats by recency for the sidebar.
type ChatGroups struct {
	Today     []models.Chat `json:"today"`
	Yesterday []models.Chat `json:"yesterday"`
	LastWeek  []models.Chat `json:"lastWeek"`
	Older     []models.Chat `json:"older"`
}

// GroupByRecency buckets chats on LastUpdated against the caller-supplied
// current time, using midnight-aligned day boundaries.
func GroupByRecency(chats []models.Chat, now time.Time) ChatGroups {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := midnight.AddDate(0, 0, -1)
	weekAgo := midnight.AddDate(0, 0, -7)

	var g ChatGroups
	for _, c := range chats {
		ts := c.LastUpdated
		switch {
		case !ts.Before(midnight):
			g.Today = append(g.Today, c)
		case !ts.Before(yesterday):
			g.Yesterday = append(g.Yesterday, c)
		case !ts.Before(weekAgo):
			g.LastWeek = append(g.LastWeek, c)
		default:
			g.Older = append(g.Older, c)
		}
	}
	return g
}
