package model

import "time"

// Destination is a posting target inside a platform (a subreddit, a
// community, a page). Not all platforms have them; reddit requires one.
type Destination struct {
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Description string            `json:"description,omitempty"`
}

// RecentDestination tracks per-user destination reuse for quick re-selection.
// The same destination id may be saved repeatedly; use_count and
// last_used_at drive the ranking.
type RecentDestination struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	Platform      Platform  `json:"platform"`
	DestinationID string    `json:"destination_id"`
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	Metadata      *string   `json:"-"`
	Description   *string   `json:"description,omitempty"`
	UseCount      int       `json:"use_count"`
	LastUsedAt    time.Time `json:"last_used_at"`
	CreatedAt     time.Time `json:"created_at"`
}
