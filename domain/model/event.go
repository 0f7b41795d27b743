package model

import "time"

// PostEvent is published to the message bus (and the SSE hub) whenever a
// post's lifecycle status changes. Best-effort; losing one is acceptable.
type PostEvent struct {
	Type     string     `json:"type"` // post_posted | post_failed
	PostID   int64      `json:"post_id"`
	UserID   string     `json:"user_id"`
	Platform Platform   `json:"platform"`
	Status   PostStatus `json:"status"`
	PostURL  *string    `json:"post_url,omitempty"`
	Error    *string    `json:"error,omitempty"`
	At       time.Time  `json:"at"`
}
