package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"postqueue/domain/model"
)

// PostStatusEvent is the SSE payload for post status updates.
type PostStatusEvent struct {
	Type       string  `json:"type"`
	PostID     int64   `json:"post_id"`
	Platform   string  `json:"platform"`
	Status     string  `json:"status"`
	PostURL    *string `json:"post_url,omitempty"`
	FailReason *string `json:"fail_reason,omitempty"`
	FailCount  int     `json:"fail_count"`
}

// Hub maintains per-user subscribers listening for post status events.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[chan PostStatusEvent]struct{}
}

func NewPostHub() *Hub {
	return &Hub{users: make(map[string]map[chan PostStatusEvent]struct{})}
}

// Serve registers an SSE stream for the authenticated user (user_id set by middleware).
func (h *Hub) Serve(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan PostStatusEvent, 8)
	h.addSubscriber(userID, ch)
	defer h.removeSubscriber(userID, ch)

	// Initial comment to keep connection open
	_, _ = c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: post_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

// BroadcastPostStatus fans a post's current state out to the owner's streams.
func (h *Hub) BroadcastPostStatus(post *model.Post) {
	if post == nil {
		return
	}
	evt := PostStatusEvent{
		Type:       "post_status",
		PostID:     post.ID,
		Status:     string(post.Status),
		PostURL:    post.PostURL,
		FailReason: post.FailReason,
		FailCount:  post.FailCount,
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.users[post.UserID] {
		select {
		case ch <- evt:
		default: // slow subscriber, drop
		}
	}
}

func (h *Hub) addSubscriber(userID string, ch chan PostStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[chan PostStatusEvent]struct{})
	}
	h.users[userID][ch] = struct{}{}
}

func (h *Hub) removeSubscriber(userID string, ch chan PostStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.users[userID], ch)
	if len(h.users[userID]) == 0 {
		delete(h.users, userID)
	}
}
