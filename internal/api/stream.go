package api

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

const streamHeartbeat = 30 * time.Second

// handleStream serves server-sent events with the change notifications for
// the authenticated user. Clients re-fetch the dashboard when an event
// arrives, the stream itself carries only the kind.
func (s *Server) handleStream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ctx := c.Request.Context()
	events := s.events.Subscribe(ctx, currentUser(c).ID)
	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case kind, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("change", kind)
			return true
		case <-ticker.C:
			// Keeps intermediaries from closing an idle connection.
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
