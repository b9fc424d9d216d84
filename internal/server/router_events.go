package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type realtimeEventPayload struct {
	DateKey   string `json:"dateKey,omitempty"`
	Category  string `json:"category,omitempty"`
	TalkID    string `json:"talkId,omitempty"`
	Action    string `json:"action,omitempty"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// parseTopics reads the comma separated topics query; none means every topic.
func parseTopics(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{RealtimeTopicReports, RealtimeTopicSafety}
	}
	topics := make([]string, 0, 2)
	for _, part := range strings.Split(raw, ",") {
		switch topic := strings.ToLower(strings.TrimSpace(part)); topic {
		case RealtimeTopicReports, RealtimeTopicSafety:
			topics = append(topics, topic)
		}
	}
	return topics
}

func (h *httpHandler) handleEvents(c *gin.Context) {
	topics := parseTopics(c.Query("topics"))
	if len(topics) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorInvalidRequest})
		return
	}

	ctx := c.Request.Context()
	stream, cleanup := h.realtime.Subscribe(ctx, topics...)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-stream:
			if !ok {
				return
			}
			c.SSEvent(message.EventType, realtimeEventPayload{
				DateKey:   message.DateKey,
				Category:  message.Category,
				TalkID:    message.TalkID,
				Action:    message.Action,
				Source:    realtimeSourceBackend,
				Timestamp: message.Timestamp.UTC().Format(time.RFC3339Nano),
			})
			c.Writer.Flush()
		case tick := <-heartbeat.C:
			c.SSEvent(realtimeEventHeartbeat, realtimeEventPayload{
				Source:    realtimeSourceBackend,
				Timestamp: tick.UTC().Format(time.RFC3339Nano),
			})
			c.Writer.Flush()
		}
	}
}
