package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"job-board/domain"
	"job-board/usecase"
)

const chatReplyTimeout = 60 * time.Second

func (h *HTTPHandler) ChatHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := h.chat.History(c.Request.Context(), c.Param("session"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"items": msgs})
}

func (h *HTTPHandler) PostAgentMessage(c *gin.Context) {
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := h.chat.PostAgentMessage(c.Request.Context(), actorFrom(c), c.Param("session"), req.Body)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// ChatSocket upgrades to a support chat session. Frames are either
// {"body": "..."} or plain text; replies and agent messages arrive as
// chat message JSON.
func (h *HTTPHandler) ChatSocket(c *gin.Context) {
	session := c.Query("session")
	if !usecase.ValidSessionID(session) {
		badRequest(c, "session is required")
		return
	}
	actor := actorFrom(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	h.hub.Serve(conn, chatTopic(session), func(client *wsClient, data []byte) {
		ctx, cancel := context.WithTimeout(context.Background(), chatReplyTimeout)
		defer cancel()

		if _, err := h.chat.Send(ctx, session, actor, chatBody(data)); err != nil {
			h.hub.Send(client, gin.H{"error": err.Error()})
		}
	})
}

func chatBody(data []byte) string {
	var frame struct {
		Body string `json:"body"`
	}
	if json.Unmarshal(data, &frame) == nil && frame.Body != "" {
		return frame.Body
	}
	return strings.TrimSpace(string(data))
}

// ListingFeed streams listing events to the client.
func (h *HTTPHandler) ListingFeed(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	h.hub.Serve(conn, listingsTopic, nil)
}
