package server

import (
	"context"
	"encoding/json"
	"net/http"

	"Vibe/core/playback"
	"Vibe/core/session"
	"Vibe/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// PlayerSocketHandler attaches the caller's browser audio element. The
// server sends element commands and state snapshots; the client sends media
// events.
func (h *APIHandler) PlayerSocketHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	hub := h.sessions.Hub()
	if hub == nil {
		writeError(w, http.StatusServiceUnavailable, "Player socket not available")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := session.NewClient(hub, conn, sess.UserID)
	// registered first so the reissued load and volume reach this connection
	hub.Register(client)
	if msg, err := sess.Attach(); err == nil {
		client.SendMessage(msg)
	} else {
		logger.Warn("Failed to encode player state", logger.String("userId", sess.UserID), logger.ErrorField(err))
	}

	go client.WritePump()
	// the request context ends when the handler returns, so the pump gets its own
	client.ReadPump(context.Background(), func(ctx context.Context, c *session.Client, msg *session.WSMessage) {
		handleSocketMessage(sess, c, msg)
	})
}

func handleSocketMessage(sess *session.Session, c *session.Client, msg *session.WSMessage) {
	if msg.Type != session.MsgTypeEvent {
		replyError(c, "unsupported message type "+string(msg.Type))
		return
	}
	var ev playback.Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		replyError(c, "invalid event payload")
		return
	}
	if _, err := sess.HandleEvent(ev); err != nil {
		logger.Debug("media event rejected",
			logger.String("userId", sess.UserID),
			logger.String("type", string(ev.Type)),
			logger.ErrorField(err))
		replyError(c, err.Error())
	}
}

func replyError(c *session.Client, message string) {
	if msg, err := session.NewMessage(session.MsgTypeError, session.ErrorData{Message: message}); err == nil {
		c.SendMessage(msg)
	}
}
