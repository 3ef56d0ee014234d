package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	apperrors "geobattle/internal/platform/errors"
	"geobattle/internal/platform/timeouts"
	"geobattle/internal/services/game/events"
)

// pingInterval keeps idle watch connections from being reaped by
// intermediaries. It must be shorter than pongWait.
const pingInterval = 30 * time.Second

// pongWait is how long a watch connection may stay silent before the
// server drops it.
const pongWait = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleWatch streams game events to the client over a websocket.
// Slow consumers lose events rather than stalling the publisher.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		s.writeError(w, apperrors.New(apperrors.CodeStorageFailure, "event feed is not configured"))
		return
	}
	gameID := r.PathValue("gameID")
	if _, err := s.engine.State(r.Context(), gameID); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure response.
		return
	}

	feed, cancel := s.hub.Subscribe(gameID)
	defer cancel()

	go watchReader(conn)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case event, ok := <-feed:
			if !ok {
				return
			}
			if err := writeEvent(conn, event); err != nil {
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(timeouts.WebsocketWrite)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, event events.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(timeouts.WebsocketWrite)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

// watchReader drains the client side of the connection so close frames
// and pongs are processed. The feed itself is write-only.
func watchReader(conn *websocket.Conn) {
	conn.SetReadLimit(512)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("httpapi: watch read: %v", err)
			}
			conn.Close()
			return
		}
	}
}
