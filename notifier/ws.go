// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package notifier

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// pongWait is how long we wait for a pong before considering the
	// connection dead.
	pongWait = 60 * time.Second
	// pingPeriod must stay below pongWait so a ping always has time to
	// round-trip before the read deadline expires.
	pingPeriod = (pongWait * 7) / 10
	// maxMessageBytes bounds inbound control-frame size; subscribers
	// never send data frames, only pong replies.
	maxMessageBytes = 4 * 1024

	// closeCodeMaxConnections is a private-use-range websocket close
	// code (4000-4999); no standard code exists for "at capacity".
	closeCodeMaxConnections   = 4000
	closeReasonMaxConnections = "MAX CONNECTIONS reached"
)

var upgrader = websocket.Upgrader{
	EnableCompression: true,
	CheckOrigin:       func(*http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request to a websocket subscriber connection.
// If the hub is already at max_connections, the upgraded socket is told
// so via a close frame with code 4000 and then closed immediately,
// matching spec §6's close-code contract; otherwise the connection is
// served until the peer disconnects or a write to it fails.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	if !h.acquire() {
		closeMsg := websocket.FormatCloseMessage(closeCodeMaxConnections, closeReasonMaxConnections)
		if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err == nil {
			_ = conn.Close()
		} else {
			_ = conn.Close()
		}
		return
	}
	defer h.release()

	h.serve(conn)
}

func (h *Hub) serve(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageBytes)

	closed := make(chan struct{})
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Debug("failed to set initial read deadline", "err", err)
		close(closed)
	} else {
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}

	ts, bs, currentTip := h.subscribe()
	defer h.unsubscribe(ts, bs)

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	if err := conn.WriteJSON(newTipMessage(currentTip)); err != nil {
		return
	}

	for {
		select {
		case tip := <-ts.ch:
			if err := conn.WriteJSON(newTipMessage(tip)); err != nil {
				return
			}
		case block := <-bs.ch:
			if err := conn.WriteJSON(newBlockMessage(block)); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
