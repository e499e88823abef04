package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// handleSessionWS pushes the same events as handleEvents over a WebSocket.
// Client messages are ignored.
func handleSessionWS(sessions *Sessions, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := flowFrom(r)

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch := sessions.broker.Subscribe(f.ID())
		defer sessions.broker.Unsubscribe(f.ID(), ch)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
		defer cancel()
		ctx = conn.CloseRead(ctx)

		initial, _ := json.Marshal(SessionEvent{Type: "state", Session: f.Snapshot()})
		if err := conn.Write(ctx, websocket.MessageText, initial); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case <-sessions.closed:
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			case data := <-ch:
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		}
	}
}
