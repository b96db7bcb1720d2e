package realtime

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Handler upgrades the request and keeps the connection registered until the
// client goes away. Incoming messages are ignored.
// checkOrigin may be nil to accept same-host origins only.
func Handler(hub *Hub, checkOrigin func(r *http.Request) bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("ws_upgrade_failed", "error", err)
			return
		}
		ws.SetReadLimit(4096)

		// The welcome goes out before Add so it never races a broadcast write.
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = ws.WriteJSON(SessionEvent{Type: EventWelcome, At: time.Now().UTC()})

		hub.Add(ws)
		slog.Info("ws_event", "event", "client_connected", "clients", hub.Stats().Clients)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(ws)
		slog.Info("ws_event", "event", "client_disconnected", "clients", hub.Stats().Clients)
	}
}
