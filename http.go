package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Routes builds the HTTP surface: join, websocket, unlock relay, health and
// diagnostics.
func Routes(hub *Hub) http.Handler {
	router := chi.NewRouter()
	router.Post("/join", handleJoin(hub))
	router.Get("/ws", handleWS(hub))
	router.Post("/unlock", handleUnlock(hub))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.Diagnostics())
	})
	return router
}

type joinResponse struct {
	Ver    int    `json:"ver"`
	ID     string `json:"id"`
	RoomID string `json:"room"`
}

func handleJoin(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}
		levelType := r.URL.Query().Get("level")
		if levelType == "" {
			levelType = "standard"
		}
		room, err := hub.GetOrCreate(roomID, levelType)
		if err != nil {
			hub.logger.Error("room create failed", zap.String("room", roomID), zap.Error(err))
			http.Error(w, "room unavailable", http.StatusInternalServerError)
			return
		}
		playerID := room.Join()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(joinResponse{Ver: ProtocolVersion, ID: playerID, RoomID: roomID})
	}
}

func handleUnlock(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		hub.BroadcastUnlock(token)
		w.WriteHeader(http.StatusAccepted)
	}
}

// handleWS upgrades the connection, attaches it to an admitted player, sends
// the one-shot room snapshot, and pumps client messages until disconnect.
func handleWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		playerID := r.URL.Query().Get("id")
		room := hub.Get(roomID)
		if room == nil {
			http.Error(w, "unknown room", http.StatusNotFound)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sub, snapshot := room.subscribe(playerID, conn)
		if sub == nil {
			conn.Close()
			return
		}
		data, err := json.Marshal(snapshot)
		if err != nil {
			hub.logger.Warn("marshal snapshot", zap.Error(err))
			conn.Close()
			return
		}
		sub.send(data)

		go readPump(room, playerID, conn)
	}
}

func readPump(room *Room, playerID string, conn *websocket.Conn) {
	// Cleanup is scoped to this pump's conn: a pump whose socket was replaced
	// by a reconnect must not tear down the live session.
	defer room.disconnect(playerID, conn)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // malformed input is skipped, never fatal
		}
		switch msg.Type {
		case "input":
			room.HandleInput(playerID, msg)
		case msgHeartbeat:
			now := time.Now()
			var rtt time.Duration
			if msg.SentAt > 0 {
				rtt = now.Sub(time.UnixMilli(msg.SentAt))
			}
			room.Heartbeat(playerID, rtt)
			reply, err := json.Marshal(heartbeatMessage{
				Type:       msgHeartbeat,
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			})
			if err == nil {
				if sub := room.subscriberFor(playerID); sub != nil {
					sub.send(reply)
				}
			}
		default:
			room.HandleRequest(playerID, msg)
		}
	}
}
