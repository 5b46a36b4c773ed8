package server

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"duskwell/server/internal/config"
)

// Hub is the room registry. Rooms are created on first join and destroyed
// when their last player leaves; no state survives a room's teardown.
type Hub struct {
	cfg    *config.Config
	logger *zap.Logger

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewHub(cfg *config.Config, logger *zap.Logger) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger,
		rooms:  make(map[string]*Room),
	}
}

// GetOrCreate returns the live room for the id, spinning one up on first
// join. The room's loops start immediately.
func (h *Hub) GetOrCreate(roomID, levelType string) (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[roomID]; ok {
		return room, nil
	}
	room, err := newRoom(roomID, levelType, rand.Int63(), h.cfg, h.logger, h.removeRoom)
	if err != nil {
		return nil, err
	}
	h.rooms[roomID] = room
	room.start()
	h.logger.Info("room created", zap.String("room", roomID), zap.String("levelType", levelType))
	return room, nil
}

// Get returns a live room or nil.
func (h *Hub) Get(roomID string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[roomID]
}

// removeRoom runs when a room empties: registry removal plus loop teardown.
// Emptiness is re-checked under both locks because the notification races
// GetOrCreate: a new player may have joined the still-registered room after
// the last disconnect observed it empty.
func (h *Hub) removeRoom(roomID string) {
	h.mu.Lock()
	room, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return
	}
	room.mu.Lock()
	occupied := len(room.players) > 0
	room.mu.Unlock()
	if occupied {
		h.mu.Unlock()
		return
	}
	delete(h.rooms, roomID)
	h.mu.Unlock()
	room.destroy()
}

// BroadcastUnlock relays an unlock token to every room.
func (h *Hub) BroadcastUnlock(token string) {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.Unlock()
	for _, room := range rooms {
		room.BroadcastUnlock(token)
	}
}

// RoomDiagnostics is the per-room slice of the diagnostics payload.
type RoomDiagnostics struct {
	ID         string `json:"id"`
	Scene      string `json:"scene"`
	Players    int    `json:"players"`
	Enemies    int    `json:"enemies"`
	Tick       uint64 `json:"tick"`
	LastTickMS int64  `json:"lastTickMs"`
}

// Diagnostics snapshots coarse health data for the HTTP endpoint.
func (h *Hub) Diagnostics() []RoomDiagnostics {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.Unlock()

	out := make([]RoomDiagnostics, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		out = append(out, RoomDiagnostics{
			ID:         room.ID,
			Scene:      room.mode.Name(),
			Players:    len(room.players),
			Enemies:    len(room.enemies),
			Tick:       room.tick,
			LastTickMS: room.lastTickAt.UnixMilli(),
		})
		room.mu.Unlock()
	}
	return out
}

// RunHeartbeatWatchdog disconnects players whose connections went silent.
// Blocks until stop closes; callers run it in its own goroutine.
func (h *Hub) RunHeartbeatWatchdog(stop <-chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.mu.Lock()
			rooms := make([]*Room, 0, len(h.rooms))
			for _, room := range h.rooms {
				rooms = append(rooms, room)
			}
			h.mu.Unlock()

			cutoff := time.Now().Add(-disconnectAfter)
			for _, room := range rooms {
				var stale []string
				room.mu.Lock()
				for id, p := range room.players {
					if p.lastHeartbeat.Before(cutoff) {
						stale = append(stale, id)
					}
				}
				room.mu.Unlock()
				for _, id := range stale {
					h.logger.Info("heartbeat timeout", zap.String("room", room.ID), zap.String("player", id))
					room.Disconnect(id)
				}
			}
		}
	}
}
