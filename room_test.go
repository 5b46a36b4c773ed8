package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"duskwell/server/internal/config"
	"duskwell/server/stats"
)

func testArmorItem() stats.Modifier {
	return stats.Modifier{Key: stats.KeyArmor, Bonus: 10}
}

// newTestRoom builds a room with a deterministic seed and no network. Tests
// drive ticks by calling advance directly; queued events stay in
// pendingEvents for inspection.
func newTestRoom(t *testing.T) *Room {
	t.Helper()
	cfg := config.Default()
	cfg.World.ObstacleCount = 0
	room, err := newRoom("room-test", "standard", 7, cfg, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("newRoom: %v", err)
	}
	return room
}

// addTestPlayer injects a player at a fixed position, bypassing spawn
// scatter so positions are predictable.
func addTestPlayer(t *testing.T, r *Room, id string, x, y float64) *playerState {
	t.Helper()
	p := newPlayerState(id, x, y)
	r.players[id] = p
	return p
}

// eventsOfType filters the room's pending event queue.
func eventsOfType[T any](r *Room) []T {
	var out []T
	for _, ev := range r.pendingEvents {
		if typed, ok := ev.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// wsPair upgrades one real websocket through a throwaway httptest server so
// subscriber code paths run against a live connection.
func wsPair(t *testing.T) (serverConn, clientConn *websocket.Conn) {
	t.Helper()
	accepted := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		accepted <- conn
	}))
	t.Cleanup(srv.Close)
	clientConn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { clientConn.Close() })
	serverConn = <-accepted
	t.Cleanup(func() { serverConn.Close() })
	return serverConn, clientConn
}

func TestReconnectKeepsSessionAlive(t *testing.T) {
	t.Parallel()

	torn := make(chan string, 1)
	cfg := config.Default()
	cfg.World.ObstacleCount = 0
	room, err := newRoom("room-reconnect", "standard", 7, cfg, zap.NewNop(), func(id string) {
		torn <- id
	})
	if err != nil {
		t.Fatalf("newRoom: %v", err)
	}
	id := room.Join()

	first, _ := wsPair(t)
	second, _ := wsPair(t)
	if sub, snap := room.subscribe(id, first); sub == nil || snap == nil {
		t.Fatal("first subscribe failed")
	}
	replacement, _ := room.subscribe(id, second)
	if replacement == nil {
		t.Fatal("reconnect subscribe failed")
	}

	// The replaced pump's cleanup must not touch the live session.
	room.disconnect(id, first)
	if _, alive := room.players[id]; !alive {
		t.Fatal("reconnect destroyed the player record")
	}
	if got := room.subscriberFor(id); got != replacement {
		t.Fatal("reconnect lost the live subscriber")
	}
	select {
	case <-torn:
		t.Fatal("stale pump exit emptied the room")
	default:
	}

	// The live connection's exit still tears the session down.
	room.disconnect(id, second)
	if _, alive := room.players[id]; alive {
		t.Fatal("expected the player removed on the live disconnect")
	}
	select {
	case <-torn:
	default:
		t.Fatal("expected onEmpty after the live disconnect")
	}
}

func TestFailedWriteUnregistersSubscriber(t *testing.T) {
	t.Parallel()

	room := newTestRoom(t)
	id := room.Join()
	serverConn, _ := wsPair(t)
	if sub, _ := room.subscribe(id, serverConn); sub == nil {
		t.Fatal("subscribe failed")
	}

	serverConn.Close()
	room.broadcastAll(unlockMessage{Type: msgUnlock, Token: "x"})

	if room.subscriberFor(id) != nil {
		t.Fatal("dead subscriber should be dropped on write failure")
	}
	if _, alive := room.players[id]; !alive {
		t.Fatal("a write failure must not remove the player record")
	}
}

func TestRoomTeardownOnLastDisconnect(t *testing.T) {
	t.Parallel()

	torn := make(chan string, 1)
	cfg := config.Default()
	cfg.World.ObstacleCount = 0
	room, err := newRoom("room-empty", "standard", 7, cfg, zap.NewNop(), func(id string) {
		torn <- id
	})
	if err != nil {
		t.Fatalf("newRoom: %v", err)
	}

	id := room.Join()
	if len(room.players) != 1 {
		t.Fatalf("expected one player after join, got %d", len(room.players))
	}
	room.Disconnect(id)

	select {
	case got := <-torn:
		if got != "room-empty" {
			t.Fatalf("teardown reported wrong room: %s", got)
		}
	default:
		t.Fatal("expected onEmpty to fire when the last player left")
	}
}

func TestDisconnectDropsCarriedItems(t *testing.T) {
	t.Parallel()

	room := newTestRoom(t)
	id := room.Join()
	p := room.players[id]
	p.addItem(testArmorItem())
	p.addItem(testArmorItem())

	room.Disconnect(id)

	if len(room.groundItems) != 2 {
		t.Fatalf("expected 2 ground items after disconnect, got %d", len(room.groundItems))
	}
	if _, stillThere := room.players[id]; stillThere {
		t.Fatal("player should be removed from the room map")
	}
}
