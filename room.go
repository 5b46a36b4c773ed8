package server

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"duskwell/server/internal/config"
)

// Room is one isolated multiplayer session: it exclusively owns its entity
// maps, timers, and the three scheduling loops that drive them. Managers
// receive the room at construction instead of reaching for global state.
type Room struct {
	ID        string
	cfg       *config.Config
	logger    *zap.Logger
	levelType string
	seed      int64

	mu          sync.Mutex
	env         *Environment
	mode        GameMode
	rng         *rand.Rand
	tick        uint64
	lastTickAt  time.Time
	players     map[string]*playerState
	enemies     map[string]*enemyState
	bullets     map[string]*bulletState
	dummies     map[string]*dummyState
	npcs        map[string]*npcState
	groundItems map[string]*groundItemState
	chests      map[string]*chestState
	hazards     *HazardManager
	spawner     *AmbientSpawner
	enemyStats  map[EnemyKind]enemyBaseStats

	ready      gameTimer
	extraction gameTimer

	broadcastCount   uint64
	lastBroadcast    map[string]PlayerView
	lastEnemyRefresh time.Time

	nextPlayerSeq    uint64
	nextEnemyID      uint64
	nextBulletID     uint64
	nextGroundItemID uint64

	pendingEvents []any

	subscribers map[string]*subscriber
	stop        chan struct{}
	onEmpty     func(roomID string)
}

// subscriber serializes writes to one websocket connection.
type subscriber struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

// newRoom wires every manager to the room context and seeds the world.
func newRoom(id, levelType string, seed int64, cfg *config.Config, logger *zap.Logger, onEmpty func(string)) (*Room, error) {
	enemyStats, err := loadEnemyStats(cfg.World.EnemyStatsFile)
	if err != nil {
		return nil, err
	}
	tiers, err := loadSpawnTiers(cfg.World.TierFile)
	if err != nil {
		return nil, err
	}

	r := &Room{
		ID:            id,
		cfg:           cfg,
		logger:        logger.With(zap.String("room", id)),
		levelType:     levelType,
		seed:          seed,
		env:           NewEnvironment(cfg.World.HalfExtent, cfg.World.ObstacleCount, seed),
		mode:          lobbyMode{},
		rng:           rand.New(rand.NewSource(seed)),
		players:       make(map[string]*playerState),
		enemies:       make(map[string]*enemyState),
		bullets:       make(map[string]*bulletState),
		dummies:       make(map[string]*dummyState),
		npcs:          make(map[string]*npcState),
		groundItems:   make(map[string]*groundItemState),
		chests:        make(map[string]*chestState),
		enemyStats:    enemyStats,
		lastBroadcast: make(map[string]PlayerView),
		subscribers:   make(map[string]*subscriber),
		stop:          make(chan struct{}),
		onEmpty:       onEmpty,
	}
	r.hazards = newHazardManager(r)
	r.spawner = newAmbientSpawner(r, tiers, r.rng)
	r.lastEnemyRefresh = time.Now()

	// Lobby furniture: target dummies and idle NPCs.
	r.dummies["dummy-1"] = &dummyState{ID: "dummy-1", X: 300, Y: 0, originX: 300, span: 120, Radius: 26, Health: dummyHealthPool}
	r.dummies["dummy-2"] = &dummyState{ID: "dummy-2", X: -300, Y: 120, originX: -300, span: 60, Radius: 26, Health: dummyHealthPool}
	r.npcs["npc-handler"] = &npcState{ID: "npc-handler", X: 0, Y: -220, homeX: 0, homeY: -220}
	return r, nil
}

// start launches the three independent cadences. They share no phase; each
// keeps its own due time and fast-forwards independently when behind.
func (r *Room) start() {
	tickInterval := time.Second / time.Duration(r.cfg.Loop.TickRate)
	broadcastInterval := time.Second / time.Duration(r.cfg.Loop.BroadcastRate)
	lowInterval := time.Second / time.Duration(r.cfg.Loop.LowPriorityRate)
	dt := tickInterval.Seconds()

	go runLoop(tickInterval, r.stop, func(now time.Time) {
		r.mu.Lock()
		r.advance(now, dt)
		events := r.drainEventsLocked()
		r.mu.Unlock()
		r.broadcastAll(events...)
	})
	go runLoop(broadcastInterval, r.stop, func(now time.Time) {
		r.mu.Lock()
		msg := r.buildGameState()
		r.mu.Unlock()
		r.broadcastAll(msg)
	})
	go runLoop(lowInterval, r.stop, func(now time.Time) {
		r.broadcastLowPriority(now)
	})
}

// destroy cancels all loop handles; no callback fires afterwards.
func (r *Room) destroy() {
	close(r.stop)
	r.logger.Info("room destroyed")
}

// Join admits a player, picks a server-side spawn position honoring the
// current mode, and returns the id. The caller follows up with subscribe.
func (r *Room) Join() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextPlayerID()
	x, y := r.mode.PlayerSpawnPosition(r)
	p := newPlayerState(id, x, y)
	p.IsEvil = len(r.players)%4 == 3 // every fourth joiner seeds the opposing side
	r.players[id] = p
	r.logger.Info("player joined", zap.String("player", id))
	return id
}

// subscribe attaches a websocket to an admitted player and hands back the
// synchronous full-room snapshot, independent of any broadcast cadence.
func (r *Room) subscribe(playerID string, conn *websocket.Conn) (*subscriber, *roomSnapshotMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return nil, nil
	}
	p.lastHeartbeat = time.Now()
	if existing, ok := r.subscribers[playerID]; ok {
		existing.conn.Close()
	}
	timeout := r.cfg.Server.WriteTimeout
	if timeout <= 0 {
		timeout = writeWait
	}
	sub := &subscriber{conn: conn, writeTimeout: timeout}
	r.subscribers[playerID] = sub
	snapshot := r.buildRoomSnapshot(playerID)
	return sub, &snapshot
}

// Disconnect drops the carried items, removes the player, and tears the room
// down when it empties.
func (r *Room) Disconnect(playerID string) {
	r.disconnect(playerID, nil)
}

// disconnect is the connection-aware teardown path. A non-nil conn restricts
// the teardown to the connection still registered for the player, so a read
// pump whose socket was replaced by a reconnect exits without touching the
// live session.
func (r *Room) disconnect(playerID string, conn *websocket.Conn) {
	r.mu.Lock()
	if conn != nil {
		if sub, ok := r.subscribers[playerID]; ok && sub.conn != conn {
			r.mu.Unlock()
			return
		}
	}
	p, ok := r.players[playerID]
	if ok {
		r.dropAllItems(p)
		delete(r.players, playerID)
	}
	if sub, ok := r.subscribers[playerID]; ok {
		sub.conn.Close()
		delete(r.subscribers, playerID)
	}
	empty := len(r.players) == 0
	r.mu.Unlock()

	if ok {
		r.logger.Info("player left", zap.String("player", playerID))
	}
	if empty && r.onEmpty != nil {
		r.onEmpty(r.ID)
	}
}

// HandleInput records the last input for a player. Malformed input is
// skipped entirely — the player simply does not move this tick.
func (r *Room) HandleInput(playerID string, msg clientMessage) {
	if math.IsNaN(msg.MoveX) || math.IsNaN(msg.MoveY) || math.IsNaN(msg.AimAngle) ||
		math.IsInf(msg.MoveX, 0) || math.IsInf(msg.MoveY, 0) || math.IsInf(msg.AimAngle, 0) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return
	}
	if msg.Sequence < p.input.Sequence {
		return // stale packet arrived out of order
	}
	p.input = playerInput{
		Sequence: msg.Sequence,
		MoveX:    msg.MoveX,
		MoveY:    msg.MoveY,
		AimAngle: msg.AimAngle,
		Firing:   msg.Firing,
		Dashing:  msg.Dashing,
		Valid:    true,
	}
}

// HandleRequest routes non-input client messages (pickups, drops, chests,
// ready votes) into the room under its lock.
func (r *Room) HandleRequest(playerID string, msg clientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	if !ok {
		return
	}
	switch msg.Type {
	case "pickupItem":
		r.handlePickup(p, msg.ItemID)
	case "dropItem":
		r.handleDrop(p, msg.ItemIndex)
	case "openChest":
		r.handleChestOpen(p, msg.ChestID)
	case "meleeSwing":
		r.handleMeleeSwing(p, msg.AimAngle)
	case "startReady":
		if r.mode.Name() == "lobby" {
			r.ready.start(readyTimerSeconds, playerID)
		}
	}
}

// Heartbeat updates connectivity bookkeeping for a player.
func (r *Room) Heartbeat(playerID string, rtt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[playerID]; ok {
		p.lastHeartbeat = time.Now()
		p.lastRTT = rtt
	}
}

// BroadcastUnlock relays an unlock event to every socket in the room. This is
// the entire contract with the external unlock bridge.
func (r *Room) BroadcastUnlock(token string) {
	r.broadcastAll(unlockMessage{Type: msgUnlock, Token: token})
}

func (r *Room) subscriberFor(playerID string) *subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribers[playerID]
}

// queueEvent stages a message for broadcast after the current tick completes.
// Events never go out mid-mutation.
func (r *Room) queueEvent(msg any) {
	r.pendingEvents = append(r.pendingEvents, msg)
}

func (r *Room) drainEventsLocked() []any {
	if len(r.pendingEvents) == 0 {
		return nil
	}
	events := r.pendingEvents
	r.pendingEvents = nil
	return events
}

// broadcastAll marshals each message once and fans it out to every
// subscriber. A failed write drops the subscriber immediately so the room
// stops marshaling for a dead socket.
func (r *Room) broadcastAll(msgs ...any) {
	if len(msgs) == 0 {
		return
	}
	r.mu.Lock()
	subs := make(map[string]*subscriber, len(r.subscribers))
	for id, sub := range r.subscribers {
		subs[id] = sub
	}
	r.mu.Unlock()

	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			r.logger.Warn("marshal broadcast", zap.Error(err))
			continue
		}
		for id, sub := range subs {
			if sub.send(data) != nil {
				r.unregisterSubscriber(id, sub)
				delete(subs, id)
			}
		}
	}
}

// unregisterSubscriber removes a dead subscriber if it is still the one
// registered for the player. The player record stays; the read pump or the
// heartbeat watchdog finishes the disconnect.
func (r *Room) unregisterSubscriber(playerID string, sub *subscriber) {
	r.mu.Lock()
	if r.subscribers[playerID] == sub {
		delete(r.subscribers, playerID)
	}
	r.mu.Unlock()
}

func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	err := s.conn.WriteMessage(websocket.TextMessage, data)
	if err != nil {
		s.conn.Close()
	}
	return err
}

// broadcastLowPriority ships timers plus enemy state. Enemies go out
// interest-filtered per player, except when the periodic full refresh is due,
// which bypasses the filter for the whole room to guarantee eventual
// consistency.
func (r *Room) broadcastLowPriority(now time.Time) {
	r.mu.Lock()
	timers := timersMessage{
		Type:       "timers",
		ReadyTimer: r.ready.view(),
		Extraction: r.extraction.view(),
		Scene:      r.mode.Name(),
		Alive:      len(r.enemies),
	}
	fullDue := r.enemyRefreshDue(now)
	var full []EnemyView
	perPlayer := make(map[string][]EnemyView)
	if fullDue {
		full = r.allEnemyViews()
	} else {
		for id, p := range r.players {
			perPlayer[id] = r.enemyViewsFor(p)
		}
	}
	subs := make(map[string]*subscriber, len(r.subscribers))
	for id, sub := range r.subscribers {
		subs[id] = sub
	}
	r.mu.Unlock()

	timersData, err := json.Marshal(timers)
	if err != nil {
		r.logger.Warn("marshal timers", zap.Error(err))
		return
	}
	if fullDue {
		data, err := json.Marshal(enemiesStateMessage{Type: msgEnemiesState, Enemies: full, Full: true})
		if err != nil {
			r.logger.Warn("marshal enemies", zap.Error(err))
			return
		}
		for id, sub := range subs {
			if sub.send(timersData) != nil || sub.send(data) != nil {
				r.unregisterSubscriber(id, sub)
			}
		}
		return
	}
	for id, sub := range subs {
		if sub.send(timersData) != nil {
			r.unregisterSubscriber(id, sub)
			continue
		}
		data, err := json.Marshal(enemiesStateMessage{Type: msgEnemiesState, Enemies: perPlayer[id]})
		if err != nil {
			r.logger.Warn("marshal enemies", zap.Error(err))
			continue
		}
		if sub.send(data) != nil {
			r.unregisterSubscriber(id, sub)
		}
	}
}

// exclusionZones derives the circles spawns must avoid: extraction zones, the
// boss, and the golden chest. Recomputed per query, never stored.
func (r *Room) exclusionZones() []ExclusionZone {
	var zones []ExclusionZone
	if level, ok := r.mode.(*levelMode); ok {
		zones = append(zones, level.extractionZones...)
	}
	for _, enemy := range r.enemies {
		if enemy.Kind == EnemyBoss {
			zones = append(zones, ExclusionZone{X: enemy.X, Y: enemy.Y, Radius: 800})
		}
	}
	for _, chest := range r.chests {
		if chest.Golden && !chest.Opened {
			zones = append(zones, ExclusionZone{X: chest.X, Y: chest.Y, Radius: 500})
		}
	}
	return zones
}

// scatterNearOrigin finds a clear position near the center for lobby spawns.
func (r *Room) scatterNearOrigin(radius float64) (float64, float64) {
	for attempt := 0; attempt < spawnAttemptBudget; attempt++ {
		x := (r.rng.Float64()*2 - 1) * radius
		y := (r.rng.Float64()*2 - 1) * radius
		if !r.env.CircleHitsAny(x, y, playerRadius) {
			return x, y
		}
	}
	return 0, 0
}

func (r *Room) nextPlayerID() string {
	r.nextPlayerSeq++
	return fmt.Sprintf("player-%d", r.nextPlayerSeq)
}
