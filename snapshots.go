package server

import (
	"math"
	"time"
)

// buildGameState produces the next player-state broadcast. Every Nth call
// emits a full snapshot as the correctness backstop for lost deltas; the rest
// carry per-player sparse diffs against the last broadcast cache. The cache
// is updated to the just-sent values either way.
func (r *Room) buildGameState() gameStateMessage {
	r.broadcastCount++
	full := r.broadcastCount%uint64(r.cfg.Loop.FullSnapshotEvery) == 0 || len(r.lastBroadcast) == 0

	msg := gameStateMessage{Type: msgGameState, Tick: r.tick, Full: full}
	seen := make(map[string]struct{}, len(r.players))

	for id, p := range r.players {
		view := p.snapshotView()
		seen[id] = struct{}{}
		if full {
			msg.Players = append(msg.Players, view)
		} else if delta := diffPlayerView(r.lastBroadcast[id], view); len(delta) > 1 {
			msg.Deltas = append(msg.Deltas, delta)
		}
		r.lastBroadcast[id] = view
	}

	// A cached player no longer in the room is reported as removed once.
	for id := range r.lastBroadcast {
		if _, ok := seen[id]; !ok {
			if !full {
				msg.Deltas = append(msg.Deltas, map[string]any{"id": id, "removed": true})
			}
			delete(r.lastBroadcast, id)
		}
	}
	return msg
}

// diffPlayerView compares against the cached view and emits only fields that
// moved beyond their threshold: position 0.1 units, angles 0.01 rad, exact
// inequality for everything else. The id field is always present.
func diffPlayerView(prev, cur PlayerView) map[string]any {
	delta := map[string]any{"id": cur.ID}
	if math.Abs(cur.X-prev.X) > deltaPosEpsilon {
		delta["x"] = cur.X
	}
	if math.Abs(cur.Y-prev.Y) > deltaPosEpsilon {
		delta["y"] = cur.Y
	}
	if math.Abs(cur.AimAngle-prev.AimAngle) > deltaAngleEpsilon {
		delta["aimAngle"] = cur.AimAngle
	}
	if cur.Radius != prev.Radius {
		delta["radius"] = cur.Radius
	}
	if cur.Health != prev.Health {
		delta["health"] = cur.Health
	}
	if cur.HealthMax != prev.HealthMax {
		delta["healthMax"] = cur.HealthMax
	}
	if cur.Stamina != prev.Stamina {
		delta["stamina"] = cur.Stamina
	}
	if cur.StaminaMax != prev.StaminaMax {
		delta["staminaMax"] = cur.StaminaMax
	}
	if cur.MovSpd != prev.MovSpd {
		delta["movSpd"] = cur.MovSpd
	}
	if cur.Armor != prev.Armor {
		delta["armor"] = cur.Armor
	}
	if cur.AtkSpd != prev.AtkSpd {
		delta["atkSpd"] = cur.AtkSpd
	}
	if cur.AtkPwr != prev.AtkPwr {
		delta["atkPwr"] = cur.AtkPwr
	}
	if cur.CritChance != prev.CritChance {
		delta["critChance"] = cur.CritChance
	}
	if cur.CritDmg != prev.CritDmg {
		delta["critDmg"] = cur.CritDmg
	}
	if cur.IsEvil != prev.IsEvil {
		delta["isEvil"] = cur.IsEvil
	}
	if cur.Dead != prev.Dead {
		delta["dead"] = cur.Dead
	}
	if cur.Downed != prev.Downed {
		delta["downed"] = cur.Downed
	}
	if cur.ReviveMsLeft != prev.ReviveMsLeft {
		delta["reviveMsLeft"] = cur.ReviveMsLeft
	}
	if cur.Burning != prev.Burning {
		delta["burning"] = cur.Burning
	}
	if cur.Slowed != prev.Slowed {
		delta["slowed"] = cur.Slowed
	}
	if cur.Ducats != prev.Ducats {
		delta["ducats"] = cur.Ducats
	}
	if cur.BloodMarkers != prev.BloodMarkers {
		delta["bloodMarkers"] = cur.BloodMarkers
	}
	if cur.VictoryPoints != prev.VictoryPoints {
		delta["victoryPoints"] = cur.VictoryPoints
	}
	if cur.InputSeq != prev.InputSeq {
		delta["lastProcessedInputSeq"] = cur.InputSeq
	}
	return delta
}

// applyPlayerDelta folds a sparse diff back onto a view. The client performs
// the same merge; keeping the inverse next to the diff pins the two in sync.
func applyPlayerDelta(view *PlayerView, delta map[string]any) {
	for key, raw := range delta {
		switch key {
		case "id":
			view.ID = raw.(string)
		case "x":
			view.X = raw.(float64)
		case "y":
			view.Y = raw.(float64)
		case "aimAngle":
			view.AimAngle = raw.(float64)
		case "radius":
			view.Radius = raw.(float64)
		case "health":
			view.Health = raw.(float64)
		case "healthMax":
			view.HealthMax = raw.(float64)
		case "stamina":
			view.Stamina = raw.(float64)
		case "staminaMax":
			view.StaminaMax = raw.(float64)
		case "movSpd":
			view.MovSpd = raw.(float64)
		case "armor":
			view.Armor = raw.(float64)
		case "atkSpd":
			view.AtkSpd = raw.(float64)
		case "atkPwr":
			view.AtkPwr = raw.(float64)
		case "critChance":
			view.CritChance = raw.(float64)
		case "critDmg":
			view.CritDmg = raw.(float64)
		case "isEvil":
			view.IsEvil = raw.(bool)
		case "dead":
			view.Dead = raw.(bool)
		case "downed":
			view.Downed = raw.(bool)
		case "reviveMsLeft":
			view.ReviveMsLeft = raw.(float64)
		case "burning":
			view.Burning = raw.(bool)
		case "slowed":
			view.Slowed = raw.(bool)
		case "ducats":
			view.Ducats = raw.(int)
		case "bloodMarkers":
			view.BloodMarkers = raw.(int)
		case "victoryPoints":
			view.VictoryPoints = raw.(int)
		case "lastProcessedInputSeq":
			view.InputSeq = raw.(uint64)
		}
	}
}

// enemyViewsFor builds the interest-filtered enemy list for one player:
// always-visible kinds unconditionally, everything else only within the
// interest radius. Dead enemies are already gone from the map, so omission
// doubles as the removal signal.
func (r *Room) enemyViewsFor(p *playerState) []EnemyView {
	views := make([]EnemyView, 0, len(r.enemies))
	for _, enemy := range r.enemies {
		if !enemy.Kind.alwaysVisible() && dist(enemy.X, enemy.Y, p.X, p.Y) > r.cfg.World.InterestRadius {
			continue
		}
		views = append(views, enemy.snapshotView())
	}
	return views
}

// allEnemyViews is the unfiltered list used by the periodic full refresh and
// the join snapshot.
func (r *Room) allEnemyViews() []EnemyView {
	views := make([]EnemyView, 0, len(r.enemies))
	for _, enemy := range r.enemies {
		views = append(views, enemy.snapshotView())
	}
	return views
}

// enemyRefreshDue reports whether the wall-clock full-list rebroadcast is due
// and stamps the cycle when it is.
func (r *Room) enemyRefreshDue(now time.Time) bool {
	if now.Sub(r.lastEnemyRefresh) < r.cfg.Loop.EnemyRefresh {
		return false
	}
	r.lastEnemyRefresh = now
	return true
}

// buildRoomSnapshot assembles the one-shot full state a joining socket
// receives synchronously, independent of the broadcast cadences.
func (r *Room) buildRoomSnapshot(selfID string) roomSnapshotMessage {
	players := make([]PlayerView, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p.snapshotView())
	}
	return roomSnapshotMessage{
		Type:        msgRoomSnapshot,
		ID:          selfID,
		Scene:       r.mode.Name(),
		Boundary:    r.env.HalfExtent,
		Seed:        r.seed,
		Obstacles:   r.env.Obstacles,
		ReadyTimer:  r.ready.view(),
		Extraction:  r.extraction.view(),
		Hazards:     r.hazards.snapshotViews(),
		Enemies:     r.allEnemyViews(),
		GroundItems: r.groundItemViews(),
		Players:     players,
	}
}
