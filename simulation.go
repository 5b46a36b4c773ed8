package server

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// advance runs one simulation tick. The step order is a consistency contract:
// later steps depend on state the earlier ones produced this same tick (a
// bullet fired this tick is tested against positions already moved this
// tick). Each step is isolated so one bad frame in one system cannot kill the
// room's scheduler.
func (r *Room) advance(now time.Time, dt float64) {
	r.tick++
	r.lastTickAt = now

	r.runStep("timers", func() {
		r.updateSessionTimers(dt)
		r.updateRevives(dt)
	})
	r.runStep("mode", func() {
		r.mode.Update(r, dt)
		if r.authoritativeEnemies() {
			r.spawner.Update(dt)
		}
		r.hazards.Update(dt)
	})
	r.runStep("entities", func() {
		r.updateDummies(dt)
	})
	r.runStep("players", func() {
		r.integratePlayers(dt)
	})
	r.runStep("bullets", func() {
		r.updateFiring(dt)
		r.resolveBullets(dt)
	})
	r.runStep("dots", func() {
		r.tickDOTs(dt)
	})
	r.runStep("chests", func() {
		r.tickChests(dt)
	})
	if r.authoritativeEnemies() {
		r.runStep("enemies", func() {
			r.updateEnemies(dt)
		})
	}
	r.runStep("npcs", func() {
		r.updateNPCs(dt)
	})
}

// runStep executes one tick phase behind a recover barrier. A panicking step
// is logged and skipped; the session must survive a single bad frame.
func (r *Room) runStep(name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tick step panicked",
				zap.String("step", name),
				zap.Uint64("tick", r.tick),
				zap.Any("panic", rec),
			)
		}
	}()
	fn()
}

// updateSessionTimers counts the ready and extraction timers down and drives
// the scene transitions they complete into.
func (r *Room) updateSessionTimers(dt float64) {
	if r.ready.update(dt) {
		r.transitionToLevel()
	}
	if r.extraction.update(dt) {
		r.completeExtraction()
	}
}

// transitionToLevel swaps the lobby for a playable level: fresh enemies,
// chests, baseline defenses, and reset timers.
func (r *Room) transitionToLevel() {
	r.logger.Info("scene transition", zap.String("to", "level"), zap.Uint64("tick", r.tick))
	r.mode = newLevelMode(r.levelType, r.env.HalfExtent)
	r.resetSceneState()

	// Baseline population: boss plus static defenses, pre-placed outside the
	// tier bookkeeping so they never consume dynamic cap.
	boss := r.spawnEnemy(EnemyBoss, 0, -r.env.HalfExtent*0.6)
	r.spawner.MarkBaseline(boss.ID)
	for i := 0; i < 3; i++ {
		if x, y, ok := r.spawner.findScatterSpawn(); ok {
			turret := r.spawnEnemy(EnemyTurret, x, y)
			r.spawner.MarkBaseline(turret.ID)
		}
	}
	for i := 0; i < 2; i++ {
		if x, y, ok := r.spawner.findScatterSpawn(); ok {
			wallguy := r.spawnEnemy(EnemyWallguy, x, y)
			r.spawner.MarkBaseline(wallguy.ID)
		}
	}
	r.placeChests(6)
	for i := 0; i < 4; i++ {
		if x, y, ok := r.spawner.findScatterSpawn(); ok {
			r.hazards.PlaceProp(fmt.Sprintf("canister-%d", i+1), x, y)
		}
	}

	for _, p := range r.players {
		x, y := r.mode.PlayerSpawnPosition(r)
		p.X, p.Y = x, y
		p.Dead = false
		p.Downed = false
		p.Health = p.derived.HealthMax
		p.Stamina = p.derived.StaminaMax
	}
}

// completeExtraction pays out survivors and returns the room to the lobby.
func (r *Room) completeExtraction() {
	r.logger.Info("scene transition", zap.String("to", "lobby"), zap.Uint64("tick", r.tick))
	for _, p := range r.players {
		if !p.Dead {
			p.wallet.VictoryPoints++
			p.wallet.BloodMarkers += len(p.inventory)
		}
	}
	r.mode = lobbyMode{}
	r.resetSceneState()
	for _, p := range r.players {
		x, y := r.mode.PlayerSpawnPosition(r)
		p.X, p.Y = x, y
		p.Dead = false
		p.Downed = false
		p.Health = p.derived.HealthMax
		p.Stamina = p.derived.StaminaMax
	}
}

// resetSceneState clears everything a scene transition invalidates: timers,
// enemies, bullets, hazards, chests, DOT stacks, and spawner escalation.
func (r *Room) resetSceneState() {
	r.ready.reset()
	r.extraction.reset()
	r.enemies = make(map[string]*enemyState)
	r.bullets = make(map[string]*bulletState)
	r.chests = make(map[string]*chestState)
	r.hazards.reset()
	r.spawner.reset()
	for _, p := range r.players {
		r.clearDOTs(p)
		for id := range p.ensnares {
			delete(p.ensnares, id)
		}
	}
}

// authoritativeEnemies reports whether the current mode simulates enemies on
// the server.
func (r *Room) authoritativeEnemies() bool {
	return r.mode.AuthoritativeEnemies()
}
