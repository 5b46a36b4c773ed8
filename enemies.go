package server

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// EnemyKind is the closed set of enemy variants. Behavior dispatch switches
// over this tag; kind-specific state lives in the variant payload, never in
// optional shared fields.
type EnemyKind string

const (
	EnemyBasic      EnemyKind = "basic"
	EnemyBoomer     EnemyKind = "boomer"
	EnemyProjectile EnemyKind = "projectile"
	EnemyLicker     EnemyKind = "licker"
	EnemyBigboy     EnemyKind = "bigboy"
	EnemyWallguy    EnemyKind = "wallguy"
	EnemyBoss       EnemyKind = "boss"
	EnemyTurret     EnemyKind = "turret"
)

var enemyKinds = []EnemyKind{
	EnemyBasic, EnemyBoomer, EnemyProjectile, EnemyLicker,
	EnemyBigboy, EnemyWallguy, EnemyBoss, EnemyTurret,
}

// ValidEnemyKind reports whether the tag belongs to the closed variant set.
func ValidEnemyKind(kind EnemyKind) bool {
	for _, k := range enemyKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// alwaysVisible marks kinds that bypass interest filtering on broadcast.
func (k EnemyKind) alwaysVisible() bool {
	return k == EnemyBoss || k == EnemyTurret
}

// enemyVariant carries kind-specific mutable state.
type enemyVariant interface {
	kind() EnemyKind
}

type basicVariant struct{}

func (basicVariant) kind() EnemyKind { return EnemyBasic }

type boomerVariant struct {
	fuseLit float64 // seconds until detonation once triggered, 0 when unlit
}

func (boomerVariant) kind() EnemyKind { return EnemyBoomer }

type projectileVariant struct {
	reload float64
}

func (projectileVariant) kind() EnemyKind { return EnemyProjectile }

type lickerVariant struct {
	tentacleOut    bool
	tentacleTarget string
	retractIn      float64
}

func (lickerVariant) kind() EnemyKind { return EnemyLicker }

type bigboyVariant struct{}

func (bigboyVariant) kind() EnemyKind { return EnemyBigboy }

type wallguyVariant struct {
	anchored bool
}

func (wallguyVariant) kind() EnemyKind { return EnemyWallguy }

type bossVariant struct {
	enraged bool
}

func (bossVariant) kind() EnemyKind { return EnemyBoss }

type turretVariant struct {
	barrelAngle float64
	reload      float64
}

func (turretVariant) kind() EnemyKind { return EnemyTurret }

func newVariant(kind EnemyKind) enemyVariant {
	switch kind {
	case EnemyBoomer:
		return &boomerVariant{}
	case EnemyProjectile:
		return &projectileVariant{}
	case EnemyLicker:
		return &lickerVariant{}
	case EnemyBigboy:
		return &bigboyVariant{}
	case EnemyWallguy:
		return &wallguyVariant{}
	case EnemyBoss:
		return &bossVariant{}
	case EnemyTurret:
		return &turretVariant{}
	default:
		return basicVariant{}
	}
}

// enemyState is the authoritative server-side enemy record.
type enemyState struct {
	ID        string
	Kind      EnemyKind
	X, Y      float64
	Radius    float64
	Health    float64
	HealthMax float64
	Speed     float64
	TouchDPS  float64
	variant   enemyVariant
}

func (e *enemyState) snapshotView() EnemyView {
	view := EnemyView{
		ID:        e.ID,
		X:         e.X,
		Y:         e.Y,
		Type:      e.Kind,
		Health:    e.Health,
		HealthMax: e.HealthMax,
	}
	switch v := e.variant.(type) {
	case *lickerVariant:
		view.TentacleOut = v.tentacleOut
		view.TentacleID = v.tentacleTarget
	case *turretVariant:
		view.BarrelAngle = v.barrelAngle
	case *bossVariant:
		view.Enraged = v.enraged
	}
	return view
}

// enemyBaseStats is the per-kind tuning row. Rows can be overridden at boot
// from a YAML table; absent kinds keep the compiled-in defaults.
type enemyBaseStats struct {
	Health   float64 `yaml:"health"`
	Radius   float64 `yaml:"radius"`
	Speed    float64 `yaml:"speed"`
	TouchDPS float64 `yaml:"touchDps"`
}

var defaultEnemyStats = map[EnemyKind]enemyBaseStats{
	EnemyBasic:      {Health: 40, Radius: 22, Speed: 140, TouchDPS: 12},
	EnemyBoomer:     {Health: 30, Radius: 26, Speed: 110, TouchDPS: 0},
	EnemyProjectile: {Health: 35, Radius: 22, Speed: 90, TouchDPS: 6},
	EnemyLicker:     {Health: 70, Radius: 26, Speed: 120, TouchDPS: 10},
	EnemyBigboy:     {Health: 220, Radius: 48, Speed: 70, TouchDPS: 25},
	EnemyWallguy:    {Health: 160, Radius: 34, Speed: 55, TouchDPS: 8},
	EnemyBoss:       {Health: 1200, Radius: 80, Speed: 85, TouchDPS: 40},
	EnemyTurret:     {Health: 90, Radius: 30, Speed: 0, TouchDPS: 0},
}

// loadEnemyStats merges a YAML override table over the defaults.
func loadEnemyStats(path string) (map[EnemyKind]enemyBaseStats, error) {
	table := make(map[EnemyKind]enemyBaseStats, len(defaultEnemyStats))
	for kind, row := range defaultEnemyStats {
		table[kind] = row
	}
	if path == "" {
		return table, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read enemy stats %s: %w", path, err)
	}
	overrides := make(map[EnemyKind]enemyBaseStats)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse enemy stats %s: %w", path, err)
	}
	for kind, row := range overrides {
		if !ValidEnemyKind(kind) {
			return nil, fmt.Errorf("enemy stats %s: unknown kind %q", path, kind)
		}
		table[kind] = row
	}
	return table, nil
}

// updateEnemies runs the minimal per-kind steering when the room is in
// authoritative-enemy mode. Balance-grade AI lives outside this core; this
// keeps enemies moving, touching, and shooting enough to exercise combat.
func (r *Room) updateEnemies(dt float64) {
	for id, enemy := range r.enemies {
		if enemy.Health <= 0 {
			delete(r.enemies, id)
			continue
		}
		target := r.nearestLivingPlayer(enemy.X, enemy.Y)

		switch v := enemy.variant.(type) {
		case *boomerVariant:
			r.stepBoomer(enemy, v, target, dt)
		case *projectileVariant:
			r.stepRangedEnemy(enemy, v, target, dt)
		case *lickerVariant:
			r.stepLicker(enemy, v, target, dt)
		case *wallguyVariant:
			if !v.anchored {
				r.seekTarget(enemy, target, dt)
				if target == nil || dist(enemy.X, enemy.Y, target.X, target.Y) < 400 {
					v.anchored = true
				}
			}
		case *bossVariant:
			if !v.enraged && enemy.Health < enemy.HealthMax/2 {
				v.enraged = true
			}
			speed := enemy.Speed
			if v.enraged {
				enemy.Speed = speed * 1.5
			}
			r.seekTarget(enemy, target, dt)
			enemy.Speed = speed
		case *turretVariant:
			r.stepTurret(enemy, v, target, dt)
		default:
			r.seekTarget(enemy, target, dt)
		}

		if enemy.TouchDPS > 0 && target != nil {
			if dist(enemy.X, enemy.Y, target.X, target.Y) <= enemy.Radius+target.Radius {
				r.applyDamage(target, enemy.TouchDPS*dt, enemy.ID, false)
			}
		}
	}
}

func (r *Room) seekTarget(enemy *enemyState, target *playerState, dt float64) {
	if target == nil || enemy.Speed <= 0 {
		return
	}
	dx := target.X - enemy.X
	dy := target.Y - enemy.Y
	length := math.Hypot(dx, dy)
	if length < 1 {
		return
	}
	nx := enemy.X + dx/length*enemy.Speed*dt
	ny := enemy.Y + dy/length*enemy.Speed*dt
	if r.env.CircleHitsAny(nx, ny, enemy.Radius) {
		return
	}
	enemy.X, enemy.Y = r.env.ClampToBounds(nx, ny, enemy.Radius)
}

func (r *Room) stepBoomer(enemy *enemyState, v *boomerVariant, target *playerState, dt float64) {
	if v.fuseLit > 0 {
		v.fuseLit -= dt
		if v.fuseLit <= 0 {
			r.hazards.SpawnPool(enemy.X, enemy.Y, 140, 15, 6, enemy.ID)
			enemy.Health = 0
		}
		return
	}
	r.seekTarget(enemy, target, dt)
	if target != nil && dist(enemy.X, enemy.Y, target.X, target.Y) < enemy.Radius+target.Radius+40 {
		v.fuseLit = 0.9
	}
}

func (r *Room) stepRangedEnemy(enemy *enemyState, v *projectileVariant, target *playerState, dt float64) {
	v.reload -= dt
	if target == nil {
		return
	}
	d := dist(enemy.X, enemy.Y, target.X, target.Y)
	if d > 700 {
		r.seekTarget(enemy, target, dt)
		return
	}
	if v.reload <= 0 {
		angle := math.Atan2(target.Y-enemy.Y, target.X-enemy.X)
		r.spawnEnemyBullet(enemy, angle, 520, 8)
		v.reload = 1.6
	}
}

func (r *Room) stepLicker(enemy *enemyState, v *lickerVariant, target *playerState, dt float64) {
	if v.tentacleOut {
		v.retractIn -= dt
		victim := r.players[v.tentacleTarget]
		if victim == nil || victim.Dead || v.retractIn <= 0 ||
			dist(enemy.X, enemy.Y, victim.X, victim.Y) > 520 {
			v.tentacleOut = false
			v.tentacleTarget = ""
			if victim != nil {
				delete(victim.ensnares, enemy.ID)
			}
			return
		}
		victim.ensnares[enemy.ID] = 0.25
		return
	}
	r.seekTarget(enemy, target, dt)
	if target != nil && dist(enemy.X, enemy.Y, target.X, target.Y) < 380 {
		v.tentacleOut = true
		v.tentacleTarget = target.ID
		v.retractIn = 2.5
	}
}

func (r *Room) stepTurret(enemy *enemyState, v *turretVariant, target *playerState, dt float64) {
	v.reload -= dt
	if target == nil {
		return
	}
	v.barrelAngle = math.Atan2(target.Y-enemy.Y, target.X-enemy.X)
	if v.reload <= 0 && dist(enemy.X, enemy.Y, target.X, target.Y) < 900 {
		r.spawnEnemyBullet(enemy, v.barrelAngle, 640, 10)
		v.reload = 1.1
	}
}

func (r *Room) nearestLivingPlayer(x, y float64) *playerState {
	var best *playerState
	bestDist := math.MaxFloat64
	for _, p := range r.players {
		if p.Dead || p.Downed {
			continue
		}
		d := dist(x, y, p.X, p.Y)
		if d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}

// spawnEnemy materializes an enemy of the given kind at a position, letting
// the game mode adjust its stats before it enters the room maps.
func (r *Room) spawnEnemy(kind EnemyKind, x, y float64) *enemyState {
	row, ok := r.enemyStats[kind]
	if !ok {
		row = defaultEnemyStats[EnemyBasic]
	}
	r.nextEnemyID++
	enemy := &enemyState{
		ID:        fmt.Sprintf("enemy-%d", r.nextEnemyID),
		Kind:      kind,
		X:         x,
		Y:         y,
		Radius:    row.Radius,
		Health:    row.Health,
		HealthMax: row.Health,
		Speed:     row.Speed,
		TouchDPS:  row.TouchDPS,
		variant:   newVariant(kind),
	}
	r.mode.InitializeEnemyStats(enemy)
	r.enemies[enemy.ID] = enemy
	return enemy
}

// pickKind draws a kind from a ratio distribution.
func pickKind(rng *rand.Rand, ratios map[EnemyKind]float64) EnemyKind {
	total := 0.0
	for _, weight := range ratios {
		if weight > 0 {
			total += weight
		}
	}
	if total <= 0 {
		return EnemyBasic
	}
	roll := rng.Float64() * total
	for _, kind := range enemyKinds {
		weight := ratios[kind]
		if weight <= 0 {
			continue
		}
		roll -= weight
		if roll <= 0 {
			return kind
		}
	}
	return EnemyBasic
}
