package server

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"duskwell/server/stats"
)

// bulletState is a live projectile. prevX/prevY hold the previous tick's
// position so collision can sweep the full segment traveled this tick.
type bulletState struct {
	ID      string
	OwnerID string
	X, Y    float64
	prevX   float64
	prevY   float64
	VX, VY  float64
	Life    float64
	Damage  float64

	Cone     bool
	NoDamage bool
	Pellet   bool
	Pierce   bool

	WeaponKind    string
	KnockForce    float64
	KnockDuration float64

	enemyOwned bool
	hitIDs     map[string]struct{}
}

const playerFireInterval = 0.25 // seconds at attack-speed multiplier 1.0

const (
	meleeSwingInterval = 0.6 // seconds at attack-speed multiplier 1.0
	meleePelletCount   = 5
	meleeHalfAngle     = 0.5 // radians to either side of the aim line
	meleePelletSpeed   = 900.0
	meleeReach         = 140.0
	meleeDamage        = 18.0
)

// updateFiring spawns bullets for players whose input requests fire and whose
// weapon cooldown has elapsed. Fire rate is driven by the resolved
// attack-speed multiplier, never by client-reported timing.
func (r *Room) updateFiring(dt float64) {
	for _, p := range r.players {
		if p.fireCooldown > 0 {
			p.fireCooldown -= dt
		}
		if p.meleeCooldown > 0 {
			p.meleeCooldown -= dt
		}
		if p.Dead || p.Downed || !p.input.Valid || !p.input.Firing {
			continue
		}
		if p.fireCooldown > 0 {
			continue
		}
		atkSpd := clamp(p.derived.AtkSpd, stats.AtkSpeedMin, stats.AtkSpeedMax)
		p.fireCooldown = playerFireInterval / atkSpd
		r.spawnPlayerBullet(p, p.input.AimAngle)
	}
}

func (r *Room) spawnPlayerBullet(p *playerState, angle float64) *bulletState {
	r.nextBulletID++
	b := &bulletState{
		ID:            fmt.Sprintf("bullet-%d", r.nextBulletID),
		OwnerID:       p.ID,
		X:             p.X,
		Y:             p.Y,
		prevX:         p.X,
		prevY:         p.Y,
		VX:            math.Cos(angle) * 1400,
		VY:            math.Sin(angle) * 1400,
		Life:          bulletMaxLife,
		Damage:        12,
		WeaponKind:    "pistol",
		KnockForce:    220,
		KnockDuration: 0.12,
		hitIDs:        make(map[string]struct{}),
	}
	r.bullets[b.ID] = b
	return b
}

// handleMeleeSwing spawns the cone attack as a fan of short-lived pellets.
// Only the pellet on the aim line carries damage; the outer pellets shove
// without hurting, so the wide arc controls space instead of stacking hits.
func (r *Room) handleMeleeSwing(p *playerState, angle float64) {
	if p.Dead || p.Downed || p.meleeCooldown > 0 {
		return
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return
	}
	atkSpd := clamp(p.derived.AtkSpd, stats.AtkSpeedMin, stats.AtkSpeedMax)
	p.meleeCooldown = meleeSwingInterval / atkSpd
	center := meleePelletCount / 2
	for i := 0; i < meleePelletCount; i++ {
		spread := (float64(i)/float64(meleePelletCount-1)*2 - 1) * meleeHalfAngle
		b := r.spawnPlayerBullet(p, angle+spread)
		b.VX = math.Cos(angle+spread) * meleePelletSpeed
		b.VY = math.Sin(angle+spread) * meleePelletSpeed
		b.Life = meleeReach / meleePelletSpeed
		b.Damage = meleeDamage
		b.Cone = true
		b.Pellet = true
		b.NoDamage = i != center
		b.WeaponKind = "melee"
		b.KnockForce = 320
		b.KnockDuration = 0.15
	}
}

func (r *Room) spawnEnemyBullet(enemy *enemyState, angle, speed, damage float64) *bulletState {
	r.nextBulletID++
	b := &bulletState{
		ID:         fmt.Sprintf("bullet-%d", r.nextBulletID),
		OwnerID:    enemy.ID,
		X:          enemy.X,
		Y:          enemy.Y,
		prevX:      enemy.X,
		prevY:      enemy.Y,
		VX:         math.Cos(angle) * speed,
		VY:         math.Sin(angle) * speed,
		Life:       bulletMaxLife,
		Damage:     damage,
		WeaponKind: "spine",
		enemyOwned: true,
		hitIDs:     make(map[string]struct{}),
	}
	r.bullets[b.ID] = b
	return b
}

// resolveBullets advances every bullet one tick and resolves swept collisions
// against players, hazards, and (in authoritative-enemy mode) enemies.
// Per-bullet hit sets keep piercing bullets from hitting the same target
// twice.
func (r *Room) resolveBullets(dt float64) {
	for id, b := range r.bullets {
		b.prevX, b.prevY = b.X, b.Y
		b.X += b.VX * dt
		b.Y += b.VY * dt
		b.Life -= dt

		if b.Life <= 0 || !r.env.IsInsideBounds(b.X, b.Y, -bulletRadius) {
			delete(r.bullets, id)
			continue
		}
		if r.env.CircleHitsAny(b.X, b.Y, bulletRadius) {
			delete(r.bullets, id)
			continue
		}

		if r.hazards.DamageAlongSegment(b.prevX, b.prevY, b.X, b.Y, b.Damage) && !b.Pierce {
			delete(r.bullets, id)
			continue
		}

		if r.resolveBulletAgainstActors(b) && !b.Pierce {
			delete(r.bullets, id)
		}
	}
}

func (r *Room) resolveBulletAgainstActors(b *bulletState) bool {
	hit := false

	if b.enemyOwned {
		for _, p := range r.players {
			if r.bulletHitsPlayer(b, p) {
				hit = true
				if !b.Pierce {
					return true
				}
			}
		}
		return hit
	}

	shooter := r.players[b.OwnerID]
	for _, p := range r.players {
		if p.ID == b.OwnerID {
			continue
		}
		if r.bulletHitsPlayerPvP(b, shooter, p) {
			hit = true
			if !b.Pierce {
				return true
			}
		}
	}

	for _, d := range r.dummies {
		if r.bulletHitsDummy(b, d) {
			hit = true
			if !b.Pierce {
				return true
			}
		}
	}

	if r.authoritativeEnemies() {
		for _, enemy := range r.enemies {
			if _, seen := b.hitIDs[enemy.ID]; seen {
				continue
			}
			if !segmentCircleHit(b.prevX, b.prevY, b.X, b.Y, enemy.X, enemy.Y, enemy.Radius+bulletRadius) {
				continue
			}
			b.hitIDs[enemy.ID] = struct{}{}
			if !b.NoDamage {
				damage, crit := r.rollDamage(b.Damage, shooter)
				r.damageEnemy(enemy, damage, b.OwnerID, crit)
			}
			hit = true
			if !b.Pierce {
				return true
			}
		}
	}
	return hit
}

func (r *Room) bulletHitsPlayer(b *bulletState, p *playerState) bool {
	if p.Dead || p.Downed {
		return false
	}
	if _, seen := b.hitIDs[p.ID]; seen {
		return false
	}
	if !segmentCircleHit(b.prevX, b.prevY, b.X, b.Y, p.X, p.Y, p.Radius+bulletRadius) {
		return false
	}
	b.hitIDs[p.ID] = struct{}{}
	if !b.NoDamage {
		r.applyDamage(p, b.Damage, b.OwnerID, false)
	}
	return true
}

// bulletHitsPlayerPvP applies the friendly-fire gate: damage only passes
// between players whose evil alignment differs. Same-alignment hits are
// silently dropped with no event.
func (r *Room) bulletHitsPlayerPvP(b *bulletState, shooter, target *playerState) bool {
	if target.Dead || target.Downed {
		return false
	}
	if _, seen := b.hitIDs[target.ID]; seen {
		return false
	}
	if !segmentCircleHit(b.prevX, b.prevY, b.X, b.Y, target.X, target.Y, target.Radius+bulletRadius) {
		return false
	}
	b.hitIDs[target.ID] = struct{}{}

	if shooter == nil || shooter.IsEvil == target.IsEvil {
		return false
	}
	if b.NoDamage {
		// Shove-only pellets push without hurting and emit no hit event.
		r.applyKnockback(target, b)
		return true
	}

	damage, crit := r.rollDamage(b.Damage, shooter)
	applied := r.applyDamage(target, damage, shooter.ID, crit)
	r.applyKnockback(target, b)

	r.queueEvent(pvpHitMessage{
		Type:      msgPvPHit,
		VictimID:  target.ID,
		ShooterID: shooter.ID,
		Damage:    applied,
		Crit:      crit,
		X:         target.X,
		Y:         target.Y,
	})
	return true
}

// rollDamage runs the pre-armor half of the damage pipeline: flat attack
// power, then the crit roll on the boosted value. Crit inputs are clamped at
// the point of use so corrupted stats cannot escape their ranges.
func (r *Room) rollDamage(base float64, attacker *playerState) (float64, bool) {
	damage := base
	crit := false
	if attacker != nil {
		damage += clamp(attacker.derived.AtkPwr, 0, stats.AtkPowerCap)
		chance := clamp(attacker.derived.CritChance, 0, 1)
		if chance > 0 && r.rng.Float64() < chance {
			crit = true
			damage *= clamp(attacker.derived.CritDmg, stats.CritDmgMin, stats.CritDmgMax)
		}
	}
	return damage, crit
}

// applyDamage is the single place player health is reduced. Armor mitigation
// caps at 75% regardless of the armor stat, and the death transition fires
// exactly once. Returns the post-mitigation amount actually applied.
func (r *Room) applyDamage(target *playerState, damage float64, sourceID string, crit bool) float64 {
	if target == nil || target.Dead || target.Downed || damage <= 0 ||
		math.IsNaN(damage) || math.IsInf(damage, 0) {
		return 0
	}
	damage *= 1 - stats.EffectiveReduction(target.derived.Armor)
	target.Health -= damage
	if target.Health <= 0 {
		target.Health = 0
		r.downPlayer(target, sourceID)
	}
	return damage
}

func (r *Room) damageEnemy(enemy *enemyState, damage float64, sourceID string, crit bool) {
	if enemy == nil || enemy.Health <= 0 || damage <= 0 {
		return
	}
	enemy.Health -= damage
	if enemy.Health <= 0 {
		enemy.Health = 0
		if p := r.players[sourceID]; p != nil {
			p.wallet.Ducats += enemyBounty(enemy.Kind)
		}
		// Dead enemies are removed from the map; their absence from the next
		// enemiesState broadcast is the removal signal to clients.
		delete(r.enemies, enemy.ID)
	}
}

func enemyBounty(kind EnemyKind) int {
	switch kind {
	case EnemyBigboy:
		return 12
	case EnemyBoss:
		return 150
	case EnemyWallguy:
		return 8
	default:
		return 3
	}
}

// applyKnockback nudges the victim along the bullet's travel direction. The
// cooldown is tracked on the victim per weapon kind so rapid hits from the
// same weapon cannot stun-lock.
func (r *Room) applyKnockback(target *playerState, b *bulletState) {
	if b.KnockForce <= 0 || b.KnockDuration <= 0 || b.WeaponKind == "" {
		return
	}
	if _, cooling := target.knockCooldowns[b.WeaponKind]; cooling {
		return
	}
	length := math.Hypot(b.VX, b.VY)
	if length == 0 {
		return
	}
	target.knockX = b.VX / length * b.KnockForce
	target.knockY = b.VY / length * b.KnockForce
	target.knockTimeLeft = b.KnockDuration
	target.knockCooldowns[b.WeaponKind] = knockbackCooldown
}

// downPlayer is the authoritative death transition: DOT stacks and burn VFX
// state are cleared here, and the loot-drop side effect fires exactly once.
func (r *Room) downPlayer(target *playerState, sourceID string) {
	target.Downed = true
	target.downedAt = time.Now()
	target.reviveMsLeft = reviveWindowMs
	r.clearDOTs(target)

	r.queueEvent(pvpKillMessage{Type: msgPvPKill, VictimID: target.ID, KillerID: sourceID})
	r.queueEvent(healthUpdateMessage{Type: msgPlayerHealthUpdate, ID: target.ID, Health: 0, HealthMax: target.derived.HealthMax})
	r.logger.Info("player downed",
		zap.String("player", target.ID),
		zap.String("source", sourceID),
	)
}

// updateRevives ticks the downed window. A living same-alignment player
// standing in reach revives; an expired window finalizes the death and drops
// the carried items.
func (r *Room) updateRevives(dt float64) {
	for _, p := range r.players {
		if !p.Downed || p.Dead {
			continue
		}
		p.reviveMsLeft -= dt * 1000
		helped := false
		for _, other := range r.players {
			if other.ID == p.ID || other.Dead || other.Downed || other.IsEvil != p.IsEvil {
				continue
			}
			if dist(p.X, p.Y, other.X, other.Y) <= p.Radius+other.Radius+30 {
				helped = true
				break
			}
		}
		if helped {
			if p.reviveReadyUntil.IsZero() {
				p.reviveReadyUntil = time.Now().Add(time.Duration(reviveHoldMs) * time.Millisecond)
			} else if !time.Now().Before(p.reviveReadyUntil) {
				p.Downed = false
				p.reviveReadyUntil = time.Time{}
				p.Health = p.derived.HealthMax * 0.3
				r.queueEvent(healthUpdateMessage{Type: msgPlayerHealthUpdate, ID: p.ID, Health: p.Health, HealthMax: p.derived.HealthMax})
			}
			continue
		}
		p.reviveReadyUntil = time.Time{}
		if p.reviveMsLeft <= 0 {
			p.reviveMsLeft = 0
			p.Dead = true
			p.Downed = false
			r.dropAllItems(p)
		}
	}
}
