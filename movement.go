package server

import "math"

// integratePlayers advances position, stamina, dash, and knockback for every
// player from their last received input. A player with no valid input this
// session simply regenerates stamina and drifts with any residual knockback.
func (r *Room) integratePlayers(dt float64) {
	for _, p := range r.players {
		r.integratePlayer(p, dt)
	}
}

func (r *Room) integratePlayer(p *playerState, dt float64) {
	// Status timers tick regardless of input.
	for attacker, left := range p.ensnares {
		left -= dt
		if left <= 0 {
			delete(p.ensnares, attacker)
		} else {
			p.ensnares[attacker] = left
		}
	}
	r.syncSlowState(p)

	for kind, left := range p.knockCooldowns {
		left -= dt
		if left <= 0 {
			delete(p.knockCooldowns, kind)
		} else {
			p.knockCooldowns[kind] = left
		}
	}

	if p.knockTimeLeft > 0 {
		p.knockTimeLeft -= dt
		nx := p.X + p.knockX*dt
		ny := p.Y + p.knockY*dt
		if !r.env.CircleHitsAny(nx, ny, p.Radius) {
			p.X, p.Y = r.env.ClampToBounds(nx, ny, p.Radius)
		}
	}

	if p.Dead || p.Downed {
		return
	}

	p.Stamina = math.Min(p.Stamina+staminaRegenPerSec*dt, p.derived.StaminaMax)

	in := p.input
	if !in.Valid {
		return
	}

	p.AimAngle = in.AimAngle

	dx, dy := in.MoveX, in.MoveY
	length := math.Hypot(dx, dy)
	if length > 1 {
		dx /= length
		dy /= length
	}

	speed := p.derived.MovSpd
	if p.ensnared() {
		speed *= ensnareSlowScale
	}

	// Dash consumes stamina once per input sequence, then boosts speed for a
	// short window.
	if in.Dashing && in.Sequence != p.lastDashSeq && p.Stamina >= dashStaminaCost {
		p.Stamina -= dashStaminaCost
		p.dashTimeLeft = dashDuration
		p.lastDashSeq = in.Sequence
	}
	if p.dashTimeLeft > 0 {
		p.dashTimeLeft -= dt
		speed *= dashSpeedBoost
	}

	if dx == 0 && dy == 0 {
		return
	}

	nx := p.X + dx*speed*dt
	ny := p.Y + dy*speed*dt

	// Per-axis resolution so sliding along an obstacle edge works.
	if r.env.CircleHitsAny(nx, p.Y, p.Radius) {
		nx = p.X
	}
	if r.env.CircleHitsAny(nx, ny, p.Radius) {
		ny = p.Y
	}
	p.X, p.Y = r.env.ClampToBounds(nx, ny, p.Radius)
}

// syncSlowState fires playerSlowState only on edge transitions.
func (r *Room) syncSlowState(p *playerState) {
	slowed := p.ensnared()
	if slowed == p.slowed {
		return
	}
	p.slowed = slowed
	r.queueEvent(slowStateMessage{Type: msgPlayerSlowState, ID: p.ID, Slowed: slowed})
}
