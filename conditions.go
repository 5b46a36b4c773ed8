package server

// addDOT pushes an independent damage-over-time stack onto a player. Stacks
// from the same source do not merge; each ticks down on its own.
func (r *Room) addDOT(target *playerState, dps, duration float64, from string) {
	if target == nil || target.Dead || dps <= 0 || duration <= 0 {
		return
	}
	target.dots = append(target.dots, dotStack{DPS: dps, TimeLeft: duration, From: from})
	r.syncBurnState(target)
}

// tickDOTs advances every player's stack list and applies the summed DPS once
// per simulation tick. Expired stacks are dropped before damage so a stack
// whose time ran out this tick no longer contributes.
func (r *Room) tickDOTs(dt float64) {
	for _, p := range r.players {
		if len(p.dots) == 0 {
			if p.dotEventCooldown > 0 {
				p.dotEventCooldown -= dt
			}
			continue
		}

		live := p.dots[:0]
		for _, stack := range p.dots {
			stack.TimeLeft -= dt
			if stack.TimeLeft > 0 {
				live = append(live, stack)
			}
		}
		p.dots = live

		if p.dotEventCooldown > 0 {
			p.dotEventCooldown -= dt
		}

		total := p.totalDOTDPS()
		if total > 0 && !p.Dead && !p.Downed {
			applied := r.applyDamage(p, total*dt, dotSourceID(p), false)
			p.dotAccum += applied
			if p.dotAccum >= dotEventThreshold && p.dotEventCooldown <= 0 {
				r.queueEvent(healthUpdateMessage{
					Type:      msgPlayerHealthUpdate,
					ID:        p.ID,
					Health:    p.Health,
					HealthMax: p.derived.HealthMax,
				})
				p.dotAccum = 0
				p.dotEventCooldown = dotEventCooldown
			}
		}

		r.syncBurnState(p)
	}
}

// dotSourceID attributes the summed tick to the oldest live stack's owner.
func dotSourceID(p *playerState) string {
	for _, stack := range p.dots {
		if stack.TimeLeft > 0 && stack.From != "" {
			return stack.From
		}
	}
	return p.ID
}

// syncBurnState emits the burn VFX event only on had-DOT/no-DOT edges, never
// every tick.
func (r *Room) syncBurnState(p *playerState) {
	burning := p.totalDOTDPS() > 0 && !p.Dead
	if burning == p.burning {
		return
	}
	p.burning = burning
	r.queueEvent(vfxEventMessage{
		Type:   msgVFXEvent,
		Name:   "burnStateChanged",
		ID:     p.ID,
		Active: burning,
	})
}

// clearDOTs wipes all stacks and the burn flag; used on death and scene
// transitions.
func (r *Room) clearDOTs(p *playerState) {
	if len(p.dots) > 0 {
		p.dots = p.dots[:0]
	}
	p.dotAccum = 0
	r.syncBurnState(p)
}
