package server

import (
	"time"

	"duskwell/server/stats"
)

// dotStack is one independent damage-over-time contribution.
type dotStack struct {
	DPS      float64
	TimeLeft float64
	From     string
}

// playerInput is the last input record received from a client.
type playerInput struct {
	Sequence uint64
	MoveX    float64
	MoveY    float64
	AimAngle float64
	Firing   bool
	Dashing  bool
	Valid    bool
}

type wallet struct {
	Ducats        int
	BloodMarkers  int
	VictoryPoints int
}

// playerState is the authoritative server-side player record. The wire view
// is produced by snapshotView; nothing here is trusted from the client.
type playerState struct {
	ID     string
	X, Y   float64
	Radius float64

	Health    float64
	Stamina   float64
	base      stats.Base
	derived   stats.Derived
	inventory []stats.Modifier
	IsEvil    bool
	AimAngle  float64

	Dead             bool
	Downed           bool
	downedAt         time.Time
	reviveMsLeft     float64
	reviveReadyUntil time.Time

	wallet wallet

	dots             []dotStack
	burning          bool
	dotAccum         float64
	dotEventCooldown float64

	ensnares map[string]float64 // attacker id → seconds remaining
	slowed   bool

	knockX, knockY float64
	knockTimeLeft  float64
	knockCooldowns map[string]float64 // weapon kind → seconds until next knockback allowed

	input         playerInput
	lastDashSeq   uint64
	dashTimeLeft  float64
	fireCooldown  float64
	meleeCooldown float64

	lastHeartbeat time.Time
	lastRTT       time.Duration
}

func newPlayerState(id string, x, y float64) *playerState {
	p := &playerState{
		ID:     id,
		X:      x,
		Y:      y,
		Radius: playerRadius,
		base: stats.Base{
			HealthMax:  playerBaseHealth,
			StaminaMax: playerBaseStamina,
			MovSpd:     playerBaseSpeed,
			AtkSpd:     playerBaseAtkSpd,
			AtkPwr:     playerBaseAtkPwr,
			CritChance: playerBaseCrit,
			CritDmg:    playerBaseCritDmg,
		},
		ensnares:       make(map[string]float64),
		knockCooldowns: make(map[string]float64),
		lastHeartbeat:  time.Now(),
	}
	p.derived, _ = stats.Resolve(p.base, nil, id)
	p.Health = p.derived.HealthMax
	p.Stamina = p.derived.StaminaMax
	return p
}

// recomputeStats re-derives the stat block from the inventory. Heal-on-pickup
// grants apply once; shrinking caps clamp the live pools down.
func (p *playerState) recomputeStats() {
	derived, heal := stats.Resolve(p.base, p.inventory, p.ID)
	p.derived = derived
	if heal > 0 && !p.Dead {
		p.Health += heal
	}
	if p.Health > p.derived.HealthMax {
		p.Health = p.derived.HealthMax
	}
	if p.Health < 0 {
		p.Health = 0
	}
	if p.Stamina > p.derived.StaminaMax {
		p.Stamina = p.derived.StaminaMax
	}
}

// addItem appends a modifier item and re-resolves the stat block.
func (p *playerState) addItem(item stats.Modifier) {
	p.inventory = append(p.inventory, item)
	p.recomputeStats()
}

// removeItemAt drops the item at index i, returning it for ground placement.
func (p *playerState) removeItemAt(i int) (stats.Modifier, bool) {
	if i < 0 || i >= len(p.inventory) {
		return stats.Modifier{}, false
	}
	item := p.inventory[i]
	p.inventory = append(p.inventory[:i], p.inventory[i+1:]...)
	p.recomputeStats()
	return item, true
}

// totalDOTDPS sums the live stacks.
func (p *playerState) totalDOTDPS() float64 {
	total := 0.0
	for _, stack := range p.dots {
		if stack.TimeLeft > 0 {
			total += stack.DPS
		}
	}
	return total
}

// ensnared reports whether any attacker currently restricts movement.
func (p *playerState) ensnared() bool {
	return len(p.ensnares) > 0
}

func (p *playerState) snapshotView() PlayerView {
	return PlayerView{
		ID:            p.ID,
		X:             p.X,
		Y:             p.Y,
		AimAngle:      p.AimAngle,
		Radius:        p.Radius,
		Health:        p.Health,
		HealthMax:     p.derived.HealthMax,
		Stamina:       p.Stamina,
		StaminaMax:    p.derived.StaminaMax,
		MovSpd:        p.derived.MovSpd,
		Armor:         p.derived.Armor,
		AtkSpd:        p.derived.AtkSpd,
		AtkPwr:        p.derived.AtkPwr,
		CritChance:    p.derived.CritChance,
		CritDmg:       p.derived.CritDmg,
		IsEvil:        p.IsEvil,
		Dead:          p.Dead,
		Downed:        p.Downed,
		ReviveMsLeft:  p.reviveMsLeft,
		Burning:       p.burning,
		Slowed:        p.slowed,
		Ducats:        p.wallet.Ducats,
		BloodMarkers:  p.wallet.BloodMarkers,
		VictoryPoints: p.wallet.VictoryPoints,
		InputSeq:      p.input.Sequence,
	}
}
