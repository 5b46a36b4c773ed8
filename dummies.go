package server

import "math"

// dummyState is a moving target dummy: an AI-independent entity that patrols
// a short path and soaks bullets so players can check their damage output.
// Dummies never die; their pool refills continuously.
type dummyState struct {
	ID      string
	X, Y    float64
	Radius  float64
	originX float64
	span    float64
	phase   float64
	Health  float64
}

const dummyHealthPool = 500.0

// updateDummies advances patrol motion and regenerates soaked damage.
func (r *Room) updateDummies(dt float64) {
	for _, d := range r.dummies {
		d.phase += dt
		d.X = d.originX + math.Sin(d.phase)*d.span
		d.Health = math.Min(d.Health+50*dt, dummyHealthPool)
	}
}

// bulletHitsDummy sweeps a bullet segment against a dummy.
func (r *Room) bulletHitsDummy(b *bulletState, d *dummyState) bool {
	if _, seen := b.hitIDs[d.ID]; seen {
		return false
	}
	if !segmentCircleHit(b.prevX, b.prevY, b.X, b.Y, d.X, d.Y, d.Radius+bulletRadius) {
		return false
	}
	b.hitIDs[d.ID] = struct{}{}
	if !b.NoDamage {
		damage, _ := r.rollDamage(b.Damage, r.players[b.OwnerID])
		d.Health = math.Max(0, d.Health-damage)
	}
	return true
}
