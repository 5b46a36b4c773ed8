package server

import "fmt"

// hazardPool is a lingering damage circle (boomer detonations, burst
// canisters). Players standing inside keep a short DOT stack refreshed.
type hazardPool struct {
	ID       string
	X, Y     float64
	Radius   float64
	DPS      float64
	TimeLeft float64
	OwnerID  string
}

// hazardProp is a destructible placed object that bullets can detonate.
type hazardProp struct {
	ID     string
	X, Y   float64
	Radius float64
	Health float64
}

// HazardManager owns damage pools and destructible props for one room. The
// combat engine only sees its two contract methods: Update and
// DamageAlongSegment.
type HazardManager struct {
	room       *Room
	pools      map[string]*hazardPool
	props      map[string]*hazardProp
	nextPoolID uint64
}

func newHazardManager(room *Room) *HazardManager {
	return &HazardManager{
		room:  room,
		pools: make(map[string]*hazardPool),
		props: make(map[string]*hazardProp),
	}
}

// SpawnPool places a damage circle; used by boomer detonations.
func (h *HazardManager) SpawnPool(x, y, radius, dps, duration float64, owner string) *hazardPool {
	h.nextPoolID++
	pool := &hazardPool{
		ID:       fmt.Sprintf("pool-%d", h.nextPoolID),
		X:        x,
		Y:        y,
		Radius:   radius,
		DPS:      dps,
		TimeLeft: duration,
		OwnerID:  owner,
	}
	h.pools[pool.ID] = pool
	return pool
}

// Update expires pools and refreshes a short DOT stack on any player inside
// one. Refreshing instead of stacking keeps one pool from multiplying its
// damage while a player stands still.
func (h *HazardManager) Update(dt float64) {
	for id, pool := range h.pools {
		pool.TimeLeft -= dt
		if pool.TimeLeft <= 0 {
			delete(h.pools, id)
			continue
		}
		for _, p := range h.room.players {
			if p.Dead || p.Downed {
				continue
			}
			if dist(pool.X, pool.Y, p.X, p.Y) > pool.Radius+p.Radius {
				continue
			}
			refreshed := false
			for i := range p.dots {
				if p.dots[i].From == pool.ID {
					p.dots[i].TimeLeft = 0.5
					refreshed = true
					break
				}
			}
			if !refreshed {
				h.room.addDOT(p, pool.DPS, 0.5, pool.ID)
			}
		}
	}
}

// DamageAlongSegment tests a bullet's travel segment against destructible
// props, detonating any it crosses. Reports whether the segment was absorbed.
func (h *HazardManager) DamageAlongSegment(x1, y1, x2, y2, damage float64) bool {
	for id, prop := range h.props {
		if !segmentCircleHit(x1, y1, x2, y2, prop.X, prop.Y, prop.Radius+bulletRadius) {
			continue
		}
		prop.Health -= damage
		if prop.Health <= 0 {
			delete(h.props, id)
			h.SpawnPool(prop.X, prop.Y, 120, 12, 5, "")
		}
		return true
	}
	return false
}

// PlaceProp seeds a destructible canister; used by level setup.
func (h *HazardManager) PlaceProp(id string, x, y float64) {
	h.props[id] = &hazardProp{ID: id, X: x, Y: y, Radius: 20, Health: 10}
}

func (h *HazardManager) snapshotViews() []HazardView {
	views := make([]HazardView, 0, len(h.pools))
	for _, pool := range h.pools {
		views = append(views, HazardView{
			ID:       pool.ID,
			X:        pool.X,
			Y:        pool.Y,
			Radius:   pool.Radius,
			TimeLeft: pool.TimeLeft,
		})
	}
	return views
}

func (h *HazardManager) reset() {
	h.pools = make(map[string]*hazardPool)
	h.props = make(map[string]*hazardProp)
}
