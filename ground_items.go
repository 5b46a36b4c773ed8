package server

import (
	"fmt"

	"duskwell/server/stats"
)

// groundItemState is a modifier item lying in the world, waiting for pickup.
type groundItemState struct {
	ID   string
	X, Y float64
	Item stats.Modifier
}

// dropItem places a modifier item near a position with a small scatter so
// stacked drops stay clickable.
func (r *Room) dropItem(item stats.Modifier, x, y float64) *groundItemState {
	// A dropped heal-on-pickup item becomes grantable again to whoever takes
	// it next, matching the per-player suppression rule.
	item.SuppressHealFor = ""
	r.nextGroundItemID++
	gi := &groundItemState{
		ID:   fmt.Sprintf("item-%d", r.nextGroundItemID),
		X:    x + (r.rng.Float64()-0.5)*40,
		Y:    y + (r.rng.Float64()-0.5)*40,
		Item: item,
	}
	r.groundItems[gi.ID] = gi
	return gi
}

// dropAllItems empties a player's inventory onto the ground; fired on death
// and disconnect.
func (r *Room) dropAllItems(p *playerState) {
	for len(p.inventory) > 0 {
		item, ok := p.removeItemAt(len(p.inventory) - 1)
		if !ok {
			break
		}
		r.dropItem(item, p.X, p.Y)
	}
}

// handlePickup validates a pickup request against the authoritative item
// position; clients only ever name the item, never its effect.
func (r *Room) handlePickup(p *playerState, itemID string) {
	if p == nil || p.Dead || p.Downed {
		return
	}
	gi, ok := r.groundItems[itemID]
	if !ok {
		return
	}
	if dist(p.X, p.Y, gi.X, gi.Y) > groundPickupRadius+p.Radius {
		return
	}
	delete(r.groundItems, itemID)
	p.addItem(gi.Item)
}

// handleDrop moves the item at the requested inventory index to the ground.
func (r *Room) handleDrop(p *playerState, index int) {
	if p == nil || p.Dead {
		return
	}
	item, ok := p.removeItemAt(index)
	if !ok {
		return
	}
	r.dropItem(item, p.X, p.Y)
}

func (r *Room) groundItemViews() []GroundItemView {
	views := make([]GroundItemView, 0, len(r.groundItems))
	for _, gi := range r.groundItems {
		views = append(views, GroundItemView{ID: gi.ID, X: gi.X, Y: gi.Y, Item: gi.Item})
	}
	return views
}
