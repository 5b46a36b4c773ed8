package server

import "math"

// npcState is a non-combat lobby character (vendors, handlers). NPCs idle
// around a home point; they carry no combat surface.
type npcState struct {
	ID    string
	X, Y  float64
	homeX float64
	homeY float64
	phase float64
}

// updateNPCs runs last in the tick: NPCs react to final positions but never
// influence them.
func (r *Room) updateNPCs(dt float64) {
	for _, npc := range r.npcs {
		npc.phase += dt * 0.4
		npc.X = npc.homeX + math.Cos(npc.phase)*30
		npc.Y = npc.homeY + math.Sin(npc.phase*0.7)*30
	}
}
