package server

import (
	"fmt"

	"duskwell/server/stats"
)

// chestState is a lootable chest with an opening timer. The golden chest is
// the level objective and also projects a spawn exclusion zone.
type chestState struct {
	ID     string
	X, Y   float64
	Golden bool
	Opened bool
	timer  gameTimer
}

// handleChestOpen starts a chest's opening timer if the requester stands in
// reach. Walking away does not cancel it; the original design commits the
// open once started.
func (r *Room) handleChestOpen(p *playerState, chestID string) {
	if p == nil || p.Dead || p.Downed {
		return
	}
	chest, ok := r.chests[chestID]
	if !ok || chest.Opened {
		return
	}
	if dist(p.X, p.Y, chest.X, chest.Y) > groundPickupRadius+p.Radius {
		return
	}
	chest.timer.start(chestOpenSeconds, p.ID)
}

// tickChests advances opening timers and pays out on completion.
func (r *Room) tickChests(dt float64) {
	for _, chest := range r.chests {
		if chest.Opened {
			continue
		}
		if !chest.timer.update(dt) {
			continue
		}
		chest.Opened = true
		opener := r.players[chest.timer.StartedBy]
		if chest.Golden {
			if opener != nil {
				opener.wallet.VictoryPoints++
			}
			r.dropItem(stats.Modifier{Key: stats.KeyAtkPwr, Bonus: 15}, chest.X, chest.Y)
			continue
		}
		if opener != nil {
			opener.wallet.Ducats += 5
		}
		r.dropItem(randomChestItem(r), chest.X, chest.Y)
	}
}

func randomChestItem(r *Room) stats.Modifier {
	table := []stats.Modifier{
		{Key: stats.KeyHealth, Bonus: 20, Percent: true},
		{Key: stats.KeyStamina, Bonus: 25, Percent: true},
		{Key: stats.KeyMovSpd, Bonus: 10, Percent: true},
		{Key: stats.KeyArmor, Bonus: 15},
		{Key: stats.KeyAtkSpd, Bonus: 15, Percent: true},
		{Key: stats.KeyAtkPwr, Bonus: 8},
		{Key: stats.KeyCritChance, Bonus: 0.05},
		{Key: stats.KeyCritDmg, Bonus: 0.5},
	}
	return table[r.rng.Intn(len(table))]
}

// placeChests seeds level chests, one golden, using the spawner's scatter
// search so chests respect the same placement rules as enemies.
func (r *Room) placeChests(count int) {
	for i := 0; i < count; i++ {
		x, y, ok := r.spawner.findScatterSpawn()
		if !ok {
			continue
		}
		id := fmt.Sprintf("chest-%d", i+1)
		r.chests[id] = &chestState{ID: id, X: x, Y: y, Golden: i == 0}
	}
}
