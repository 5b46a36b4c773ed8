package server

// spawnBounds is the rectangle a game mode allows ambient spawns inside.
type spawnBounds struct {
	minX, minY, maxX, maxY float64
}

// GameMode is the per-scene behavior contract consumed by the room core.
type GameMode interface {
	Name() string
	// AuthoritativeEnemies reports whether the server simulates enemy AI.
	AuthoritativeEnemies() bool
	InitializeEnemyStats(enemy *enemyState)
	EnemySpawnBounds(r *Room) spawnBounds
	PlayerSpawnPosition(r *Room) (float64, float64)
	Update(r *Room, dt float64)
}

// lobbyMode is the staging scene: no enemies, ready timer drives the level
// transition.
type lobbyMode struct{}

func (lobbyMode) Name() string                     { return "lobby" }
func (lobbyMode) AuthoritativeEnemies() bool       { return false }
func (lobbyMode) InitializeEnemyStats(*enemyState) {}

func (lobbyMode) EnemySpawnBounds(r *Room) spawnBounds {
	return spawnBounds{}
}

func (lobbyMode) PlayerSpawnPosition(r *Room) (float64, float64) {
	return r.scatterNearOrigin(200)
}

func (lobbyMode) Update(r *Room, dt float64) {}

// levelMode is the playable scene: authoritative enemies, extraction zones,
// escalating difficulty per level type.
type levelMode struct {
	levelType       string
	difficultyScale float64
	extractionZones []ExclusionZone
}

func newLevelMode(levelType string, halfExtent float64) *levelMode {
	scale := 1.0
	if levelType == "deep" {
		scale = 1.6
	}
	edge := halfExtent * 0.8
	return &levelMode{
		levelType:       levelType,
		difficultyScale: scale,
		extractionZones: []ExclusionZone{
			{X: -edge, Y: -edge, Radius: 420},
			{X: edge, Y: edge, Radius: 420},
		},
	}
}

func (m *levelMode) Name() string               { return "level" }
func (m *levelMode) AuthoritativeEnemies() bool { return true }

func (m *levelMode) InitializeEnemyStats(enemy *enemyState) {
	enemy.Health *= m.difficultyScale
	enemy.HealthMax = enemy.Health
	enemy.TouchDPS *= m.difficultyScale
}

func (m *levelMode) EnemySpawnBounds(r *Room) spawnBounds {
	extent := r.env.HalfExtent
	return spawnBounds{minX: -extent, minY: -extent, maxX: extent, maxY: extent}
}

func (m *levelMode) PlayerSpawnPosition(r *Room) (float64, float64) {
	// Players enter at the first extraction zone's edge.
	if len(m.extractionZones) > 0 {
		zone := m.extractionZones[0]
		return zone.X, zone.Y
	}
	return r.scatterNearOrigin(300)
}

// Update arms the extraction timer while any living player stands inside an
// extraction zone.
func (m *levelMode) Update(r *Room, dt float64) {
	if r.extraction.Started {
		return
	}
	for _, zone := range m.extractionZones {
		for _, p := range r.players {
			if p.Dead || p.Downed {
				continue
			}
			if dist(zone.X, zone.Y, p.X, p.Y) <= zone.Radius {
				r.extraction.start(extractTimerSeconds, p.ID)
				return
			}
		}
	}
}
