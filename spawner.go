package server

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// SpawnTier is one time-activated step of the ambient escalation curve.
type SpawnTier struct {
	ActivateAt float64               `yaml:"activateAt"` // seconds since level start
	Cap        int                   `yaml:"cap"`
	Rate       float64               `yaml:"rate"` // entities per second
	Ratios     map[EnemyKind]float64 `yaml:"ratios"`
}

var defaultSpawnTiers = []SpawnTier{
	{ActivateAt: 0, Cap: 12, Rate: 0.4, Ratios: map[EnemyKind]float64{EnemyBasic: 1}},
	{ActivateAt: 60, Cap: 24, Rate: 0.8, Ratios: map[EnemyKind]float64{EnemyBasic: 0.7, EnemyBoomer: 0.2, EnemyProjectile: 0.1}},
	{ActivateAt: 180, Cap: 40, Rate: 1.2, Ratios: map[EnemyKind]float64{EnemyBasic: 0.5, EnemyBoomer: 0.2, EnemyProjectile: 0.15, EnemyLicker: 0.15}},
	{ActivateAt: 360, Cap: 60, Rate: 1.8, Ratios: map[EnemyKind]float64{EnemyBasic: 0.4, EnemyBoomer: 0.2, EnemyProjectile: 0.15, EnemyLicker: 0.15, EnemyBigboy: 0.1}},
}

// loadSpawnTiers reads a YAML tier list, falling back to the compiled-in
// escalation curve when no path is given.
func loadSpawnTiers(path string) ([]SpawnTier, error) {
	if path == "" {
		tiers := make([]SpawnTier, len(defaultSpawnTiers))
		copy(tiers, defaultSpawnTiers)
		return tiers, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn tiers %s: %w", path, err)
	}
	var tiers []SpawnTier
	if err := yaml.Unmarshal(data, &tiers); err != nil {
		return nil, fmt.Errorf("parse spawn tiers %s: %w", path, err)
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("spawn tiers %s: empty tier list", path)
	}
	for i, tier := range tiers {
		if i > 0 && tier.ActivateAt < tiers[i-1].ActivateAt {
			return nil, fmt.Errorf("spawn tiers %s: tier %d activates before tier %d", path, i, i-1)
		}
		for kind := range tier.Ratios {
			if !ValidEnemyKind(kind) {
				return nil, fmt.Errorf("spawn tiers %s: tier %d has unknown kind %q", path, i, kind)
			}
		}
	}
	return tiers, nil
}

// AmbientSpawner escalates the room's enemy population through time-ordered
// tiers. Tier advancement is monotonic; an earlier tier is never re-entered.
type AmbientSpawner struct {
	room      *Room
	tiers     []SpawnTier
	tierIndex int
	elapsed   float64
	budget    float64 // fractional accumulated spawn credit
	baseline  map[string]struct{}
	rng       *rand.Rand
}

func newAmbientSpawner(room *Room, tiers []SpawnTier, rng *rand.Rand) *AmbientSpawner {
	return &AmbientSpawner{
		room:     room,
		tiers:    tiers,
		baseline: make(map[string]struct{}),
		rng:      rng,
	}
}

// MarkBaseline records a pre-placed enemy so it never counts against the
// dynamic tier cap.
func (s *AmbientSpawner) MarkBaseline(id string) {
	s.baseline[id] = struct{}{}
}

// dynamicAlive counts live enemies subject to tier bookkeeping.
func (s *AmbientSpawner) dynamicAlive() int {
	count := 0
	for id := range s.room.enemies {
		if _, preplaced := s.baseline[id]; !preplaced {
			count++
		}
	}
	return count
}

// Update advances the escalation clock, accumulates spawn budget, and places
// up to floor(budget) enemies bounded by the tier deficit and the per-tick
// cap. Placement failures under-spawn rather than retrying forever.
func (s *AmbientSpawner) Update(dt float64) {
	if len(s.tiers) == 0 {
		return
	}
	s.elapsed += dt
	for s.tierIndex+1 < len(s.tiers) && s.elapsed >= s.tiers[s.tierIndex+1].ActivateAt {
		s.tierIndex++
	}
	tier := s.tiers[s.tierIndex]

	// Drop dead baseline ids so the set does not grow without bound.
	for id := range s.baseline {
		if _, alive := s.room.enemies[id]; !alive {
			delete(s.baseline, id)
		}
	}

	deficit := tier.Cap - s.dynamicAlive()
	if deficit <= 0 {
		// A full population does not bank credit for later.
		s.budget = 0
		return
	}

	s.budget += tier.Rate * dt
	want := int(math.Floor(s.budget))
	if want <= 0 {
		return
	}
	if want > deficit {
		want = deficit
	}
	if want > spawnPerTickCap {
		want = spawnPerTickCap
	}
	s.budget -= float64(want)

	var batch []EnemyView
	var originX, originY float64
	for i := 0; i < want; i++ {
		x, y, ok := s.findScatterSpawn()
		if !ok {
			continue // map has no valid free space this tick; under-spawn
		}
		enemy := s.room.spawnEnemy(pickKind(s.rng, tier.Ratios), x, y)
		batch = append(batch, enemy.snapshotView())
		originX, originY = x, y
	}
	if len(batch) > 0 {
		goalX, goalY := s.batchGoal()
		s.room.queueEvent(hordeSpawnedMessage{
			Type:    msgHordeSpawned,
			OriginX: originX,
			OriginY: originY,
			GoalX:   goalX,
			GoalY:   goalY,
			Enemies: batch,
		})
	}
}

func (s *AmbientSpawner) batchGoal() (float64, float64) {
	if p := s.room.nearestLivingPlayer(0, 0); p != nil {
		return p.X, p.Y
	}
	return 0, 0
}

// findScatterSpawn searches for a legal spawn position: inside bounds, clear
// of obstacles (with movement clearance), outside every player's padded
// camera rectangle, beyond the minimum player distance, and outside all
// exclusion zones. Exhausting the attempt budget skips the spawn entirely;
// there is no fallback position.
func (s *AmbientSpawner) findScatterSpawn() (float64, float64, bool) {
	bounds := s.room.mode.EnemySpawnBounds(s.room)
	zones := s.room.exclusionZones()

attempts:
	for attempt := 0; attempt < spawnAttemptBudget; attempt++ {
		x := bounds.minX + s.rng.Float64()*(bounds.maxX-bounds.minX)
		y := bounds.minY + s.rng.Float64()*(bounds.maxY-bounds.minY)

		radius := defaultEnemyStats[EnemyBasic].Radius
		if !s.room.env.IsInsideBounds(x, y, radius) {
			continue
		}
		if s.room.env.CircleHitsAny(x, y, radius+spawnClearancePad) {
			continue
		}
		for _, p := range s.room.players {
			if math.Abs(x-p.X) < cameraHalfWidthPad && math.Abs(y-p.Y) < cameraHalfHeightPad {
				continue attempts
			}
			if dist(x, y, p.X, p.Y) < spawnMinPlayerDist {
				continue attempts
			}
		}
		for _, zone := range zones {
			if dist(x, y, zone.X, zone.Y) < zone.Radius {
				continue attempts
			}
		}
		return x, y, true
	}
	return 0, 0, false
}

// reset clears escalation state on scene transitions.
func (s *AmbientSpawner) reset() {
	s.tierIndex = 0
	s.elapsed = 0
	s.budget = 0
	s.baseline = make(map[string]struct{})
}
