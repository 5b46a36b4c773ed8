package server

import (
	"fmt"
	"math"
	"math/rand"
)

// Obstacle is an axis-aligned blocking rectangle inside the room boundary.
type Obstacle struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ExclusionZone marks a circle the spawner must keep clear. Zones are derived
// on demand from extraction zones, the boss, and the golden chest; they are
// never stored.
type ExclusionZone struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Environment answers the spatial queries every other manager depends on:
// world bounds and obstacle overlap. The world is a square centered on the
// origin with the given half extent.
type Environment struct {
	HalfExtent float64
	Obstacles  []Obstacle
}

// NewEnvironment scatters seeded obstacles inside the boundary, keeping the
// center spawn area clear.
func NewEnvironment(halfExtent float64, obstacleCount int, seed int64) *Environment {
	env := &Environment{HalfExtent: halfExtent}
	if obstacleCount <= 0 {
		return env
	}

	rng := rand.New(rand.NewSource(seed))
	maxAttempts := obstacleCount * 20
	for attempts := 0; len(env.Obstacles) < obstacleCount && attempts < maxAttempts; attempts++ {
		width := obstacleMinSize + rng.Float64()*(obstacleMaxSize-obstacleMinSize)
		height := obstacleMinSize + rng.Float64()*(obstacleMaxSize-obstacleMinSize)
		span := halfExtent - obstacleSpawnMargin
		if span <= 0 {
			break
		}
		x := -span + rng.Float64()*(2*span-width)
		y := -span + rng.Float64()*(2*span-height)

		candidate := Obstacle{
			ID:     fmt.Sprintf("obstacle-%d", len(env.Obstacles)+1),
			X:      x,
			Y:      y,
			Width:  width,
			Height: height,
		}
		if circleRectOverlap(0, 0, spawnSafeRadius, candidate) {
			continue
		}
		overlaps := false
		for _, obs := range env.Obstacles {
			if rectsOverlap(candidate, obs, playerRadius*2) {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		env.Obstacles = append(env.Obstacles, candidate)
	}
	return env
}

// IsInsideBounds reports whether a circle fits entirely inside the boundary.
func (e *Environment) IsInsideBounds(x, y, r float64) bool {
	if e == nil {
		return false
	}
	limit := e.HalfExtent - r
	return x >= -limit && x <= limit && y >= -limit && y <= limit
}

// CircleHitsAny reports whether a circle overlaps any obstacle.
func (e *Environment) CircleHitsAny(x, y, r float64) bool {
	if e == nil {
		return false
	}
	for _, obs := range e.Obstacles {
		if circleRectOverlap(x, y, r, obs) {
			return true
		}
	}
	return false
}

// ClampToBounds pushes a point back inside the boundary, honoring a radius.
func (e *Environment) ClampToBounds(x, y, r float64) (float64, float64) {
	if e == nil {
		return x, y
	}
	limit := e.HalfExtent - r
	return clamp(x, -limit, limit), clamp(y, -limit, limit)
}

func circleRectOverlap(cx, cy, radius float64, obs Obstacle) bool {
	closestX := clamp(cx, obs.X, obs.X+obs.Width)
	closestY := clamp(cy, obs.Y, obs.Y+obs.Height)
	dx := cx - closestX
	dy := cy - closestY
	return dx*dx+dy*dy <= radius*radius
}

func rectsOverlap(a, b Obstacle, pad float64) bool {
	return a.X-pad < b.X+b.Width &&
		a.X+a.Width+pad > b.X &&
		a.Y-pad < b.Y+b.Height &&
		a.Y+a.Height+pad > b.Y
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// segmentCircleHit performs a swept collision test between the segment
// (x1,y1)→(x2,y2) and a circle. It projects the circle center onto the
// segment, clamps the parameter to [0,1], and compares the closest distance
// against the radius. Required for fast projectiles that would tunnel through
// a target between two ticks.
func segmentCircleHit(x1, y1, x2, y2, cx, cy, radius float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = clamp(((cx-x1)*dx+(cy-y1)*dy)/lenSq, 0, 1)
	}
	nearX := x1 + t*dx
	nearY := y1 + t*dy
	ddx := cx - nearX
	ddy := cy - nearY
	return ddx*ddx+ddy*ddy <= radius*radius
}
