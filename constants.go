package server

import "time"

const (
	ProtocolVersion = 1

	writeWait         = 10 * time.Second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	playerRadius       = 24.0
	playerBaseHealth   = 100.0
	playerBaseStamina  = 100.0
	playerBaseSpeed    = 250.0
	playerBaseAtkSpd   = 1.0
	playerBaseAtkPwr   = 0.0
	playerBaseCrit     = 0.05
	playerBaseCritDmg  = 1.5
	staminaRegenPerSec = 22.0
	dashStaminaCost    = 30.0
	dashSpeedBoost     = 2.6
	dashDuration       = 0.18

	reviveWindowMs   = 30_000.0
	reviveHoldMs     = 3_000.0
	ensnareSlowScale = 0.45

	bulletRadius       = 6.0
	bulletMaxLife      = 2.0
	dotEventThreshold  = 3.0 // accumulated DOT damage before a number event fires
	dotEventCooldown   = 0.5 // seconds between DOT number events
	knockbackCooldown  = 0.8 // per weapon kind, tracked on the victim

	// Ambient spawner placement.
	spawnAttemptBudget   = 24
	spawnPerTickCap      = 6
	spawnClearancePad    = 18.0
	spawnMinPlayerDist   = 900.0
	cameraHalfWidthPad   = 1150.0
	cameraHalfHeightPad  = 700.0

	// Delta-compression thresholds.
	deltaPosEpsilon   = 0.1
	deltaAngleEpsilon = 0.01

	obstacleMinSize     = 80.0
	obstacleMaxSize     = 260.0
	obstacleSpawnMargin = 200.0
	spawnSafeRadius     = 260.0

	groundPickupRadius  = 60.0
	chestOpenSeconds    = 5.0
	readyTimerSeconds   = 10.0
	extractTimerSeconds = 45.0
)
