package server

import "duskwell/server/stats"

// Wire message type tags. Every message is a JSON object carrying one of
// these in its "type" field.
const (
	msgGameState          = "gameState"
	msgEnemiesState       = "enemiesState"
	msgRoomSnapshot       = "roomSnapshot"
	msgPlayerHealthUpdate = "playerHealthUpdate"
	msgPvPHit             = "pvpHit"
	msgPvPKill            = "pvpKill"
	msgHordeSpawned       = "hordeSpawned"
	msgPlayerSlowState    = "playerSlowState"
	msgVFXEvent           = "vfxEvent"
	msgUnlock             = "unlock"
	msgHeartbeat          = "heartbeat"
)

// PlayerView is the full wire representation of one player. Delta broadcasts
// send a sparse subset of these fields keyed by the same JSON names.
type PlayerView struct {
	ID            string  `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	AimAngle      float64 `json:"aimAngle"`
	Radius        float64 `json:"radius"`
	Health        float64 `json:"health"`
	HealthMax     float64 `json:"healthMax"`
	Stamina       float64 `json:"stamina"`
	StaminaMax    float64 `json:"staminaMax"`
	MovSpd        float64 `json:"movSpd"`
	Armor         float64 `json:"armor"`
	AtkSpd        float64 `json:"atkSpd"`
	AtkPwr        float64 `json:"atkPwr"`
	CritChance    float64 `json:"critChance"`
	CritDmg       float64 `json:"critDmg"`
	IsEvil        bool    `json:"isEvil"`
	Dead          bool    `json:"dead"`
	Downed        bool    `json:"downed"`
	ReviveMsLeft  float64 `json:"reviveMsLeft"`
	Burning       bool    `json:"burning"`
	Slowed        bool    `json:"slowed"`
	Ducats        int     `json:"ducats"`
	BloodMarkers  int     `json:"bloodMarkers"`
	VictoryPoints int     `json:"victoryPoints"`
	InputSeq      uint64  `json:"lastProcessedInputSeq"`
}

// EnemyView is the full wire representation of one enemy. Type-specific
// variant fields are optional and omitted for kinds that do not carry them.
type EnemyView struct {
	ID          string    `json:"id"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Type        EnemyKind `json:"type"`
	Health      float64   `json:"health"`
	HealthMax   float64   `json:"healthMax"`
	TentacleOut bool      `json:"tentacleOut,omitempty"`
	TentacleID  string    `json:"tentacleTarget,omitempty"`
	BarrelAngle float64   `json:"barrelAngle,omitempty"`
	Enraged     bool      `json:"enraged,omitempty"`
}

type gameStateMessage struct {
	Type    string           `json:"type"`
	Tick    uint64           `json:"t"`
	Full    bool             `json:"full"`
	Players []PlayerView     `json:"players,omitempty"`
	Deltas  []map[string]any `json:"deltas,omitempty"`
}

type enemiesStateMessage struct {
	Type    string      `json:"type"`
	Enemies []EnemyView `json:"enemies"`
	Full    bool        `json:"full,omitempty"`
}

type roomSnapshotMessage struct {
	Type        string           `json:"type"`
	ID          string           `json:"selfId"`
	Scene       string           `json:"scene"`
	Boundary    float64          `json:"boundary"`
	Seed        int64            `json:"seed"`
	Obstacles   []Obstacle       `json:"obstacles"`
	ReadyTimer  TimerView        `json:"readyTimer"`
	Extraction  TimerView        `json:"extractionTimer"`
	Hazards     []HazardView     `json:"hazards"`
	Enemies     []EnemyView      `json:"enemies"`
	GroundItems []GroundItemView `json:"groundItems"`
	Players     []PlayerView     `json:"players"`
}

type healthUpdateMessage struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	Health    float64 `json:"health"`
	HealthMax float64 `json:"healthMax"`
}

type pvpHitMessage struct {
	Type      string  `json:"type"`
	VictimID  string  `json:"victimId"`
	ShooterID string  `json:"shooterId"`
	Damage    float64 `json:"damage"`
	Crit      bool    `json:"crit"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type pvpKillMessage struct {
	Type     string `json:"type"`
	VictimID string `json:"victimId"`
	KillerID string `json:"killerId"`
}

type hordeSpawnedMessage struct {
	Type    string      `json:"type"`
	OriginX float64     `json:"originX"`
	OriginY float64     `json:"originY"`
	GoalX   float64     `json:"goalX"`
	GoalY   float64     `json:"goalY"`
	Enemies []EnemyView `json:"enemies"`
}

type slowStateMessage struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Slowed bool   `json:"slowed"`
}

type vfxEventMessage struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

type unlockMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type timersMessage struct {
	Type       string    `json:"type"`
	ReadyTimer TimerView `json:"readyTimer"`
	Extraction TimerView `json:"extractionTimer"`
	Scene      string    `json:"scene"`
	Alive      int       `json:"alive"`
}

type heartbeatMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// clientMessage is the union of everything a client may send.
type clientMessage struct {
	Type      string  `json:"type"`
	Sequence  uint64  `json:"sequence"`
	MoveX     float64 `json:"moveX"`
	MoveY     float64 `json:"moveY"`
	AimAngle  float64 `json:"aimAngle"`
	Firing    bool    `json:"firing"`
	Dashing   bool    `json:"dashing"`
	ItemID    string  `json:"itemId,omitempty"`
	ItemIndex int     `json:"itemIndex,omitempty"`
	ChestID   string  `json:"chestId,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	SentAt    int64   `json:"sentAt,omitempty"`
}

// GroundItemView is the wire representation of a dropped modifier item.
type GroundItemView struct {
	ID   string         `json:"id"`
	X    float64        `json:"x"`
	Y    float64        `json:"y"`
	Item stats.Modifier `json:"item"`
}

// HazardView is the wire representation of a damage pool.
type HazardView struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	TimeLeft float64 `json:"timeLeft"`
}

// TimerView is the shared shape of ready/extraction/chest timers.
type TimerView struct {
	Started   bool    `json:"started"`
	Completed bool    `json:"completed"`
	TimeLeft  float64 `json:"timeLeft"`
	TimeTotal float64 `json:"timeTotal"`
	StartedBy string  `json:"startedBy,omitempty"`
}
