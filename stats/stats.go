package stats

import "math"

// Key identifies a stat that modifier items can contribute to. The names
// double as the wire-level statKey strings.
type Key string

const (
	KeyHealth     Key = "Health"
	KeyStamina    Key = "Stamina"
	KeyMovSpd     Key = "MovSpd"
	KeyArmor      Key = "Armor"
	KeyAtkSpd     Key = "AtkSpd"
	KeyAtkPwr     Key = "AtkPwr"
	KeyCritChance Key = "CritChance"
	KeyCritDmg    Key = "CritDmg"
)

// Game-balance ceilings. Derived values never leave these ranges no matter
// what the inventory contains.
const (
	HealthCap     = 300.0
	StaminaCap    = 300.0
	MoveSpeedCap  = 375.0
	ArmorCap      = 150.0 // armor percent; effective reduction is capped again at damage time
	AtkSpeedMin   = 0.1
	AtkSpeedMax   = 3.0
	AtkPowerCap   = 150.0
	CritDmgMin    = 1.0
	CritDmgMax    = 5.0
	MaxReduction  = 0.75 // hard ceiling on effective armor damage reduction
)

// Modifier is one inventory item contribution. Percent modifiers apply to the
// base value, never to an already-modified one. SuppressHealFor records which
// player has already consumed this item's one-time health grant.
type Modifier struct {
	Key             Key     `json:"statKey"`
	Bonus           float64 `json:"bonusValue"`
	Percent         bool    `json:"isPercent"`
	SuppressHealFor string  `json:"suppressHealForPlayerId,omitempty"`
}

// Base holds a player's unmodified stats.
type Base struct {
	HealthMax  float64
	StaminaMax float64
	MovSpd     float64
	Armor      float64
	AtkSpd     float64
	AtkPwr     float64
	CritChance float64
	CritDmg    float64
}

// Derived holds the post-inventory stats after clamping.
type Derived struct {
	HealthMax  float64
	StaminaMax float64
	MovSpd     float64
	Armor      float64
	AtkSpd     float64
	AtkPwr     float64
	CritChance float64
	CritDmg    float64
}

// Resolve walks the inventory once and produces the derived stat block.
// Health modifiers additionally grant their contribution as immediate healing
// exactly once per player: the grant is returned and the item is marked with
// ownerID so a later re-resolution never double-heals.
func Resolve(base Base, inventory []Modifier, ownerID string) (Derived, float64) {
	type accum struct{ flat, percent float64 }
	totals := make(map[Key]*accum, len(inventory))
	heal := 0.0

	for i := range inventory {
		mod := &inventory[i]
		acc := totals[mod.Key]
		if acc == nil {
			acc = &accum{}
			totals[mod.Key] = acc
		}
		if mod.Percent {
			acc.percent += mod.Bonus
		} else {
			acc.flat += mod.Bonus
		}
		if mod.Key == KeyHealth && mod.SuppressHealFor != ownerID {
			if mod.Percent {
				heal += base.HealthMax * mod.Bonus / 100
			} else {
				heal += mod.Bonus
			}
			mod.SuppressHealFor = ownerID
		}
	}

	apply := func(b float64, key Key) float64 {
		acc := totals[key]
		if acc == nil {
			return b
		}
		return b + acc.flat + b*acc.percent/100
	}

	d := Derived{
		HealthMax:  math.Min(apply(base.HealthMax, KeyHealth), HealthCap),
		StaminaMax: math.Min(apply(base.StaminaMax, KeyStamina), StaminaCap),
		MovSpd:     math.Min(apply(base.MovSpd, KeyMovSpd), MoveSpeedCap),
		Armor:      clamp(apply(base.Armor, KeyArmor), 0, ArmorCap),
		AtkSpd:     clamp(apply(base.AtkSpd, KeyAtkSpd), AtkSpeedMin, AtkSpeedMax),
		AtkPwr:     clamp(apply(base.AtkPwr, KeyAtkPwr), 0, AtkPowerCap),
		CritChance: clamp(apply(base.CritChance, KeyCritChance), 0, 1),
		CritDmg:    clamp(apply(base.CritDmg, KeyCritDmg), CritDmgMin, CritDmgMax),
	}
	return d, heal
}

// EffectiveReduction converts an armor percentage into the damage-reduction
// fraction actually applied. The result never exceeds MaxReduction.
func EffectiveReduction(armorPercent float64) float64 {
	if math.IsNaN(armorPercent) || armorPercent <= 0 {
		return 0
	}
	return math.Min(MaxReduction, armorPercent/100)
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
