// Package nutrition derives calorie and macro targets from a coaching profile.
package nutrition

import "github.com/mealmind/nutrition-coach/internal/profile"

// Calorie constants for the derivation rules.
const (
	// tdeeDefault is used when no step count was learned.
	tdeeDefault = 2000
	// calorieFloor is the minimum target the engine will ever emit.
	calorieFloor = 1200
)

// tdeeBrackets maps daily-step thresholds to estimated total daily energy
// expenditure. Ordered descending; first threshold <= steps wins.
var tdeeBrackets = []struct {
	minSteps int
	tdee     int
}{
	{12500, 2400},
	{10000, 2250},
	{7500, 2100},
	{5000, 1950},
	{0, 1800},
}

// paceDeficits maps weekly weight-loss pace to a daily calorie deficit.
var paceDeficits = map[profile.WeightPace]int{
	profile.PaceHalfKg:         550,
	profile.PaceThreeQuarterKg: 825,
	profile.PaceOneKg:          1100,
}

// Targets is the output of a derivation run.
type Targets struct {
	TDEE           int                `json:"tdee"`
	TargetCalories int                `json:"target_calories"`
	Macros         profile.MacroSplit `json:"macros"`
}

// TDEE estimates daily energy expenditure from the profile's step count.
func TDEE(p *profile.Profile) int {
	if p == nil || p.DailySteps == nil {
		return tdeeDefault
	}
	for _, b := range tdeeBrackets {
		if *p.DailySteps >= b.minSteps {
			return b.tdee
		}
	}
	return tdeeBrackets[len(tdeeBrackets)-1].tdee
}

// Derive computes the calorie target and macro split for a profile. The
// 1kg/week pace is clamped so the target never drops below the floor.
func Derive(p *profile.Profile) Targets {
	tdee := TDEE(p)

	target := tdee
	if p != nil && p.WeightPace != nil {
		if deficit, ok := paceDeficits[*p.WeightPace]; ok {
			target = tdee - deficit
		}
		if *p.WeightPace == profile.PaceOneKg && target < calorieFloor {
			target = calorieFloor
		}
	}

	macros := profile.MacroSplit{CarbsPct: 45, ProteinPct: 25, FatPct: 30}
	if p != nil && p.Condition != nil && *p.Condition == profile.ConditionNAFLD {
		macros = profile.MacroSplit{CarbsPct: 40, ProteinPct: 30, FatPct: 30}
	}

	return Targets{
		TDEE:           tdee,
		TargetCalories: target,
		Macros:         macros,
	}
}

// Apply writes derived targets back onto the profile record.
func Apply(p *profile.Profile, t Targets) {
	if p == nil {
		return
	}
	calories := t.TargetCalories
	macros := t.Macros
	p.TargetCalories = &calories
	p.Macros = &macros
}
