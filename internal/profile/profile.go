package profile

// Goal is the user's primary nutrition goal.
type Goal string

const (
	GoalLoseWeight  Goal = "lose_weight"
	GoalMaintain    Goal = "maintain"
	GoalBuildMuscle Goal = "build_muscle"
)

// Condition is a health condition that shapes the plan.
type Condition string

const (
	ConditionNAFLD      Condition = "NAFLD"
	ConditionDiabetes   Condition = "diabetes"
	ConditionEDRecovery Condition = "ED_recovery"
)

// WeightPace is the desired weekly weight-loss rate.
type WeightPace string

const (
	PaceHalfKg         WeightPace = "0.5kg"
	PaceThreeQuarterKg WeightPace = "0.75kg"
	PaceOneKg          WeightPace = "1kg"
)

// ActivityLevel is a coarse classification of daily movement.
type ActivityLevel string

const (
	ActivitySedentary ActivityLevel = "sedentary"
	ActivityActive    ActivityLevel = "active"
)

// MacroSplit is the target percentage breakdown of daily calories.
type MacroSplit struct {
	CarbsPct   int `json:"carbs_pct"`
	ProteinPct int `json:"protein_pct"`
	FatPct     int `json:"fat_pct"`
}

// DataNeeded tracks which profile slots the coach still has to ask about.
// Flags start true and only ever flip to false.
type DataNeeded struct {
	Goal         bool `json:"goal"`
	Activity     bool `json:"activity"`
	Demographics bool `json:"demographics"`
}

// NewDataNeeded seeds all flags true for a fresh session.
func NewDataNeeded() DataNeeded {
	return DataNeeded{Goal: true, Activity: true, Demographics: true}
}

// Profile is everything learned about the user during one coaching session.
// It lives only for the session; nothing is persisted across sessions.
type Profile struct {
	Goal          *Goal          `json:"goal,omitempty"`
	Condition     *Condition     `json:"condition,omitempty"`
	WeightPace    *WeightPace    `json:"weight_pace,omitempty"`
	ActivityLevel *ActivityLevel `json:"activity_level,omitempty"`
	DailySteps    *int           `json:"daily_steps,omitempty"`
	Age           *int           `json:"age,omitempty"`
	Restrictions  []string       `json:"restrictions,omitempty"`
	Preferences   []string       `json:"preferences,omitempty"`

	// HideNumbers suppresses calorie and weight figures in user-facing
	// output. Once latched true it stays true for the session.
	HideNumbers bool `json:"hide_numbers"`

	// Derived fields, absent until derivation runs.
	TargetCalories *int        `json:"target_calories,omitempty"`
	Macros         *MacroSplit `json:"macros,omitempty"`
}

// HasEnoughInfo reports whether the conversation has produced enough signal
// to build a plan: a goal, a condition, or a pace.
func (p *Profile) HasEnoughInfo() bool {
	return p.Goal != nil || p.Condition != nil || p.WeightPace != nil
}

// Clone returns a deep copy so callers can hand snapshots downstream without
// aliasing the session's mutable record.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := &Profile{HideNumbers: p.HideNumbers}
	if p.Goal != nil {
		g := *p.Goal
		out.Goal = &g
	}
	if p.Condition != nil {
		c := *p.Condition
		out.Condition = &c
	}
	if p.WeightPace != nil {
		w := *p.WeightPace
		out.WeightPace = &w
	}
	if p.ActivityLevel != nil {
		a := *p.ActivityLevel
		out.ActivityLevel = &a
	}
	if p.DailySteps != nil {
		s := *p.DailySteps
		out.DailySteps = &s
	}
	if p.Age != nil {
		a := *p.Age
		out.Age = &a
	}
	if len(p.Restrictions) > 0 {
		out.Restrictions = append([]string(nil), p.Restrictions...)
	}
	if len(p.Preferences) > 0 {
		out.Preferences = append([]string(nil), p.Preferences...)
	}
	if p.TargetCalories != nil {
		t := *p.TargetCalories
		out.TargetCalories = &t
	}
	if p.Macros != nil {
		m := *p.Macros
		out.Macros = &m
	}
	return out
}

// Store owns one session's Profile and DataNeeded flags. The extraction
// engine is the only writer of profile fields; flag transitions are
// monotonic true->false.
type Store struct {
	profile Profile
	needed  DataNeeded
}

// NewStore creates an empty store with all DataNeeded flags set.
func NewStore() *Store {
	return &Store{needed: NewDataNeeded()}
}

// Get returns the live profile record.
func (s *Store) Get() *Profile {
	return &s.profile
}

// Needed returns the current DataNeeded flags.
func (s *Store) Needed() DataNeeded {
	return s.needed
}

// SetGoal records the goal and marks the goal slot answered.
func (s *Store) SetGoal(g Goal) {
	s.profile.Goal = &g
	s.needed.Goal = false
}

// SetCondition records the health condition. ED recovery latches the
// numeric-suppression flag for the rest of the session.
func (s *Store) SetCondition(c Condition) {
	s.profile.Condition = &c
	if c == ConditionEDRecovery {
		s.profile.HideNumbers = true
	}
}

// SetWeightPace records the weekly pace and marks the goal slot answered.
func (s *Store) SetWeightPace(w WeightPace) {
	s.profile.WeightPace = &w
	s.needed.Goal = false
}

// SetActivityLevel records the activity level and marks the activity slot answered.
func (s *Store) SetActivityLevel(a ActivityLevel) {
	s.profile.ActivityLevel = &a
	s.needed.Activity = false
}

// SetDailySteps records the daily step count.
func (s *Store) SetDailySteps(steps int) {
	if steps < 0 {
		return
	}
	s.profile.DailySteps = &steps
}

// SetAge records the age and marks the demographics slot answered.
func (s *Store) SetAge(age int) {
	s.profile.Age = &age
	s.needed.Demographics = false
}

// AddRestriction appends a dietary restriction in mention order. Duplicates
// are preserved; downstream consumers may dedupe.
func (s *Store) AddRestriction(r string) {
	s.profile.Restrictions = append(s.profile.Restrictions, r)
}

// AddPreference appends a food preference in mention order.
func (s *Store) AddPreference(p string) {
	s.profile.Preferences = append(s.profile.Preferences, p)
}
