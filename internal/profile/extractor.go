package profile

import (
	"regexp"
	"strconv"
	"strings"
)

// ---------- package-level compiled regexes ----------

var (
	stepsRE = regexp.MustCompile(`(\d{1,2})[,.]?(\d{3})\s*steps`)
	ageRE   = regexp.MustCompile(`\b([2-6][0-9])\s*(?:years|yo\b|yr)`)
)

// rule is one row of the extraction table: a predicate over the combined
// turn text and the mutation it applies when the predicate matches.
type rule struct {
	signal string
	match  func(text string) bool
	apply  func(text string, s *Store)
}

func containsAny(subs ...string) func(string) bool {
	return func(text string) bool {
		for _, sub := range subs {
			if strings.Contains(text, sub) {
				return true
			}
		}
		return false
	}
}

func containsAll(subs ...string) func(string) bool {
	return func(text string) bool {
		for _, sub := range subs {
			if !strings.Contains(text, sub) {
				return false
			}
		}
		return true
	}
}

// extractionRules is evaluated top to bottom on every turn. Rules are
// independent and non-exclusive; several may fire in one call. When two
// rules target the same field, the later table entry wins.
var extractionRules = []rule{
	{
		signal: "pace_half_kg",
		match:  containsAny("0.5kg", "half kg"),
		apply:  func(_ string, s *Store) { s.SetWeightPace(PaceHalfKg) },
	},
	{
		signal: "pace_three_quarter_kg",
		match:  containsAny("0.75kg", "three quarters"),
		apply:  func(_ string, s *Store) { s.SetWeightPace(PaceThreeQuarterKg) },
	},
	{
		signal: "pace_one_kg",
		match:  containsAny("1kg", "one kg"),
		apply:  func(_ string, s *Store) { s.SetWeightPace(PaceOneKg) },
	},
	{
		signal: "goal_lose_weight",
		match:  containsAny("lose weight", "lose some weight", "losing weight"),
		apply:  func(_ string, s *Store) { s.SetGoal(GoalLoseWeight) },
	},
	{
		signal: "goal_maintain",
		match:  containsAny("maintain my weight", "maintain weight", "maintenance"),
		apply:  func(_ string, s *Store) { s.SetGoal(GoalMaintain) },
	},
	{
		signal: "goal_build_muscle",
		match:  containsAny("build muscle", "gain muscle", "bulk up"),
		apply:  func(_ string, s *Store) { s.SetGoal(GoalBuildMuscle) },
	},
	{
		signal: "activity_sedentary",
		match:  containsAny("desk", "office", "sitting"),
		apply:  func(_ string, s *Store) { s.SetActivityLevel(ActivitySedentary) },
	},
	{
		signal: "activity_active",
		match:  containsAny("active", "feet", "walking"),
		apply:  func(_ string, s *Store) { s.SetActivityLevel(ActivityActive) },
	},
	{
		signal: "daily_steps",
		match:  stepsRE.MatchString,
		apply: func(text string, s *Store) {
			m := stepsRE.FindStringSubmatch(text)
			if len(m) != 3 {
				return
			}
			steps, err := strconv.Atoi(m[1] + m[2])
			if err != nil {
				return
			}
			s.SetDailySteps(steps)
		},
	},
	{
		signal: "age",
		match:  ageRE.MatchString,
		apply: func(text string, s *Store) {
			m := ageRE.FindStringSubmatch(text)
			if len(m) != 2 {
				return
			}
			age, err := strconv.Atoi(m[1])
			if err != nil || age < 20 || age > 69 {
				return
			}
			s.SetAge(age)
		},
	},
	{
		signal: "condition_nafld",
		match:  containsAny("fatty liver", "nafld"),
		apply:  func(_ string, s *Store) { s.SetCondition(ConditionNAFLD) },
	},
	{
		signal: "condition_diabetes",
		match:  containsAny("diabetes"),
		apply:  func(_ string, s *Store) { s.SetCondition(ConditionDiabetes) },
	},
	{
		signal: "condition_ed_recovery",
		match:  containsAll("eating", "disorder"),
		apply:  func(_ string, s *Store) { s.SetCondition(ConditionEDRecovery) },
	},
}

// restrictionPatterns map turn keywords to canonical restriction labels.
// Checked after the main table; matches append in mention order.
var restrictionPatterns = []struct {
	pattern string
	label   string
}{
	{"vegetarian", "vegetarian"},
	{"vegan", "vegan"},
	{"pescatarian", "pescatarian"},
	{"no dairy", "dairy-free"},
	{"lactose", "dairy-free"},
	{"gluten", "gluten-free"},
	{"nut allergy", "no nuts"},
	{"allergic to nuts", "no nuts"},
	{"halal", "halal"},
	{"kosher", "kosher"},
	{"no pork", "no pork"},
	{"no shellfish", "no shellfish"},
}

// Extract scans one turn's combined text against the rule table and writes
// every detected signal into the store. The full table is re-evaluated on
// each call, so a later turn can overwrite a previously set field.
func Extract(userText, providerReply string, s *Store) {
	text := strings.ToLower(userText + " " + providerReply)

	for _, r := range extractionRules {
		if r.match(text) {
			r.apply(text, s)
		}
	}

	// Restrictions come from the user's own words only; echoing the
	// assistant's list of examples back into the profile would fabricate
	// restrictions the user never stated.
	userLower := strings.ToLower(userText)
	for _, rp := range restrictionPatterns {
		if strings.Contains(userLower, rp.pattern) {
			s.AddRestriction(rp.label)
		}
	}
}
