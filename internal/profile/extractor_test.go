package profile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractWeightPace(t *testing.T) {
	tests := []struct {
		name string
		text string
		want WeightPace
	}{
		{"half kg numeric", "I'd like to lose 0.5kg a week", PaceHalfKg},
		{"half kg words", "maybe half kg per week", PaceHalfKg},
		{"three quarters numeric", "0.75kg weekly sounds right", PaceThreeQuarterKg},
		{"three quarters words", "three quarters of a kilo", PaceThreeQuarterKg},
		{"one kg numeric", "1kg per week", PaceOneKg},
		{"one kg words", "one kg every week", PaceOneKg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			Extract(tt.text, "", s)

			require.NotNil(t, s.Get().WeightPace)
			assert.Equal(t, tt.want, *s.Get().WeightPace)
			assert.False(t, s.Needed().Goal, "pace answers the goal slot")
		})
	}
}

func TestExtractActivity(t *testing.T) {
	s := NewStore()
	Extract("I'm sedentary, I sit at a desk all day", "", s)

	require.NotNil(t, s.Get().ActivityLevel)
	assert.Equal(t, ActivitySedentary, *s.Get().ActivityLevel)
	assert.False(t, s.Needed().Activity)

	s = NewStore()
	Extract("I'm on my feet most of the day", "", s)
	require.NotNil(t, s.Get().ActivityLevel)
	assert.Equal(t, ActivityActive, *s.Get().ActivityLevel)
}

func TestExtractDailySteps(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"about 8,500 steps most days", 8500},
		{"I average 12500 steps", 12500},
		{"roughly 4.000 steps", 4000},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			s := NewStore()
			Extract(tt.text, "", s)

			require.NotNil(t, s.Get().DailySteps)
			assert.Equal(t, tt.want, *s.Get().DailySteps)
		})
	}
}

func TestExtractAge(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantAge int
		wantSet bool
	}{
		{"years suffix", "I'm 34 years old", 34, true},
		{"yo suffix", "42 yo here", 42, true},
		{"yr suffix", "I'm 27 yr old", 27, true},
		{"below range", "19 years old", 0, false},
		{"above range", "71 years old", 0, false},
		{"no suffix", "I weigh 34 kilos", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			Extract(tt.text, "", s)

			if !tt.wantSet {
				assert.Nil(t, s.Get().Age)
				assert.True(t, s.Needed().Demographics)
				return
			}
			require.NotNil(t, s.Get().Age)
			assert.Equal(t, tt.wantAge, *s.Get().Age)
			assert.False(t, s.Needed().Demographics)
		})
	}
}

func TestExtractConditions(t *testing.T) {
	s := NewStore()
	Extract("I have a fatty liver diagnosis", "", s)
	require.NotNil(t, s.Get().Condition)
	assert.Equal(t, ConditionNAFLD, *s.Get().Condition)
	assert.False(t, s.Get().HideNumbers)

	s = NewStore()
	Extract("", "Thanks for sharing that you manage diabetes.", s)
	require.NotNil(t, s.Get().Condition)
	assert.Equal(t, ConditionDiabetes, *s.Get().Condition)

	s = NewStore()
	Extract("I'm in recovery from an eating disorder", "", s)
	require.NotNil(t, s.Get().Condition)
	assert.Equal(t, ConditionEDRecovery, *s.Get().Condition)
	assert.True(t, s.Get().HideNumbers)
}

func TestExtractConditionLaterRuleWinsInOneTurn(t *testing.T) {
	// Both condition keywords in a single turn: the later table entry wins.
	s := NewStore()
	Extract("I have fatty liver and diabetes", "", s)

	require.NotNil(t, s.Get().Condition)
	assert.Equal(t, ConditionDiabetes, *s.Get().Condition)
}

func TestExtractConditionMostRecentTurnWins(t *testing.T) {
	s := NewStore()
	Extract("I have diabetes", "", s)
	Extract("actually the doctor said fatty liver", "", s)

	require.NotNil(t, s.Get().Condition)
	assert.Equal(t, ConditionNAFLD, *s.Get().Condition)
}

func TestHideNumbersNeverUnset(t *testing.T) {
	s := NewStore()
	Extract("I'm recovering from an eating disorder", "", s)
	require.True(t, s.Get().HideNumbers)

	// Later turns set other fields; the latch must hold.
	Extract("I have fatty liver", "", s)
	Extract("about 9,000 steps and I'm 30 years old", "", s)

	assert.True(t, s.Get().HideNumbers)
	assert.Equal(t, ConditionNAFLD, *s.Get().Condition)
}

func TestExtractMultipleSignalsOneTurn(t *testing.T) {
	s := NewStore()
	Extract("I'm 45 years old, walk about 10,000 steps, want to lose weight", "", s)

	p := s.Get()
	require.NotNil(t, p.Age)
	require.NotNil(t, p.DailySteps)
	require.NotNil(t, p.Goal)
	assert.Equal(t, 45, *p.Age)
	assert.Equal(t, 10000, *p.DailySteps)
	assert.Equal(t, GoalLoseWeight, *p.Goal)
}

func TestExtractUsesProviderReplyToo(t *testing.T) {
	s := NewStore()
	Extract("yes please", "Got it, we'll aim for 0.5kg per week.", s)

	require.NotNil(t, s.Get().WeightPace)
	assert.Equal(t, PaceHalfKg, *s.Get().WeightPace)
}

func TestExtractRestrictionsInMentionOrder(t *testing.T) {
	s := NewStore()
	Extract("I'm vegetarian and have a nut allergy", "", s)
	Extract("also no dairy please", "", s)

	assert.Equal(t, []string{"vegetarian", "no nuts", "dairy-free"}, s.Get().Restrictions)
}

func TestExtractDeterministic(t *testing.T) {
	user := "I'm 38 years old, sit at a desk, around 6,200 steps, fatty liver"
	reply := "Let's aim for 0.5kg per week then."

	first := NewStore()
	Extract(user, reply, first)

	for i := 0; i < 5; i++ {
		s := NewStore()
		Extract(user, reply, s)
		assert.Equal(t, first.Get(), s.Get(), fmt.Sprintf("run %d diverged", i))
		assert.Equal(t, first.Needed(), s.Needed())
	}
}

func TestDataNeededMonotonic(t *testing.T) {
	s := NewStore()
	turns := []string{
		"hello there",
		"I want to lose weight",
		"I sit in an office",
		"hmm actually not sure about the goal anymore",
		"I'm 29 years old",
		"random chatter",
	}

	prev := s.Needed()
	for _, turn := range turns {
		Extract(turn, "", s)
		cur := s.Needed()
		if prev.Goal == false {
			assert.False(t, cur.Goal, "goal flag flipped back to true")
		}
		if prev.Activity == false {
			assert.False(t, cur.Activity, "activity flag flipped back to true")
		}
		if prev.Demographics == false {
			assert.False(t, cur.Demographics, "demographics flag flipped back to true")
		}
		prev = cur
	}

	assert.Equal(t, DataNeeded{Goal: false, Activity: false, Demographics: false}, s.Needed())
}
