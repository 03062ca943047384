package conversation

import (
	"strings"

	"github.com/mealmind/nutrition-coach/internal/profile"
)

const basePrompt = `You are a warm, practical nutrition coach helping someone set up a personalized meal plan.

Your job in this conversation is to learn, one question at a time:
- their goal (lose weight, maintain, or build muscle) and, if losing, a weekly pace
- how active they are day to day (desk job vs on their feet, rough daily steps)
- their age
- any health conditions or dietary restrictions that should shape the plan

Keep replies short (1-3 sentences), ask one question at a time, and never give medical advice. If they mention a health condition, acknowledge it and move on; the plan will account for it.`

const hideNumbersPrompt = `IMPORTANT: this person is recovering from an eating disorder. Do not mention calorie counts, target weights, weight-loss paces, or any other numeric body or food figures. Focus on balance, nourishment, and habits instead.`

// buildSystemPrompt assembles the provider system prompt from the current
// profile snapshot and the slots still to be asked about.
func buildSystemPrompt(p *profile.Profile, needed profile.DataNeeded) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	var known []string
	if p.Goal != nil {
		known = append(known, "goal: "+string(*p.Goal))
	}
	if p.WeightPace != nil {
		known = append(known, "weekly pace: "+string(*p.WeightPace))
	}
	if p.Condition != nil {
		known = append(known, "condition: "+string(*p.Condition))
	}
	if p.ActivityLevel != nil {
		known = append(known, "activity: "+string(*p.ActivityLevel))
	}
	if p.Age != nil {
		known = append(known, "age known")
	}
	if p.DailySteps != nil {
		known = append(known, "daily steps known")
	}
	if len(p.Restrictions) > 0 {
		known = append(known, "restrictions: "+strings.Join(p.Restrictions, ", "))
	}
	if len(known) > 0 {
		b.WriteString("\n\nAlready learned (do not ask again): ")
		b.WriteString(strings.Join(known, "; "))
		b.WriteString(".")
	}

	var missing []string
	if needed.Goal {
		missing = append(missing, "goal")
	}
	if needed.Activity {
		missing = append(missing, "activity level")
	}
	if needed.Demographics {
		missing = append(missing, "age")
	}
	if len(missing) > 0 {
		b.WriteString("\n\nStill to learn: ")
		b.WriteString(strings.Join(missing, ", "))
		b.WriteString(".")
	}

	if p.HideNumbers {
		b.WriteString("\n\n")
		b.WriteString(hideNumbersPrompt)
	}

	return b.String()
}
