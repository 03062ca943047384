// Package suggest proposes quick-reply chips for the next turn of a
// coaching conversation.
package suggest

import (
	"strings"

	"github.com/mealmind/nutrition-coach/internal/profile"
)

// Exchange is one completed turn as seen by the suggestion generator.
type Exchange struct {
	UserText      string
	ProviderReply string
}

// detector pairs a predicate over the latest exchange with the chips to
// offer when it fires. Detectors are evaluated in priority order and the
// first match wins.
type detector struct {
	name    string
	match   func(reply, userText string) bool
	options []string
}

func replyContainsAny(subs ...string) func(reply, userText string) bool {
	return func(reply, _ string) bool {
		return containsAny(reply, subs)
	}
}

func userContainsAny(subs ...string) func(reply, userText string) bool {
	return func(_, userText string) bool {
		return containsAny(userText, subs)
	}
}

func containsAny(text string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}

var detectors = []detector{
	{
		name:    "weight_goal",
		match:   replyContainsAny("lose weight", "weight loss", "losing weight", "maintain your weight"),
		options: []string{"Yes, lose some weight", "Maintain my weight", "Not sure yet"},
	},
	{
		name:    "activity",
		match:   replyContainsAny("activity", "steps", "walking", "how active"),
		options: []string{"Under 5,000 steps", "5,000-10,000 steps", "Over 10,000 steps"},
	},
	{
		name:    "condition_question",
		match:   replyContainsAny("what condition", "which condition"),
		options: []string{"Fatty liver disease", "Diabetes", "I'd rather not say"},
	},
	{
		name:    "condition_category",
		match:   userContainsAny("health condition", "medical"),
		options: []string{"Liver condition", "Blood sugar condition", "Something else"},
	},
	{
		name:    "pace",
		match:   replyContainsAny("pace", "per week", "a week", "percent", "%"),
		options: []string{"0.5kg per week", "0.75kg per week", "1kg per week"},
	},
	{
		name:    "age",
		match:   replyContainsAny("age", "how old"),
		options: []string{"20-34", "35-49", "50-69"},
	},
	{
		name:    "dietary",
		match:   replyContainsAny("food", "restriction", "allerg", "diet"),
		options: []string{"Vegetarian", "No dairy", "No restrictions"},
	},
}

const maxSuggestions = 3

// Suggest inspects the latest exchange and returns 0-3 quick replies.
// The latest provider reply is checked first; if the session has none yet,
// the latest user text stands in for it. Detector order is the priority
// order; only the first hit is used.
func Suggest(history []Exchange, needed profile.DataNeeded, messageCount int) []string {
	var reply, userText string
	for i := len(history) - 1; i >= 0; i-- {
		if reply == "" && history[i].ProviderReply != "" {
			reply = strings.ToLower(history[i].ProviderReply)
		}
		if userText == "" && history[i].UserText != "" {
			userText = strings.ToLower(history[i].UserText)
		}
		if reply != "" && userText != "" {
			break
		}
	}

	for _, d := range detectors {
		if d.match(reply, userText) {
			return clip(d.options)
		}
	}

	// Fallbacks when no topical detector fired.
	if needed.Demographics && messageCount > 2 {
		return clip([]string{"Under 5,000 steps", "5,000-10,000 steps", "Over 10,000 steps"})
	}
	if messageCount > 5 {
		return clip([]string{"Let's start my plan", "That's everything", "What's next?"})
	}
	return nil
}

func clip(options []string) []string {
	if len(options) > maxSuggestions {
		return options[:maxSuggestions]
	}
	return options
}
