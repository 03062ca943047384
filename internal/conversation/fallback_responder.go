package conversation

import "strings"

// fallbackRule routes a failed-provider turn to a canned, in-character
// reply based on keywords in the user's text. First match wins.
type fallbackRule struct {
	match func(text string) bool
	reply string
}

var fallbackRules = []fallbackRule{
	{
		match: func(text string) bool {
			return strings.Contains(text, "health") && strings.Contains(text, "condition")
		},
		reply: "Thanks for mentioning that. Could you tell me a bit more about the condition so I can factor it into your plan?",
	},
	{
		match: func(text string) bool {
			return strings.Contains(text, "weight") || strings.Contains(text, "lose")
		},
		reply: "A steady pace works best for most people: 0.5kg, 0.75kg, or 1kg per week. Which of those feels sustainable for you?",
	},
}

const fallbackDefaultReply = "Got it. To size your plan, roughly how many steps do you take on a typical day?"

// FallbackReply produces a deterministic reply for a turn whose provider
// call failed or timed out. The turn still flows through extraction and
// the completion policy, so the conversation never stalls on an outage.
func FallbackReply(userText string) string {
	text := strings.ToLower(userText)
	for _, r := range fallbackRules {
		if r.match(text) {
			return r.reply
		}
	}
	return fallbackDefaultReply
}
