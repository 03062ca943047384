package conversation

import (
	"regexp"
	"strings"
)

// The number guard is the single boundary where numeric suppression is
// enforced: every piece of user-facing text the engine emits passes through
// GuardReply before leaving the package. Downstream consumers (the plan
// pipeline) still receive the full numeric profile.

// numberPattern flags one class of figures that must not reach a user whose
// profile has HideNumbers latched.
type numberPattern struct {
	re     *regexp.Regexp
	reason string
}

var numberPatterns = []numberPattern{
	// Calorie figures: "1,800 calories", "1800 kcal", "around 2100 cal".
	{regexp.MustCompile(`(?i)\b\d{1,2}[,.]?\d{3}\s*(?:k?cal(?:orie)?s?)\b`), "calorie_figure"},
	{regexp.MustCompile(`(?i)\b\d{3,4}\s*(?:k?cal(?:orie)?s?)\b`), "calorie_figure"},
	// Weight / pace figures: "0.5kg", "0.75 kg per week", "lose 3 kilos".
	{regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:kg|kilo(?:gram)?s?|lbs?|pounds?)\b`), "weight_figure"},
	// Explicit percent splits: "45% carbs".
	{regexp.MustCompile(`(?i)\b\d{1,3}\s*%`), "percent_figure"},
}

const numberPlaceholder = "a personalized amount"

// GuardResult reports what the guard did to a reply.
type GuardResult struct {
	// Text is the reply safe to show the user.
	Text string
	// Suppressed is true if any figure was replaced.
	Suppressed bool
	// Reasons lists the pattern classes that fired.
	Reasons []string
}

// GuardReply removes calorie, weight, and percentage figures from outbound
// text when hideNumbers is set. With the flag clear it passes text through
// untouched.
func GuardReply(text string, hideNumbers bool) GuardResult {
	if !hideNumbers || strings.TrimSpace(text) == "" {
		return GuardResult{Text: text}
	}

	var reasons []string
	cleaned := text
	for _, p := range numberPatterns {
		if !p.re.MatchString(cleaned) {
			continue
		}
		reasons = append(reasons, p.reason)
		cleaned = p.re.ReplaceAllString(cleaned, numberPlaceholder)
	}

	if len(reasons) == 0 {
		return GuardResult{Text: text}
	}
	return GuardResult{Text: cleaned, Suppressed: true, Reasons: reasons}
}

// GuardSuggestions filters quick-reply chips the same way GuardReply
// filters prose. A chip that trips a pattern is dropped outright: a
// placeholder is not a tappable answer.
func GuardSuggestions(options []string, hideNumbers bool) []string {
	if !hideNumbers || len(options) == 0 {
		return options
	}
	kept := make([]string, 0, len(options))
	for _, opt := range options {
		if GuardReply(opt, true).Suppressed {
			continue
		}
		kept = append(kept, opt)
	}
	return kept
}
