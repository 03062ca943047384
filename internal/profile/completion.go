package profile

// Action is the completion policy's verdict after a turn.
type Action string

const (
	// ActionContinue keeps the conversation going.
	ActionContinue Action = "continue"
	// ActionWrapUp accepts a partial profile because the turn budget ran out.
	ActionWrapUp Action = "wrap_up"
	// ActionProceed hands the profile off to plan generation.
	ActionProceed Action = "proceed"
)

// Turn ceilings for the completion policy. The coach never questions past
// nine user turns, so a conversation that fails to converge still finishes.
const (
	minTurnsBeforeProceed = 5
	maxTurnsBeforeWrapUp  = 8
)

// Evaluate decides whether the session has gathered enough to proceed.
// The policy is deliberately lenient: it bounds the conversation rather
// than blocking it.
func Evaluate(p *Profile, messageCount int) Action {
	if p.HasEnoughInfo() && messageCount > minTurnsBeforeProceed {
		return ActionProceed
	}
	if messageCount > maxTurnsBeforeWrapUp {
		return ActionWrapUp
	}
	return ActionContinue
}
