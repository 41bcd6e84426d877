package orchestratornode

import (
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	statex "github.com/tanpawarit/chative-orchestrator/agent/state"
)

// toolListTodos is the read-only tool whose success means the user is gathering information.
const toolListTodos = "listTodos"

// stateForInput maps the resolved complexity to a state. Complex work is
// planned even when it came from the configured default rather than a
// classification; otherwise an analysis means execution and no analysis
// leaves the session idle.
func stateForInput(complexity contractx.Complexity, analyzed bool) statex.ConversationState {
	switch {
	case complexity == contractx.ComplexityComplex:
		return statex.StateTaskPlanning
	case analyzed:
		return statex.StateTaskExecution
	default:
		return statex.StateIdle
	}
}

// StateAfterToolResult is the conversation state once a tool outcome is known.
func StateAfterToolResult(toolName string, result contractx.ToolResult) statex.ConversationState {
	switch {
	case !result.Success:
		return statex.StateClarificationNeeded
	case toolName == toolListTodos:
		return statex.StateInformationGathering
	default:
		return statex.StateTaskExecution
	}
}
