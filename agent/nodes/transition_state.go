package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

// TransitionState moves the session into the state implied by the complexity and,
// when a plan was built, regenerates the task context from it.
func TransitionState(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.State = stateForInput(in.Complexity, in.Analysis != nil)
	if in.Plan != nil {
		patch := PlanTaskContext(*in.Plan, in.Analysis.EstimatedDuration)
		in.Session.UpdateState(in.State, &patch)
		return in, nil
	}
	in.Session.UpdateState(in.State, nil)
	return in, nil
}
