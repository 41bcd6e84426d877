package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

func RecordUserTurn(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	var meta map[string]any
	if in.Analysis != nil {
		meta = map[string]any{
			"task_type":  string(in.Analysis.Type),
			"complexity": string(in.Analysis.Complexity),
		}
	}
	in.Session.AddUserMessage(in.Text, meta)
	return in, nil
}
