package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	promptx "github.com/tanpawarit/chative-orchestrator/agent/prompt"
)

func ComposePrompt(in *GraphState, composer *promptx.Composer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if composer == nil {
		return nil, fmt.Errorf("%w: prompt composer is nil", contractx.ErrPromptMissing)
	}
	in.Prompt = composer.Build(in.Role, in.Complexity, in.KnowledgeContext)
	return in, nil
}
