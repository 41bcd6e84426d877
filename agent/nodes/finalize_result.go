package orchestratornode

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	toolx "github.com/tanpawarit/chative-orchestrator/agent/tool"
)

func FinalizeResult(in *GraphState, catalog []toolx.Spec, infos []*schema.ToolInfo) (GraphOutput, error) {
	if in == nil || in.Session == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if in.Prompt == "" {
		return GraphOutput{}, fmt.Errorf("%w: system prompt is empty", contractx.ErrPromptMissing)
	}

	meta := map[string]any{
		"session_id":    in.Session.ID(),
		"message_count": in.Session.Metadata().MessageCount,
		"role":          string(in.Role),
		"complexity":    string(in.Complexity),
		"knowledge":     len(in.Snippets),
		"timestamp":     in.Now,
	}
	if in.Analysis != nil {
		meta["task_type"] = string(in.Analysis.Type)
	}
	if in.RetrievalErr != nil {
		meta["retrieval_error"] = in.RetrievalErr.Error()
	}

	return GraphOutput{
		Prompt:            in.Prompt,
		ToolCatalog:       catalog,
		ToolInfos:         infos,
		KnowledgeContext:  in.KnowledgeContext,
		Analysis:          in.Analysis,
		ConversationState: in.State,
		Plan:              in.Plan,
		Metadata:          meta,
	}, nil
}
