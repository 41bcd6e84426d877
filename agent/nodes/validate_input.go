package orchestratornode

import (
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	classifierx "github.com/tanpawarit/chative-orchestrator/agent/classifier"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	plannerx "github.com/tanpawarit/chative-orchestrator/agent/planner"
	statex "github.com/tanpawarit/chative-orchestrator/agent/state"
	toolx "github.com/tanpawarit/chative-orchestrator/agent/tool"
)

type GraphInput struct {
	Text string
}

// GraphOutput is everything the host needs to run one model exchange.
type GraphOutput struct {
	Prompt            string                    `json:"prompt"`
	ToolCatalog       []toolx.Spec              `json:"tool_catalog"`
	ToolInfos         []*schema.ToolInfo        `json:"-"`
	KnowledgeContext  string                    `json:"knowledge_context"`
	Analysis          *classifierx.TaskAnalysis `json:"analysis,omitempty"`
	ConversationState statex.ConversationState  `json:"conversation_state"`
	Plan              *plannerx.ExecutionPlan   `json:"plan,omitempty"`
	Metadata          map[string]any            `json:"metadata"`
}

type GraphState struct {
	Text    string
	Now     time.Time
	Session *statex.Session

	Analysis   *classifierx.TaskAnalysis
	Role       contractx.Role
	Complexity contractx.Complexity

	Snippets         []contractx.KnowledgeSnippet
	KnowledgeContext string
	RetrievalErr     error

	Prompt string
	Plan   *plannerx.ExecutionPlan
	State  statex.ConversationState
}

// ValidateInput starts the pipeline. The text is kept exactly as given; blank
// text is not an error and classifies like any other unmatched input.
func ValidateInput(in GraphInput, session *statex.Session, nowFn func() time.Time) (*GraphState, error) {
	if session == nil {
		return nil, fmt.Errorf("%w: session is nil", contractx.ErrValidation)
	}
	return &GraphState{
		Text:    in.Text,
		Now:     nowFn().UTC(),
		Session: session,
	}, nil
}
