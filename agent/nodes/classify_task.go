package orchestratornode

import (
	"fmt"

	classifierx "github.com/tanpawarit/chative-orchestrator/agent/classifier"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

// ClassifyTask fills in the analysis, role and complexity. When planning is
// disabled the analysis stays nil and the configured defaults apply.
func ClassifyTask(in *GraphState, enabled bool, defaultRole contractx.Role, defaultComplexity contractx.Complexity) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if !enabled {
		in.Analysis = nil
		in.Role = defaultRole
		in.Complexity = defaultComplexity
		return in, nil
	}

	analysis := classifierx.Analyze(in.Text)
	in.Analysis = &analysis
	in.Role = analysis.RecommendedRole
	in.Complexity = analysis.Complexity
	return in, nil
}
