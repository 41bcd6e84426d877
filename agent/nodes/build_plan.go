package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
	plannerx "github.com/tanpawarit/chative-orchestrator/agent/planner"
	statex "github.com/tanpawarit/chative-orchestrator/agent/state"
)

// BuildPlan creates an execution plan for complex tasks. Other inputs pass through.
func BuildPlan(in *GraphState, planner *plannerx.Planner) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Analysis == nil || in.Analysis.Complexity != contractx.ComplexityComplex || planner == nil {
		return in, nil
	}

	plan := planner.CreateExecutionPlan(in.Text, in.Analysis)
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("generated plan is invalid: %w", err)
	}
	in.Plan = &plan
	return in, nil
}

// PlanTaskContext projects a plan onto the session task context.
func PlanTaskContext(plan plannerx.ExecutionPlan, estimate string) statex.TaskContextPatch {
	titles := make(map[string]string, len(plan.Steps))
	for _, s := range plan.Steps {
		titles[s.ID] = s.Title
	}

	steps := make([]string, 0, len(plan.Steps))
	pending := []string{}
	completed := []string{}
	deps := []string{}
	resources := []string{}
	seen := map[string]bool{}
	top := plannerx.LevelLow

	for _, s := range plan.Steps {
		steps = append(steps, s.Title)
		if s.Status == plannerx.StatusCompleted {
			completed = append(completed, s.Title)
		} else {
			pending = append(pending, s.Title)
		}
		for _, d := range s.Dependencies {
			deps = append(deps, fmt.Sprintf("%s after %s", s.Title, titles[d]))
		}
		for _, r := range s.Resources {
			if !seen[r] {
				seen[r] = true
				resources = append(resources, r)
			}
		}
		if higherLevel(s.Priority.Priority, top) {
			top = s.Priority.Priority
		}
	}

	current := plan.Title
	priority := string(top)
	return statex.TaskContextPatch{
		CurrentTask:    &current,
		TaskSteps:      steps,
		CompletedSteps: completed,
		PendingSteps:   pending,
		Dependencies:   deps,
		Priority:       &priority,
		EstimatedTime:  &estimate,
		Resources:      resources,
	}
}

func higherLevel(a, b plannerx.Level) bool {
	order := map[plannerx.Level]int{
		plannerx.LevelLow:      0,
		plannerx.LevelMedium:   1,
		plannerx.LevelHigh:     2,
		plannerx.LevelCritical: 3,
	}
	return order[a] > order[b]
}
