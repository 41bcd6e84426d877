package planner

import (
	"fmt"
	"math"
	"sort"
)

type Recommendation struct {
	Ready                  []PlanStep `json:"ready"`
	Blocked                []PlanStep `json:"blocked"`
	InProgress             []PlanStep `json:"in_progress"`
	Stalled                []PlanStep `json:"stalled"`
	CompletionPercentage   int        `json:"completion_percentage"`
	EstimatedRemainingTime string     `json:"estimated_remaining_time"`
}

// NextStepRecommendation partitions the plan's steps by what can happen next.
// Ready steps are pending with every dependency completed, highest priority first.
// Blocked steps are pending with at least one unmet dependency.
// Stalled steps are the ones explicitly marked blocked.
func NextStepRecommendation(plan ExecutionPlan) Recommendation {
	status := make(map[string]StepStatus, len(plan.Steps))
	for _, s := range plan.Steps {
		status[s.ID] = s.Status
	}

	rec := Recommendation{
		Ready:      []PlanStep{},
		Blocked:    []PlanStep{},
		InProgress: []PlanStep{},
		Stalled:    []PlanStep{},
	}
	completed := 0
	for _, s := range plan.Steps {
		switch s.Status {
		case StatusCompleted:
			completed++
		case StatusInProgress:
			rec.InProgress = append(rec.InProgress, s)
		case StatusBlocked:
			rec.Stalled = append(rec.Stalled, s)
		case StatusPending:
			if dependenciesMet(s, status) {
				rec.Ready = append(rec.Ready, s)
			} else {
				rec.Blocked = append(rec.Blocked, s)
			}
		}
	}

	sort.SliceStable(rec.Ready, func(i, j int) bool {
		return rec.Ready[i].Priority.Priority.rank() > rec.Ready[j].Priority.Priority.rank()
	})

	rec.CompletionPercentage = completionPercentage(completed, len(plan.Steps))
	rec.EstimatedRemainingTime = remainingTime(len(plan.Steps) - completed)
	return rec
}

func dependenciesMet(step PlanStep, status map[string]StepStatus) bool {
	for _, dep := range step.Dependencies {
		if status[dep] != StatusCompleted {
			return false
		}
	}
	return true
}

// completionPercentage is 100 for an empty plan.
func completionPercentage(completed, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func remainingTime(remaining int) string {
	if remaining <= 0 {
		return "completed"
	}
	return fmt.Sprintf("%d-%d hours", 2*remaining, 4*remaining)
}

// UpdatePlanProgress returns a copy of plan with the status of stepID set to
// status and UpdatedAt refreshed. The input plan is never modified.
// Status only moves forward: pending, in_progress, then completed or blocked.
// Setting a step to the status it already has is a no-op.
func (p *Planner) UpdatePlanProgress(plan ExecutionPlan, stepID string, status StepStatus) (ExecutionPlan, error) {
	newRank, ok := status.rank()
	if !ok {
		return plan, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	idx := -1
	for i, s := range plan.Steps {
		if s.ID == stepID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return plan, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	current := plan.Steps[idx].Status
	if current == status {
		return plan.Clone(), nil
	}
	curRank, _ := current.rank()
	if newRank <= curRank {
		return plan, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	out := plan.Clone()
	out.Steps[idx].Status = status
	out.UpdatedAt = p.now()
	return out, nil
}

// Validate reports duplicate step ids, dependencies on unknown steps, and cycles.
func (p ExecutionPlan) Validate() error {
	deps := make(map[string][]string, len(p.Steps))
	for _, s := range p.Steps {
		if _, dup := deps[s.ID]; dup {
			return fmt.Errorf("duplicate step id %s", s.ID)
		}
		deps[s.ID] = s.Dependencies
	}
	for _, s := range p.Steps {
		for _, dep := range s.Dependencies {
			if _, ok := deps[dep]; !ok {
				return fmt.Errorf("%w: %s -> %s", ErrDanglingDependency, s.ID, dep)
			}
		}
	}

	// 0 = unvisited, 1 = on the current path, 2 = done.
	colors := make(map[string]int, len(p.Steps))
	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1
		for _, dep := range deps[id] {
			switch colors[dep] {
			case 1:
				return true
			case 0:
				if visit(dep) {
					return true
				}
			}
		}
		colors[id] = 2
		return false
	}
	for _, s := range p.Steps {
		if colors[s.ID] == 0 && visit(s.ID) {
			return fmt.Errorf("%w: reachable from %s", ErrDependencyCycle, s.ID)
		}
	}
	return nil
}
