// Package planner turns a task classification into an ordered execution plan
// and tracks progress through it.
package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	classifierx "github.com/tanpawarit/chative-orchestrator/agent/classifier"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

type Planner struct {
	now   func() time.Time
	newID func() string
}

func New() *Planner {
	return &Planner{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

var (
	planningKeywords = []string{"plan", "define", "design", "outline", "gather", "set ", "map ", "research question"}
	reviewKeywords   = []string{"review", "assess", "evaluate", "monitor", "feedback", "retrospective"}
	urgentKeywords   = []string{"urgent", "asap", "today", "tomorrow", "immediately", "deadline"}
)

// CreateExecutionPlan builds one step per key component of the analysis.
// Steps form a linear chain: each step depends on the one before it.
// A nil analysis is resolved with classifier.Analyze.
func (p *Planner) CreateExecutionPlan(description string, analysis *classifierx.TaskAnalysis) ExecutionPlan {
	if analysis == nil {
		a := classifierx.Analyze(description)
		analysis = &a
	}
	urgent := containsAny(strings.ToLower(description), urgentKeywords)

	steps := make([]PlanStep, 0, len(analysis.KeyComponents))
	for i, component := range analysis.KeyComponents {
		phase := inferPhase(component)
		step := PlanStep{
			ID:           fmt.Sprintf("step-%d", i+1),
			Title:        component,
			Phase:        phase,
			Dependencies: []string{},
			Priority:     stepPriority(i, phase, analysis.Complexity, urgent),
			Resources:    stepResources(phase, analysis.RecommendedTools),
			Deliverables: []string{deliverableFor(phase, component)},
			Status:       StatusPending,
		}
		if i > 0 {
			step.Dependencies = []string{steps[i-1].ID}
		}
		steps = append(steps, step)
	}

	risks := make([]string, 0, len(analysis.PotentialChallenges))
	for _, c := range analysis.PotentialChallenges {
		risks = append(risks, "risk: "+c)
	}

	now := p.now()
	return ExecutionPlan{
		ID:              p.newID(),
		Title:           strings.TrimSpace(description),
		Type:            analysis.Type,
		Complexity:      analysis.Complexity,
		Steps:           steps,
		CriticalPath:    criticalPath(steps),
		Risks:           risks,
		SuccessCriteria: successCriteria(description, analysis.EstimatedDuration),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func inferPhase(component string) Phase {
	lower := strings.ToLower(component) + " "
	switch {
	case containsAny(lower, reviewKeywords):
		return PhaseReview
	case containsAny(lower, planningKeywords):
		return PhasePlanning
	default:
		return PhaseExecution
	}
}

func stepPriority(index int, phase Phase, complexity contractx.Complexity, urgent bool) Priority {
	urgency := LevelMedium
	if index == 0 {
		urgency = LevelHigh
	}
	if urgent {
		urgency = levelAt(urgency.rank() + 1)
	}

	importance := LevelMedium
	if complexity == contractx.ComplexityComplex {
		importance = LevelHigh
	}
	if phase == PhaseReview {
		importance = levelAt(importance.rank() - 1)
	}

	return Priority{
		Urgency:    urgency,
		Importance: importance,
		Priority:   combinePriority(urgency, importance),
	}
}

// combinePriority folds urgency and importance into one level.
func combinePriority(urgency, importance Level) Level {
	switch sum := urgency.rank() + importance.rank(); {
	case sum >= 5:
		return LevelCritical
	case sum >= 3:
		return LevelHigh
	case sum >= 2:
		return LevelMedium
	default:
		return LevelLow
	}
}

func stepResources(phase Phase, tools []string) []string {
	switch phase {
	case PhasePlanning:
		return []string{"notes", "calendar"}
	case PhaseReview:
		return []string{"checklist"}
	default:
		if len(tools) == 0 {
			return []string{"todo list"}
		}
		return cloneStrings(tools)
	}
}

func deliverableFor(phase Phase, component string) string {
	switch phase {
	case PhasePlanning:
		return "written plan: " + component
	case PhaseReview:
		return "review notes: " + component
	default:
		return "completed: " + component
	}
}

func criticalPath(steps []PlanStep) []string {
	path := []string{}
	for _, s := range steps {
		if len(s.Dependencies) > 0 || s.Priority.Priority == LevelCritical {
			path = append(path, s.ID)
		}
	}
	return path
}

func successCriteria(description, duration string) []string {
	d := strings.TrimSpace(description)
	return []string{
		fmt.Sprintf("Every step of %q is completed", d),
		fmt.Sprintf("Each deliverable for %q has been produced and checked", d),
		fmt.Sprintf("%q is finished within the estimated %s", d, duration),
		fmt.Sprintf("No open blockers remain for %q", d),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
