package planner

import (
	"errors"
	"time"

	classifierx "github.com/tanpawarit/chative-orchestrator/agent/classifier"
	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

var (
	ErrStepNotFound       = errors.New("plan step not found")
	ErrInvalidTransition  = errors.New("invalid step status transition")
	ErrDanglingDependency = errors.New("step depends on unknown step")
	ErrDependencyCycle    = errors.New("circular step dependency")
)

type StepStatus string

const (
	StatusPending    StepStatus = "pending"
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
	StatusBlocked    StepStatus = "blocked"
)

// rank orders statuses along the only allowed direction of travel.
// Completed and blocked are both terminal.
func (s StepStatus) rank() (int, bool) {
	switch s {
	case StatusPending:
		return 0, true
	case StatusInProgress:
		return 1, true
	case StatusCompleted, StatusBlocked:
		return 2, true
	default:
		return 0, false
	}
}

type Phase string

const (
	PhasePlanning  Phase = "planning"
	PhaseExecution Phase = "execution"
	PhaseReview    Phase = "review"
)

type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

var levelOrder = []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical}

func (l Level) rank() int {
	for i, v := range levelOrder {
		if v == l {
			return i
		}
	}
	return 0
}

func levelAt(rank int) Level {
	rank = min(max(rank, 0), len(levelOrder)-1)
	return levelOrder[rank]
}

type Priority struct {
	Urgency    Level `json:"urgency"`
	Importance Level `json:"importance"`
	Priority   Level `json:"priority"`
}

type PlanStep struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Phase        Phase      `json:"phase"`
	Dependencies []string   `json:"dependencies"`
	Priority     Priority   `json:"priority"`
	Resources    []string   `json:"resources"`
	Deliverables []string   `json:"deliverables"`
	Status       StepStatus `json:"status"`
}

// ExecutionPlan is treated as a value: progress updates return a new plan.
type ExecutionPlan struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	Type            classifierx.TaskType `json:"type"`
	Complexity      contractx.Complexity `json:"complexity"`
	Steps           []PlanStep           `json:"steps"`
	CriticalPath    []string             `json:"critical_path"`
	Risks           []string             `json:"risks"`
	SuccessCriteria []string             `json:"success_criteria"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Step returns the step with id and whether it exists.
func (p ExecutionPlan) Step(id string) (PlanStep, bool) {
	for _, s := range p.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return PlanStep{}, false
}

// Clone returns a deep copy; slices of the result share nothing with p.
func (p ExecutionPlan) Clone() ExecutionPlan {
	out := p
	out.Steps = make([]PlanStep, len(p.Steps))
	for i, s := range p.Steps {
		s.Dependencies = cloneStrings(s.Dependencies)
		s.Resources = cloneStrings(s.Resources)
		s.Deliverables = cloneStrings(s.Deliverables)
		out.Steps[i] = s
	}
	out.CriticalPath = cloneStrings(p.CriticalPath)
	out.Risks = cloneStrings(p.Risks)
	out.SuccessCriteria = cloneStrings(p.SuccessCriteria)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
