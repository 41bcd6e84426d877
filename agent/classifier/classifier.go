// Package classifier maps a free-text task description to a task type,
// a complexity score, and the role and tooling recommended for it.
package classifier

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-orchestrator/agent/contract"
)

type TaskType string

const (
	TypeSimpleTodo         TaskType = "SIMPLE_TODO"
	TypeEventPlanning      TaskType = "EVENT_PLANNING"
	TypeProjectManagement  TaskType = "PROJECT_MANAGEMENT"
	TypeLearning           TaskType = "LEARNING"
	TypeContentCreation    TaskType = "CONTENT_CREATION"
	TypeResearch           TaskType = "RESEARCH"
	TypeWorkflowAutomation TaskType = "WORKFLOW_AUTOMATION"
)

// TaskAnalysis is the full classification of one description.
type TaskAnalysis struct {
	Type                TaskType             `json:"type"`
	Complexity          contractx.Complexity `json:"complexity"`
	Score               int                  `json:"score"`
	Signals             []string             `json:"signals,omitempty"`
	RecommendedRole     contractx.Role       `json:"recommended_role"`
	RecommendedApproach string               `json:"recommended_approach"`
	KeyComponents       []string             `json:"key_components"`
	PotentialChallenges []string             `json:"potential_challenges"`
	RecommendedTools    []string             `json:"recommended_tools"`
	EstimatedDuration   string               `json:"estimated_duration"`
}

// Analyze classifies description. It is deterministic and never fails:
// text that matches nothing falls back to SIMPLE_TODO.
func Analyze(description string) TaskAnalysis {
	lower := strings.ToLower(description)

	taskType := identifyType(lower)
	score, signals := scoreComplexity(taskType, lower)
	complexity := complexityForScore(score)
	profile := profiles[taskType]

	return TaskAnalysis{
		Type:                taskType,
		Complexity:          complexity,
		Score:               score,
		Signals:             signals,
		RecommendedRole:     recommendRole(taskType, complexity),
		RecommendedApproach: approaches[complexity],
		KeyComponents:       cloneStrings(profile.components),
		PotentialChallenges: challengesFor(complexity, profile),
		RecommendedTools:    cloneStrings(profile.tools),
		EstimatedDuration:   estimateDuration(complexity, len(profile.components)),
	}
}

func identifyType(lower string) TaskType {
	for _, group := range typeGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.taskType
			}
		}
	}
	return TypeSimpleTodo
}

// Each signal counts once regardless of how often it appears.
func scoreComplexity(taskType TaskType, lower string) (int, []string) {
	score := baseScores[taskType]
	var signals []string
	for _, sig := range complexitySignals {
		if strings.Contains(lower, sig.keyword) {
			score += sig.weight
			signals = append(signals, sig.keyword)
		}
	}
	return score, signals
}

func complexityForScore(score int) contractx.Complexity {
	switch {
	case score <= 2:
		return contractx.ComplexitySimple
	case score <= 5:
		return contractx.ComplexityModerate
	default:
		return contractx.ComplexityComplex
	}
}

func recommendRole(taskType TaskType, complexity contractx.Complexity) contractx.Role {
	switch {
	case complexity == contractx.ComplexityComplex:
		return contractx.RoleTaskPlanner
	case taskType == TypeResearch:
		return contractx.RoleKnowledgeAdvisor
	default:
		return contractx.RoleTaskExecutor
	}
}

func challengesFor(complexity contractx.Complexity, profile typeProfile) []string {
	base := baseChallenges[complexity]
	out := make([]string, 0, len(base)+len(profile.challenges))
	out = append(out, base...)
	return append(out, profile.challenges...)
}

func estimateDuration(complexity contractx.Complexity, components int) string {
	hours := baseHours[complexity] * max(components, 1)
	switch {
	case hours < 8:
		return plural(hours, "hour")
	case hours < 40:
		return plural(ceilDiv(hours, 8), "day")
	default:
		return plural(ceilDiv(hours, 40), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func cloneStrings(in []string) []string {
	return append([]string(nil), in...)
}
